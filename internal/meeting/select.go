package meeting

import "github.com/sirupsen/logrus"

// Select picks the active provider once at startup. "auto" prefers google, then zoom, then stub.
// An explicit choice that is not enabled falls back to stub.
func Select(mode string, google, zoom, stub Provider, logger logrus.FieldLogger) Provider {
	var chosen Provider
	switch mode {
	case NameGoogle:
		chosen = fallback(google, stub, logger)
	case NameZoom:
		chosen = fallback(zoom, stub, logger)
	case NameStub:
		chosen = stub
	default:
		switch {
		case enabled(google):
			chosen = google
		case enabled(zoom):
			chosen = zoom
		default:
			chosen = stub
		}
	}
	logger.WithFields(logrus.Fields{"mode": mode, "provider": chosen.Name()}).Info("meeting: provider selected")
	return chosen
}

func fallback(p, stub Provider, logger logrus.FieldLogger) Provider {
	if enabled(p) {
		return p
	}
	logger.Warn("meeting: requested provider is not configured, using stub links")
	return stub
}

func enabled(p Provider) bool {
	return p != nil && p.IsEnabled()
}
