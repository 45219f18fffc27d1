package security

import "time"

// TestSecret is the signing secret used by NewTestTokenProvider.
const TestSecret = "test-secret-do-not-use"

// NewTestTokenProvider returns a TokenProvider with a fixed secret and a one hour access TTL.
// For use in tests only; do not use in production.
func NewTestTokenProvider() *TokenProvider {
	return NewTokenProvider(TestSecret, time.Hour)
}
