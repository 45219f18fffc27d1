package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	customerdomain "slot-booking/backend/internal/customer/domain"
	"slot-booking/backend/internal/emaillog"
	emaillogdomain "slot-booking/backend/internal/emaillog/domain"
	"slot-booking/backend/internal/logging"
	"slot-booking/backend/internal/mail"
	"slot-booking/backend/internal/meeting"
	sessiondomain "slot-booking/backend/internal/session/domain"
	"slot-booking/backend/internal/slot"
	staffdomain "slot-booking/backend/internal/staff/domain"
	"slot-booking/backend/internal/telemetry"
)

// memSessionRepo enforces the (staff_id, start_at) uniqueness of active sessions like the partial index.
type memSessionRepo struct {
	mu      sync.Mutex
	rows    map[string]sessiondomain.Session
	findErr error
	// skipCheck makes FindActiveAt miss, simulating a concurrent booking that passed the advisory check.
	skipCheck bool
	// beforeWrite and afterWrite run around Create and Update, simulating work that lands mid-request.
	beforeWrite func(op string)
	afterWrite  func(op string)
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{rows: make(map[string]sessiondomain.Session)}
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memSessionRepo) ListByCustomer(ctx context.Context, customerID string) ([]*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*sessiondomain.Session
	for _, s := range r.rows {
		if s.CustomerID == customerID {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	return out, nil
}

func (r *memSessionRepo) FindActiveAt(ctx context.Context, staffID string, startAt time.Time, excludeID string) (*sessiondomain.Session, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.skipCheck {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.StaffID == staffID && s.StartAt.Equal(startAt) && s.Active() && s.ID != excludeID {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) ListActiveBetween(ctx context.Context, from, to time.Time) ([]*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*sessiondomain.Session
	for _, s := range r.rows {
		if s.Active() && !s.StartAt.Before(from) && s.StartAt.Before(to) {
			s := s
			out = append(out, &s)
		}
	}
	return out, nil
}

func (r *memSessionRepo) conflicts(s *sessiondomain.Session) bool {
	if !s.Active() {
		return false
	}
	for id, o := range r.rows {
		if id != s.ID && o.Active() && o.StaffID == s.StaffID && o.StartAt.Equal(s.StartAt) {
			return true
		}
	}
	return false
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	return r.write(ctx, "create", s)
}

func (r *memSessionRepo) Update(ctx context.Context, s *sessiondomain.Session) error {
	return r.write(ctx, "update", s)
}

func (r *memSessionRepo) write(ctx context.Context, op string, s *sessiondomain.Session) error {
	if r.beforeWrite != nil {
		r.beforeWrite(op)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.store(op, s); err != nil {
		return err
	}
	if r.afterWrite != nil {
		r.afterWrite(op)
	}
	return nil
}

func (r *memSessionRepo) store(op string, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op == "update" {
		if cur, ok := r.rows[s.ID]; !ok || !cur.Active() {
			return sessiondomain.ErrNotActive
		}
	}
	if r.conflicts(s) {
		return sessiondomain.ErrSlotTaken
	}
	cp := *s
	cp.Staff = nil
	r.rows[s.ID] = cp
	return nil
}

func (r *memSessionRepo) UpdateStatus(ctx context.Context, id string, status sessiondomain.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[id]
	if !ok {
		return errors.New("no rows")
	}
	s.Status = status
	s.UpdatedAt = at
	r.rows[id] = s
	return nil
}

func (r *memSessionRepo) get(id string) sessiondomain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type memStaffRepo struct {
	staff []*staffdomain.Staff
}

func (r *memStaffRepo) GetByID(ctx context.Context, id string) (*staffdomain.Staff, error) {
	for _, s := range r.staff {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (r *memStaffRepo) List(ctx context.Context) ([]*staffdomain.Staff, error) {
	return r.staff, nil
}

type memEmailLogRepo struct {
	mu      sync.Mutex
	entries []*emaillogdomain.EmailLog
}

func (m *memEmailLogRepo) Create(ctx context.Context, l *emaillogdomain.EmailLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, l)
	return nil
}

func (m *memEmailLogRepo) ListBySession(ctx context.Context, sessionID string) ([]*emaillogdomain.EmailLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*emaillogdomain.EmailLog
	for _, l := range m.entries {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memEmailLogRepo) all() []*emaillogdomain.EmailLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*emaillogdomain.EmailLog(nil), m.entries...)
}

type fakeSender struct {
	result mail.Result
	sent   []mail.Notification
	// ctxErrs holds ctx.Err() as seen by each send.
	ctxErrs []error
}

func (f *fakeSender) SendSessionNotification(ctx context.Context, n mail.Notification) mail.Result {
	f.sent = append(f.sent, n)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.result
}

// fakeProvider counts calls, optionally fails, and records revocations.
type fakeProvider struct {
	mu      sync.Mutex
	err     error
	calls   int
	revoked []string
	seq     int
}

func (p *fakeProvider) Name() string    { return "fake" }
func (p *fakeProvider) IsEnabled() bool { return true }

func (p *fakeProvider) CreateMeeting(ctx context.Context, staff *staffdomain.Staff, req meeting.Request) (meeting.Meeting, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return meeting.Meeting{}, p.err
	}
	p.seq++
	id := "mtg-" + strconv.Itoa(p.seq)
	return meeting.Meeting{MeetURL: "https://meet.example.com/" + id, ExternalID: id}, nil
}

func (p *fakeProvider) CancelMeeting(ctx context.Context, staff *staffdomain.Staff, externalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, externalID)
	return nil
}

type captureEmitter struct {
	mu     sync.Mutex
	events []*telemetry.BookingEvent
	ch     chan struct{}
}

func (c *captureEmitter) Emit(ctx context.Context, ev *telemetry.BookingEvent) error {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
	c.ch <- struct{}{}
	return nil
}

var jst = time.FixedZone("JST", 9*60*60)

// fixedNow is Tuesday 2025-11-25 09:00 JST.
var fixedNow = time.Date(2025, 11, 25, 9, 0, 0, 0, jst)

type fixture struct {
	svc      *SessionService
	sessions *memSessionRepo
	logs     *memEmailLogRepo
	sender   *fakeSender
	provider *fakeProvider
	emitter  *captureEmitter
	customer *customerdomain.Customer
	staffA   *staffdomain.Staff
	staffB   *staffdomain.Staff
}

func newFixture() *fixture {
	f := &fixture{
		sessions: newMemSessionRepo(),
		logs:     &memEmailLogRepo{},
		sender:   &fakeSender{result: mail.Result{Success: true}},
		provider: &fakeProvider{},
		emitter:  &captureEmitter{ch: make(chan struct{}, 64)},
		customer: &customerdomain.Customer{ID: "cust-1", Name: "デモ顧客", Email: "customer@example.com"},
		staffA:   &staffdomain.Staff{ID: "staff-a", Code: "STAFF_A", Name: "担当A", Email: "staff-a@example.com"},
		staffB:   &staffdomain.Staff{ID: "staff-b", Code: "STAFF_B", Name: "担当B", Email: "staff-b@example.com"},
	}
	logger := logging.Discard()
	f.svc = NewSessionService(Deps{
		Sessions:  f.sessions,
		Staff:     &memStaffRepo{staff: []*staffdomain.Staff{f.staffA, f.staffB}},
		Meetings:  f.provider,
		Notifier:  emaillog.NewRecorder(f.sender, f.logs, logger),
		EmailLogs: f.logs,
		Emitter:   f.emitter,
		Policy:    slot.DefaultPolicy(),
		Logger:    logrus.FieldLogger(logger),
	})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}
