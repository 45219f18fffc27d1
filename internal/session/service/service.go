// Package service implements the booking workflow: validate the slot, check exclusivity, provision a meeting,
// persist the session, then notify the customer and record the attempt.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"slot-booking/backend/internal/apperr"
	customerdomain "slot-booking/backend/internal/customer/domain"
	emaillogdomain "slot-booking/backend/internal/emaillog/domain"
	"slot-booking/backend/internal/mail"
	"slot-booking/backend/internal/meeting"
	sessiondomain "slot-booking/backend/internal/session/domain"
	"slot-booking/backend/internal/slot"
	staffdomain "slot-booking/backend/internal/staff/domain"
	"slot-booking/backend/internal/telemetry"
)

// User-visible messages.
const (
	MsgStaffNotFound      = "担当者が存在しません。"
	MsgSlotTaken          = "すでに予約済みの枠です。別の時間をお選びください。"
	MsgSessionNotFound    = "予約が見つかりません。"
	MsgCancelledImmutable = "キャンセル済みの予約は変更できません。"
	MsgProvisioningFailed = "ミーティングリンクの作成に失敗しました。時間をおいて再度お試しください。"
)

// revokeTimeout bounds the best-effort deletion of a replaced meeting.
const revokeTimeout = 10 * time.Second

// notifyTimeout bounds the notification of a committed session, which outlives the request context.
const notifyTimeout = 15 * time.Second

// Booking outcomes recorded on the bookings_total counter.
const (
	outcomeCreated            = "created"
	outcomeRescheduled        = "rescheduled"
	outcomeCancelled          = "cancelled"
	outcomeConflict           = "conflict"
	outcomeRejected           = "rejected"
	outcomeProvisioningFailed = "provisioning_failed"
	outcomeError              = "error"
)

// SessionRepo is the session repository needed by the service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*sessiondomain.Session, error)
	FindActiveAt(ctx context.Context, staffID string, startAt time.Time, excludeID string) (*sessiondomain.Session, error)
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Update(ctx context.Context, s *sessiondomain.Session) error
	UpdateStatus(ctx context.Context, id string, status sessiondomain.Status, at time.Time) error
}

// StaffRepo is the staff repository needed by the service.
type StaffRepo interface {
	GetByID(ctx context.Context, id string) (*staffdomain.Staff, error)
	List(ctx context.Context) ([]*staffdomain.Staff, error)
}

// Notifier sends the booking notification and records the attempt.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, n mail.Notification) emaillogdomain.Status
}

// EmailLogRepo lists the recorded notification attempts of a session.
type EmailLogRepo interface {
	ListBySession(ctx context.Context, sessionID string) ([]*emaillogdomain.EmailLog, error)
}

// CreateInput is a booking request. StartAt is RFC 3339, or wall time in the business timezone without an offset.
type CreateInput struct {
	StaffID string
	StartAt string
	Title   *string
}

// RescheduleInput changes any subset of staff, start and title.
type RescheduleInput struct {
	StaffID *string
	StartAt *string
	Title   *string
}

// BookingResult is a committed session and the outcome of its notification.
type BookingResult struct {
	Session     *sessiondomain.Session
	EmailStatus emaillogdomain.Status
}

// Deps are the collaborators of SessionService. Emitter and Meter may be nil.
type Deps struct {
	Sessions SessionRepo
	Staff    StaffRepo
	Meetings meeting.Provider
	Notifier Notifier
	// EmailLogs may be nil; then ListEmailLogs returns an empty list.
	EmailLogs EmailLogRepo
	Emitter   telemetry.EventEmitter
	Meter     metric.Meter
	Policy    slot.Policy
	Logger    logrus.FieldLogger
}

// SessionService owns the session lifecycle.
type SessionService struct {
	sessions SessionRepo
	staff    StaffRepo
	meetings meeting.Provider
	notifier Notifier
	logs     EmailLogRepo
	emitter  telemetry.EventEmitter
	policy   slot.Policy
	logger   logrus.FieldLogger
	bookings metric.Int64Counter
	now      func() time.Time
}

// NewSessionService returns a SessionService with the given dependencies.
func NewSessionService(d Deps) *SessionService {
	meter := d.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	counter, err := meter.Int64Counter("bookings_total", metric.WithDescription("Booking operations by outcome."))
	if err != nil {
		counter = noop.Int64Counter{}
	}
	if d.Policy.Duration == 0 {
		d.Policy = slot.DefaultPolicy()
	}
	return &SessionService{
		sessions: d.Sessions,
		staff:    d.Staff,
		meetings: d.Meetings,
		notifier: d.Notifier,
		logs:     d.EmailLogs,
		emitter:  d.Emitter,
		policy:   d.Policy,
		logger:   d.Logger,
		bookings: counter,
		now:      time.Now,
	}
}

// ListForCustomer returns the customer's sessions, newest first.
func (s *SessionService) ListForCustomer(ctx context.Context, customerID string) ([]*sessiondomain.Session, error) {
	list, err := s.sessions.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperr.Internal("予約一覧の取得に失敗しました。", err)
	}
	if list == nil {
		list = []*sessiondomain.Session{}
	}
	return list, nil
}

// GetSessionDetail returns one of the customer's sessions. Foreign sessions are reported as not found.
func (s *SessionService) GetSessionDetail(ctx context.Context, customerID, sessionID string) (*sessiondomain.Session, error) {
	return s.owned(ctx, customerID, sessionID)
}

// ListEmailLogs returns the notification attempts of one of the customer's sessions, oldest first.
func (s *SessionService) ListEmailLogs(ctx context.Context, customerID, sessionID string) ([]*emaillogdomain.EmailLog, error) {
	if _, err := s.owned(ctx, customerID, sessionID); err != nil {
		return nil, err
	}
	if s.logs == nil {
		return []*emaillogdomain.EmailLog{}, nil
	}
	logs, err := s.logs.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperr.Internal("送信履歴の取得に失敗しました。", err)
	}
	if logs == nil {
		logs = []*emaillogdomain.EmailLog{}
	}
	return logs, nil
}

// GetAvailability returns every staff member's slot grid for date (YYYY-MM-DD in the business timezone).
func (s *SessionService) GetAvailability(ctx context.Context, date string) ([]StaffAvailability, error) {
	day, err := s.policy.ParseDay(date)
	if err != nil {
		return nil, err
	}
	staff, err := s.staff.List(ctx)
	if err != nil {
		return nil, apperr.Internal("担当者一覧の取得に失敗しました。", err)
	}
	if len(staff) == 0 {
		return []StaffAvailability{}, nil
	}
	booked, err := s.sessions.ListActiveBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, apperr.Internal("予約状況の取得に失敗しました。", err)
	}
	return Availability(s.policy, day, staff, booked), nil
}

// CreateSession books a slot for customer.
func (s *SessionService) CreateSession(ctx context.Context, customer *customerdomain.Customer, in CreateInput) (*BookingResult, error) {
	staff, err := s.ensureStaff(ctx, in.StaffID)
	if err != nil {
		return nil, s.fail(err)
	}
	window, err := s.policy.ParseWindow(in.StartAt, s.now())
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.ensureSlotFree(ctx, staff.ID, window.StartAt, ""); err != nil {
		return nil, s.fail(err)
	}
	res, err := s.book(ctx, booking{customer: customer, staff: staff, window: window, title: titleOr(in.Title, "", staff)})
	if err != nil {
		return nil, s.fail(err)
	}
	s.record(outcomeCreated)
	s.emit(telemetry.EventSessionCreated, res.Session, res.EmailStatus)
	return res, nil
}

// RescheduleSession moves one of the customer's sessions to a new staff member, start or title.
// The session keeps its id. A replaced remote meeting is deleted best-effort when the provider supports it.
func (s *SessionService) RescheduleSession(ctx context.Context, customer *customerdomain.Customer, sessionID string, in RescheduleInput) (*BookingResult, error) {
	existing, err := s.owned(ctx, customer.ID, sessionID)
	if err != nil {
		return nil, s.fail(err)
	}
	if !existing.Active() {
		return nil, s.fail(apperr.InvalidInput(MsgCancelledImmutable))
	}

	staffID := existing.StaffID
	if in.StaffID != nil {
		staffID = *in.StaffID
	}
	staff, err := s.ensureStaff(ctx, staffID)
	if err != nil {
		return nil, s.fail(err)
	}
	var window slot.Window
	if in.StartAt != nil {
		window, err = s.policy.ParseWindow(*in.StartAt, s.now())
	} else {
		window, err = s.policy.Window(existing.StartAt, s.now())
	}
	if err != nil {
		return nil, s.fail(err)
	}
	if staff.ID != existing.StaffID || !window.StartAt.Equal(existing.StartAt) {
		if err := s.ensureSlotFree(ctx, staff.ID, window.StartAt, existing.ID); err != nil {
			return nil, s.fail(err)
		}
	}

	previous := *existing
	res, err := s.book(ctx, booking{
		customer: customer,
		staff:    staff,
		window:   window,
		title:    titleOr(in.Title, existing.Title, staff),
		existing: existing,
	})
	if err != nil {
		return nil, s.fail(err)
	}
	s.revoke(ctx, &previous, res.Session)
	s.record(outcomeRescheduled)
	s.emit(telemetry.EventSessionRescheduled, res.Session, res.EmailStatus)
	return res, nil
}

// CancelSession cancels one of the customer's sessions, freeing its slot. Cancelling twice is a no-op.
// No meeting is revoked and no notification is sent.
func (s *SessionService) CancelSession(ctx context.Context, customer *customerdomain.Customer, sessionID string) (*sessiondomain.Session, error) {
	sess, err := s.owned(ctx, customer.ID, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Active() {
		return sess, nil
	}
	now := s.now().UTC()
	if err := s.sessions.UpdateStatus(ctx, sess.ID, sessiondomain.StatusCancelled, now); err != nil {
		return nil, apperr.Internal("予約のキャンセルに失敗しました。", err)
	}
	sess.Status = sessiondomain.StatusCancelled
	sess.UpdatedAt = now
	s.record(outcomeCancelled)
	s.emit(telemetry.EventSessionCancelled, sess, "")
	return sess, nil
}

// booking is the input of the provision, persist and notify pipeline. existing is nil for a new session.
type booking struct {
	customer *customerdomain.Customer
	staff    *staffdomain.Staff
	window   slot.Window
	title    string
	existing *sessiondomain.Session
}

// book runs the pipeline. Provisioning and persistence failures abort it; notification failures do not.
// Once the session is committed the notification runs detached from ctx cancellation.
func (s *SessionService) book(ctx context.Context, b booking) (*BookingResult, error) {
	m, err := s.provision(ctx, b)
	if err != nil {
		return nil, err
	}
	sess, err := s.persist(ctx, b, m)
	if err != nil {
		return nil, err
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	status := s.notifier.Notify(notifyCtx, sess.ID, mail.Notification{
		To:           b.customer.Email,
		CustomerName: b.customer.Name,
		StaffName:    b.staff.Name,
		StartAt:      sess.StartAt,
		EndAt:        sess.EndAt,
		MeetURL:      sess.MeetURL,
		Title:        sess.Title,
	})
	return &BookingResult{Session: sess, EmailStatus: status}, nil
}

func (s *SessionService) provision(ctx context.Context, b booking) (meeting.Meeting, error) {
	m, err := s.meetings.CreateMeeting(ctx, b.staff, meeting.Request{
		Window:    b.window,
		Title:     b.title,
		Attendees: []string{b.customer.Email},
	})
	if err == nil {
		return m, nil
	}
	s.logger.WithError(err).WithFields(logrus.Fields{
		"provider": s.meetings.Name(),
		"staff_id": b.staff.ID,
	}).Error("session: meeting provisioning failed")
	if errors.Is(err, apperr.ErrInvalidInput) {
		return meeting.Meeting{}, err
	}
	return meeting.Meeting{}, apperr.Provisioning(MsgProvisioningFailed, err)
}

func (s *SessionService) persist(ctx context.Context, b booking, m meeting.Meeting) (*sessiondomain.Session, error) {
	now := s.now().UTC()
	sess := &sessiondomain.Session{
		ID:         uuid.New().String(),
		CustomerID: b.customer.ID,
		CreatedAt:  now,
	}
	if b.existing != nil {
		sess = b.existing
	}
	sess.StaffID = b.staff.ID
	sess.StartAt = b.window.StartAt
	sess.EndAt = b.window.EndAt
	sess.Title = b.title
	sess.MeetURL = m.MeetURL
	sess.ExternalID = m.ExternalID
	sess.Status = sessiondomain.StatusScheduled
	sess.UpdatedAt = now
	if err := sess.Validate(); err != nil {
		return nil, apperr.Internal("予約の保存に失敗しました。", err)
	}

	var err error
	if b.existing != nil {
		err = s.sessions.Update(ctx, sess)
	} else {
		err = s.sessions.Create(ctx, sess)
	}
	if errors.Is(err, sessiondomain.ErrSlotTaken) {
		return nil, apperr.Conflict(MsgSlotTaken)
	}
	if errors.Is(err, sessiondomain.ErrNotActive) {
		return nil, apperr.InvalidInput(MsgCancelledImmutable)
	}
	if err != nil {
		return nil, apperr.Internal("予約の保存に失敗しました。", err)
	}
	sess.Staff = &sessiondomain.StaffSummary{ID: b.staff.ID, Name: b.staff.Name, Email: b.staff.Email, Code: b.staff.Code}
	return sess, nil
}

// revoke deletes the meeting replaced by a reschedule. Failures are logged only.
func (s *SessionService) revoke(ctx context.Context, previous, current *sessiondomain.Session) {
	canceler, ok := s.meetings.(meeting.Canceler)
	if !ok || previous.ExternalID == "" || previous.ExternalID == current.ExternalID {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
	defer cancel()
	log := s.logger.WithFields(logrus.Fields{"session_id": current.ID, "external_id": previous.ExternalID})
	staff, err := s.staff.GetByID(ctx, previous.StaffID)
	if err != nil || staff == nil {
		log.WithError(err).Warn("session: previous staff unavailable, meeting not revoked")
		return
	}
	if err := canceler.CancelMeeting(ctx, staff, previous.ExternalID); err != nil {
		log.WithError(err).Warn("session: failed to revoke replaced meeting")
	}
}

func (s *SessionService) ensureStaff(ctx context.Context, staffID string) (*staffdomain.Staff, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return nil, apperr.InvalidInput(MsgStaffNotFound)
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperr.Internal("担当者の取得に失敗しました。", err)
	}
	if staff == nil {
		return nil, apperr.InvalidInput(MsgStaffNotFound)
	}
	return staff, nil
}

// ensureSlotFree is the advisory exclusivity check; the unique index is authoritative.
func (s *SessionService) ensureSlotFree(ctx context.Context, staffID string, startAt time.Time, excludeID string) error {
	other, err := s.sessions.FindActiveAt(ctx, staffID, startAt, excludeID)
	if err != nil {
		return apperr.Internal("予約状況の取得に失敗しました。", err)
	}
	if other != nil {
		return apperr.Conflict(MsgSlotTaken)
	}
	return nil
}

func (s *SessionService) owned(ctx context.Context, customerID, sessionID string) (*sessiondomain.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, apperr.Internal("予約の取得に失敗しました。", err)
	}
	if sess == nil || sess.CustomerID != customerID {
		return nil, apperr.NotFound(MsgSessionNotFound)
	}
	return sess, nil
}

func titleOr(in *string, current string, staff *staffdomain.Staff) string {
	if in != nil {
		if t := strings.TrimSpace(*in); t != "" {
			return t
		}
	}
	if current != "" {
		return current
	}
	return staff.Name + " とのオンラインミーティング"
}

// fail records the outcome of a failed create or reschedule and returns err unchanged.
func (s *SessionService) fail(err error) error {
	switch apperr.KindOf(err) {
	case apperr.ErrConflict:
		s.record(outcomeConflict)
	case apperr.ErrProvisioning:
		s.record(outcomeProvisioningFailed)
	case apperr.ErrInvalidInput, apperr.ErrNotFound:
		s.record(outcomeRejected)
	default:
		s.record(outcomeError)
	}
	return err
}

func (s *SessionService) record(outcome string) {
	s.bookings.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (s *SessionService) emit(eventType string, sess *sessiondomain.Session, email emaillogdomain.Status) {
	telemetry.EmitAsync(s.emitter, s.logger, &telemetry.BookingEvent{
		Type:        eventType,
		SessionID:   sess.ID,
		CustomerID:  sess.CustomerID,
		StaffID:     sess.StaffID,
		StartAt:     sess.StartAt,
		Status:      string(sess.Status),
		EmailStatus: string(email),
		CreatedAt:   s.now().UTC(),
	})
}
