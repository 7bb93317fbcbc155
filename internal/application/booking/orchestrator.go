package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ozzus/fan-stay/internal/application/pricing"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/domain/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SideEffects is what the orchestrator triggers after a finished or cancelled
// booking. Implementations must not fail the caller.
type SideEffects interface {
	BookingFinished(ctx context.Context, userID, orderID string)
	BookingCancelled(ctx context.Context, userID, orderID string)
}

type StartRequest struct {
	UserID     string
	PropertyID string
	BookHash   string
	Guests     models.GuestCounts
}

type stage uint8

const (
	stagePreBook stage = iota
	stageInitialize
	stageFinish
	stageCancel
)

func (s stage) String() string {
	switch s {
	case stagePreBook:
		return "prebook"
	case stageInitialize:
		return "initialize"
	case stageFinish:
		return "finish"
	case stageCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Orchestrator drives booking sessions through pre-book, initialize, guest
// collection, finish and cancel. Stages of one session never overlap.
type Orchestrator struct {
	log        *zap.Logger
	gateway    ports.BookingGateway
	payments   ports.PaymentCapturer
	reconciler pricing.Reconciler
	repo       ports.SessionRepository
	effects    SideEffects
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*models.BookingSession
	orders   map[string][]models.Order
	loaded   map[string]bool
}

// NewOrchestrator wires the orchestrator. The reconciler prices the pre-book
// snapshot so the captured amount matches the displayed total. repo and
// effects may be nil.
func NewOrchestrator(log *zap.Logger, gateway ports.BookingGateway, payments ports.PaymentCapturer, reconciler pricing.Reconciler, repo ports.SessionRepository, effects SideEffects) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}

	return &Orchestrator{
		log:        log,
		gateway:    gateway,
		payments:   payments,
		reconciler: reconciler,
		repo:       repo,
		effects:    effects,
		now:        time.Now,
		sessions:   make(map[string]*models.BookingSession),
		orders:     make(map[string][]models.Order),
		loaded:     make(map[string]bool),
	}
}

// Start creates a draft session for the chosen rate.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) (models.BookingSession, error) {
	const op = "booking.Start"

	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.PropertyID) == "" || strings.TrimSpace(req.BookHash) == "" {
		return models.BookingSession{}, fmt.Errorf("%s: %w: user, property and book hash are required", op, derr.ErrInvalidQuery)
	}
	if req.Guests.Adults < 1 {
		return models.BookingSession{}, fmt.Errorf("%s: %w: at least one adult is required", op, derr.ErrInvalidQuery)
	}

	now := o.now().UTC()
	session := &models.BookingSession{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		PropertyID: req.PropertyID,
		BookHash:   req.BookHash,
		State:      models.StateDraft,
		Guests:     copyCounts(req.Guests),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	o.mu.Lock()
	o.sessions[session.ID] = session
	out := copySession(session)
	o.mu.Unlock()

	o.log.Info("booking session started",
		zap.String("op", op),
		zap.String("session_id", out.ID),
		zap.String("user_id", out.UserID),
		zap.String("property_id", out.PropertyID),
	)
	o.persist(ctx, op, out, nil)
	return out, nil
}

func (o *Orchestrator) PreBook(ctx context.Context, sessionID string) (models.BookingSession, error) {
	const op = "booking.PreBook"
	ctx, span := o.startSpan(ctx, op, sessionID)
	defer span.End()

	o.ensureLoaded(ctx, sessionID)
	session, err := o.begin(sessionID, stagePreBook, models.StateDraft)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return models.BookingSession{}, fmt.Errorf("%s: %w", op, err)
	}

	snapshot, callErr := o.gateway.PreBook(ctx, session.BookHash)

	if callErr == nil {
		o.reconcile(&snapshot)
	}

	o.mu.Lock()
	current, stale := o.activeLocked(sessionID)
	if stale {
		o.mu.Unlock()
		o.log.Info("discarding prebook result for abandoned session", zap.String("op", op), zap.String("session_id", sessionID))
		return models.BookingSession{}, derr.ErrStaleResponse
	}
	current.Loading = false
	current.UpdatedAt = o.now().UTC()

	if callErr != nil {
		o.failLocked(span, current, stagePreBook, callErr)
		out := copySession(current)
		o.mu.Unlock()
		return out, fmt.Errorf("%s: %w", op, callErr)
	}

	if snapshot.Hash == "" {
		snapshot.Hash = current.BookHash
	}
	current.Hash = snapshot.Hash
	current.Snapshot = &snapshot
	current.State = models.StatePreBooked
	out := copySession(current)
	o.mu.Unlock()

	span.SetStatus(otelcodes.Ok, "ok")
	o.log.Info("booking prebooked",
		zap.String("op", op),
		zap.String("session_id", sessionID),
		zap.Float64("amount", snapshot.Amount),
		zap.String("currency", snapshot.CurrencyCode),
		zap.Bool("price_changed", snapshot.Changed),
	)

	o.persist(ctx, op, out, nil)
	return out, nil
}

// reconcile prices the pre-book payment type the same way rates are shown,
// so Amount is the display total including taxes and the client fee.
func (o *Orchestrator) reconcile(snapshot *models.PriceSnapshot) {
	if snapshot.Payment == nil {
		return
	}
	breakdown := o.reconciler.Breakdown(models.RateOffer{PaymentTypes: []models.PaymentType{*snapshot.Payment}})
	if breakdown.CurrencyCode == "" && breakdown.DisplayTotal == 0 {
		return
	}
	snapshot.Breakdown = &breakdown
	snapshot.Amount = breakdown.DisplayTotal
	snapshot.CurrencyCode = breakdown.CurrencyCode
}

func (o *Orchestrator) Initialize(ctx context.Context, sessionID string) (models.BookingSession, error) {
	const op = "booking.Initialize"
	ctx, span := o.startSpan(ctx, op, sessionID)
	defer span.End()

	o.ensureLoaded(ctx, sessionID)
	session, err := o.begin(sessionID, stageInitialize, models.StatePreBooked)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return models.BookingSession{}, fmt.Errorf("%s: %w", op, err)
	}

	// The session id doubles as partner order id, so a retry after a lost
	// response does not create a second remote order.
	orderID, callErr := o.gateway.InitializeBooking(ctx, session.PropertyID, session.Hash, session.ID)
	if callErr == nil && strings.TrimSpace(orderID) == "" {
		callErr = fmt.Errorf("%w: empty order id", derr.ErrSourceTemporary)
	}

	o.mu.Lock()
	current, stale := o.activeLocked(sessionID)
	if stale {
		o.mu.Unlock()
		if callErr == nil {
			o.log.Warn("order initialized for abandoned session",
				zap.String("op", op),
				zap.String("session_id", sessionID),
				zap.String("order_id", orderID),
			)
		}
		return models.BookingSession{}, derr.ErrStaleResponse
	}
	current.Loading = false
	current.UpdatedAt = o.now().UTC()

	if callErr != nil {
		o.failLocked(span, current, stageInitialize, callErr)
		out := copySession(current)
		o.mu.Unlock()
		return out, fmt.Errorf("%s: %w", op, callErr)
	}

	current.OrderID = orderID
	current.State = models.StateInitialized
	order := models.Order{
		ID:         orderID,
		UserID:     current.UserID,
		PropertyID: current.PropertyID,
		Status:     models.OrderPending,
		UpdatedAt:  current.UpdatedAt,
	}
	o.upsertOrderLocked(order)
	out := copySession(current)
	o.mu.Unlock()

	span.SetAttributes(attribute.String("booking.order_id", orderID))
	span.SetStatus(otelcodes.Ok, "ok")
	o.log.Info("booking initialized", zap.String("op", op), zap.String("session_id", sessionID), zap.String("order_id", orderID))

	o.persist(ctx, op, out, &order)
	return out, nil
}

// CollectGuests validates the roster and stores it on the session. An empty
// roster is the "no explicit roster" case: nothing is checked against the
// guest counts and FormatGuests sends placeholders on finish. A non-empty
// roster must name every guest of the stay.
func (o *Orchestrator) CollectGuests(ctx context.Context, sessionID string, roster []models.Guest) (models.BookingSession, error) {
	const op = "booking.CollectGuests"

	o.ensureLoaded(ctx, sessionID)
	out, err := o.collectGuests(sessionID, roster)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	o.persist(ctx, op, out, nil)
	return out, nil
}

func (o *Orchestrator) collectGuests(sessionID string, roster []models.Guest) (models.BookingSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	current, ok := o.sessions[sessionID]
	if !ok {
		return models.BookingSession{}, derr.ErrSessionNotFound
	}
	if current.Loading {
		return copySession(current), derr.ErrBookingInProgress
	}
	if current.State != models.StateInitialized && current.State != models.StateGuestsCollected {
		return copySession(current), fmt.Errorf("%w: %s", derr.ErrInvalidTransition, current.State)
	}

	var normalized []models.Guest
	if len(roster) > 0 {
		normalized = normalizeRoster(roster)
		if err := models.ValidateRoster(normalized, current.Guests); err != nil {
			return copySession(current), err
		}
	}

	current.Roster = normalized
	current.State = models.StateGuestsCollected
	current.UpdatedAt = o.now().UTC()
	return copySession(current), nil
}

// Finish captures the payment, confirms the order remotely and runs the side
// effects before returning. A failed capture leaves the session untouched
// apart from the finish error slot.
func (o *Orchestrator) Finish(ctx context.Context, sessionID, paymentToken string) (models.BookingSession, error) {
	const op = "booking.Finish"
	ctx, span := o.startSpan(ctx, op, sessionID)
	defer span.End()

	o.ensureLoaded(ctx, sessionID)
	session, err := o.begin(sessionID, stageFinish, models.StateGuestsCollected)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return models.BookingSession{}, fmt.Errorf("%s: %w", op, err)
	}

	capture, err := o.capture(ctx, session, paymentToken)
	if err != nil {
		err = fmt.Errorf("%w: %w", derr.ErrPaymentCaptureFailed, err)
		o.mu.Lock()
		current := o.sessions[sessionID]
		current.Loading = false
		o.failLocked(span, current, stageFinish, err)
		out := copySession(current)
		o.mu.Unlock()
		return out, fmt.Errorf("%s: %w", op, err)
	}

	order, callErr := o.gateway.FinishBooking(ctx, ports.FinishRequest{
		OrderID:        session.OrderID,
		IdempotencyKey: session.ID,
		Guests:         FormatGuests(session.Roster, session.Guests),
		Payment:        capture,
	})

	o.mu.Lock()
	current := o.sessions[sessionID]
	current.UpdatedAt = o.now().UTC()
	current.Payment = &capture
	if callErr != nil {
		current.Loading = false
		o.failLocked(span, current, stageFinish, callErr)
		out := copySession(current)
		o.mu.Unlock()
		return out, fmt.Errorf("%s: %w", op, callErr)
	}

	if order.ID == "" {
		order.ID = current.OrderID
	}
	if order.Status == "" {
		order.Status = models.OrderConfirmed
	}
	order.UserID = current.UserID
	order.PropertyID = current.PropertyID
	order.UpdatedAt = current.UpdatedAt
	if current.State == models.StateAbandoned {
		o.log.Warn("finish confirmed after session was abandoned", zap.String("op", op), zap.String("session_id", sessionID))
	}
	current.State = models.StateFinished
	o.upsertOrderLocked(order)
	userID := current.UserID
	o.mu.Unlock()

	if o.effects != nil {
		o.effects.BookingFinished(ctx, userID, order.ID)
	}

	o.mu.Lock()
	current.Loading = false
	out := copySession(current)
	o.mu.Unlock()

	span.SetStatus(otelcodes.Ok, "ok")
	o.log.Info("booking finished",
		zap.String("op", op),
		zap.String("session_id", sessionID),
		zap.String("order_id", order.ID),
		zap.String("payment_reference", capture.Reference),
	)

	o.persist(ctx, op, out, &order)
	return out, nil
}

// Cancel cancels the session's order. A rejection by the booking service,
// including cancelling twice, is surfaced in the cancel error slot.
func (o *Orchestrator) Cancel(ctx context.Context, sessionID string) (models.BookingSession, error) {
	const op = "booking.Cancel"
	ctx, span := o.startSpan(ctx, op, sessionID)
	defer span.End()

	o.ensureLoaded(ctx, sessionID)
	session, err := o.begin(sessionID, stageCancel, models.StateInitialized, models.StateFinished)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		// begin fills the cancel slot when the order is already cancelled.
		return session, fmt.Errorf("%s: %w", op, err)
	}

	order, callErr := o.gateway.CancelBooking(ctx, session.OrderID)

	o.mu.Lock()
	current := o.sessions[sessionID]
	current.Loading = false
	current.UpdatedAt = o.now().UTC()
	if callErr != nil {
		o.failLocked(span, current, stageCancel, callErr)
		out := copySession(current)
		o.mu.Unlock()
		return out, fmt.Errorf("%s: %w", op, callErr)
	}

	if order.ID == "" {
		order.ID = current.OrderID
	}
	order.Status = models.OrderCancelled
	order.UserID = current.UserID
	order.PropertyID = current.PropertyID
	order.UpdatedAt = current.UpdatedAt
	current.State = models.StateCancelled
	o.upsertOrderLocked(order)
	out := copySession(current)
	o.mu.Unlock()

	if o.effects != nil {
		o.effects.BookingCancelled(ctx, out.UserID, order.ID)
	}

	span.SetStatus(otelcodes.Ok, "ok")
	o.log.Info("booking cancelled", zap.String("op", op), zap.String("session_id", sessionID), zap.String("order_id", order.ID))

	o.persist(ctx, op, out, &order)
	return out, nil
}

// Abandon discards a session the user walked away from. In-flight pre-book
// and initialize results for it are dropped when they arrive.
func (o *Orchestrator) Abandon(ctx context.Context, sessionID string) error {
	const op = "booking.Abandon"

	o.ensureLoaded(ctx, sessionID)
	o.mu.Lock()
	current, ok := o.sessions[sessionID]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%s: %w", op, derr.ErrSessionNotFound)
	}
	if current.State.Terminal() {
		state := current.State
		o.mu.Unlock()
		return fmt.Errorf("%s: %w: %s", op, derr.ErrInvalidTransition, state)
	}
	current.State = models.StateAbandoned
	current.Loading = false
	current.UpdatedAt = o.now().UTC()
	out := copySession(current)
	o.mu.Unlock()

	logger := o.log.With(zap.String("op", op), zap.String("session_id", sessionID))
	if out.OrderID == "" {
		logger.Info("booking session abandoned")
	} else {
		// The remote order stays initialized; only the local reference is dropped.
		logger.Warn("booking session abandoned after initialize", zap.String("order_id", out.OrderID))
	}
	o.persist(ctx, op, out, nil)
	return nil
}

// Session returns a copy of the session. Sessions stored by an earlier run
// are loaded from the repository on first access.
func (o *Orchestrator) Session(ctx context.Context, sessionID string) (models.BookingSession, error) {
	o.ensureLoaded(ctx, sessionID)

	o.mu.Lock()
	defer o.mu.Unlock()

	current, ok := o.sessions[sessionID]
	if !ok {
		return models.BookingSession{}, derr.ErrSessionNotFound
	}
	return copySession(current), nil
}

// Orders returns the user's orders. History stored by earlier runs is merged
// in the first time a user is asked for; in-memory entries win.
func (o *Orchestrator) Orders(ctx context.Context, userID string) ([]models.Order, error) {
	const op = "booking.Orders"

	o.mu.Lock()
	needLoad := o.repo != nil && !o.loaded[userID]
	o.mu.Unlock()

	if needLoad {
		stored, err := o.repo.ListOrders(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		o.mu.Lock()
		for _, order := range stored {
			if _, found := ReplaceOrder(o.orders[userID], order); !found {
				o.orders[userID] = append(o.orders[userID], order)
			}
		}
		o.loaded[userID] = true
		o.mu.Unlock()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Order, len(o.orders[userID]))
	copy(out, o.orders[userID])
	return out, nil
}

func (o *Orchestrator) begin(sessionID string, st stage, allowed ...models.BookingState) (models.BookingSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	current, ok := o.sessions[sessionID]
	if !ok {
		return models.BookingSession{}, derr.ErrSessionNotFound
	}
	if current.Loading {
		return models.BookingSession{}, derr.ErrBookingInProgress
	}

	permitted := false
	for _, s := range allowed {
		if current.State == s {
			permitted = true
			break
		}
	}
	if !permitted {
		if st == stageCancel && current.State == models.StateCancelled {
			setStageError(current, st, derr.UserMessage(derr.ErrOrderAlreadyCancelled))
			return copySession(current), fmt.Errorf("%w: %w", derr.ErrInvalidTransition, derr.ErrOrderAlreadyCancelled)
		}
		return models.BookingSession{}, fmt.Errorf("%w: %s from %s", derr.ErrInvalidTransition, st, current.State)
	}

	current.Loading = true
	setStageError(current, st, "")
	return copySession(current), nil
}

func (o *Orchestrator) capture(ctx context.Context, session models.BookingSession, token string) (models.PaymentCapture, error) {
	if session.Payment != nil {
		return *session.Payment, nil
	}
	if o.payments == nil {
		return models.PaymentCapture{}, fmt.Errorf("payment capturer is not configured")
	}

	req := ports.CaptureRequest{OrderID: session.OrderID, Token: token}
	if session.Snapshot != nil {
		snapshot := *session.Snapshot
		if snapshot.Breakdown == nil {
			o.reconcile(&snapshot)
		}
		req.Amount = snapshot.Amount
		req.CurrencyCode = snapshot.CurrencyCode
	}
	return o.payments.CapturePayment(ctx, req)
}

// ensureLoaded pulls a session missing from memory out of the repository.
// Lookup failures are logged; the caller then reports the session as missing.
func (o *Orchestrator) ensureLoaded(ctx context.Context, sessionID string) {
	if o.repo == nil || strings.TrimSpace(sessionID) == "" {
		return
	}

	o.mu.Lock()
	_, ok := o.sessions[sessionID]
	o.mu.Unlock()
	if ok {
		return
	}

	stored, err := o.repo.LoadSession(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, derr.ErrSessionNotFound) {
			o.log.Warn("failed to load booking session",
				zap.String("op", "booking.ensureLoaded"),
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
		return
	}
	stored.Loading = false

	o.mu.Lock()
	if _, ok := o.sessions[sessionID]; !ok {
		o.sessions[sessionID] = &stored
	}
	o.mu.Unlock()
}

// activeLocked returns the session unless it was abandoned meanwhile.
func (o *Orchestrator) activeLocked(sessionID string) (*models.BookingSession, bool) {
	current, ok := o.sessions[sessionID]
	if !ok || current.State == models.StateAbandoned {
		return nil, true
	}
	return current, false
}

func (o *Orchestrator) failLocked(span trace.Span, session *models.BookingSession, st stage, err error) {
	setStageError(session, st, derr.UserMessage(err))
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, st.String()+" failed")
	o.log.Warn("booking stage failed",
		zap.String("stage", st.String()),
		zap.String("session_id", session.ID),
		zap.String("state", session.State.String()),
		zap.Error(err),
	)
}

func (o *Orchestrator) upsertOrderLocked(order models.Order) {
	updated, found := ReplaceOrder(o.orders[order.UserID], order)
	if !found {
		updated = append(updated, order)
	}
	o.orders[order.UserID] = updated
}

func (o *Orchestrator) persist(ctx context.Context, op string, session models.BookingSession, order *models.Order) {
	if o.repo == nil {
		return
	}
	logger := o.log.With(zap.String("op", op), zap.String("session_id", session.ID))
	if err := o.repo.SaveSession(ctx, session); err != nil {
		logger.Warn("failed to persist booking session", zap.Error(err))
	}
	if order == nil {
		return
	}
	if err := o.repo.UpsertOrder(ctx, *order); err != nil {
		logger.Warn("failed to persist order", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (o *Orchestrator) startSpan(ctx context.Context, op, sessionID string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("fan-stay/booking").Start(ctx, op)
	span.SetAttributes(attribute.String("booking.session_id", sessionID))
	return ctx, span
}

func setStageError(session *models.BookingSession, st stage, message string) {
	switch st {
	case stagePreBook:
		session.Errors.PreBook = message
	case stageInitialize:
		session.Errors.Initialize = message
	case stageFinish:
		session.Errors.Finish = message
	case stageCancel:
		session.Errors.Cancel = message
	}
}

func copyCounts(c models.GuestCounts) models.GuestCounts {
	ages := make([]int, len(c.ChildrenAges))
	copy(ages, c.ChildrenAges)
	return models.GuestCounts{Adults: c.Adults, ChildrenAges: ages}
}

func copySession(s *models.BookingSession) models.BookingSession {
	out := *s
	out.Guests = copyCounts(s.Guests)
	if s.Roster != nil {
		out.Roster = make([]models.Guest, len(s.Roster))
		copy(out.Roster, s.Roster)
	}
	if s.Snapshot != nil {
		snap := *s.Snapshot
		if snap.Payment != nil {
			payment := *snap.Payment
			snap.Payment = &payment
		}
		if snap.Breakdown != nil {
			breakdown := *snap.Breakdown
			snap.Breakdown = &breakdown
		}
		out.Snapshot = &snap
	}
	if s.Payment != nil {
		pay := *s.Payment
		out.Payment = &pay
	}
	return out
}
