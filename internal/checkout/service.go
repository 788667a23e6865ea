package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/diegojoyero/joyeria-backend/internal/cart"
	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	"github.com/diegojoyero/joyeria-backend/pkg/metrics"
	"github.com/google/uuid"
)

const (
	emptyCartRedirect     = "/"
	defaultNotifyTimeout  = 10 * time.Second
	msgOrderNotRegistered = "No se pudo registrar el pedido. Intenta nuevamente."
)

// Session is the visitor state the checkout operates on.
type Session interface {
	VisitorID() string
	Cart() *cart.Store
	Wizard() *Wizard
}

type orderPlacer interface {
	Place(ctx context.Context, order *models.Order) (*models.Order, error)
}

// Notifier delivers the order confirmation.
type Notifier interface {
	Notify(ctx context.Context, summary OrderSummary) error
}

type submissionRecorder interface {
	IncCheckoutSubmission(outcome string)
}

// EnterResult is either a redirect or the current wizard with its cart.
type EnterResult struct {
	Redirect string         `json:"redirect,omitempty"`
	Wizard   *State         `json:"wizard,omitempty"`
	Cart     *cart.Snapshot `json:"cart,omitempty"`
}

// Service runs the checkout wizard of a visitor session.
type Service interface {
	Enter(ctx context.Context, sess Session) (*EnterResult, error)
	UpdateCustomer(ctx context.Context, sess Session, patch CustomerPatch) (State, error)
	GoToPayment(ctx context.Context, sess Session) (State, error)
	SelectPaymentMethod(ctx context.Context, sess Session, method enums.PaymentMethod) (State, error)
	GoToConfirmation(ctx context.Context, sess Session) (State, error)
	AcceptTerms(ctx context.Context, sess Session, accepted bool) (State, error)
	Back(ctx context.Context, sess Session) (State, error)
	Submit(ctx context.Context, sess Session) (*OrderSummary, error)
}

// Options holds the optional collaborators of the service.
type Options struct {
	Notifier      Notifier
	States        StateStore
	Metrics       submissionRecorder
	Logger        *logger.Logger
	NotifyTimeout time.Duration
	Now           func() time.Time
	NewID         func() uuid.UUID
	Async         func(func())
}

type service struct {
	orders        orderPlacer
	notifier      Notifier
	states        StateStore
	metrics       submissionRecorder
	logg          *logger.Logger
	notifyTimeout time.Duration
	now           func() time.Time
	newID         func() uuid.UUID
	async         func(func())
}

// NewService builds the checkout service.
func NewService(orders orderPlacer, opts Options) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order placer required")
	}
	s := &service{
		orders:        orders,
		notifier:      opts.Notifier,
		states:        opts.States,
		metrics:       opts.Metrics,
		logg:          opts.Logger,
		notifyTimeout: opts.NotifyTimeout,
		now:           opts.Now,
		newID:         opts.NewID,
		async:         opts.Async,
	}
	if s.notifyTimeout <= 0 {
		s.notifyTimeout = defaultNotifyTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.New
	}
	if s.async == nil {
		s.async = func(fn func()) { go fn() }
	}
	return s, nil
}

func (s *service) Enter(ctx context.Context, sess Session) (*EnterResult, error) {
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visitor session required")
	}
	snap := sess.Cart().Snapshot()
	wizard := sess.Wizard()

	if wizard.Completed() {
		if len(snap.Items) == 0 {
			state := wizard.Snapshot()
			return &EnterResult{Wizard: &state, Cart: &snap}, nil
		}
		state := wizard.Reset()
		s.persist(ctx, sess, state)
		return &EnterResult{Wizard: &state, Cart: &snap}, nil
	}

	if len(snap.Items) == 0 {
		return &EnterResult{Redirect: emptyCartRedirect}, nil
	}
	state := wizard.Snapshot()
	return &EnterResult{Wizard: &state, Cart: &snap}, nil
}

func (s *service) UpdateCustomer(ctx context.Context, sess Session, patch CustomerPatch) (State, error) {
	return s.step(ctx, sess, func(w *Wizard) (State, error) { return w.UpdateCustomer(patch) })
}

func (s *service) GoToPayment(ctx context.Context, sess Session) (State, error) {
	return s.step(ctx, sess, (*Wizard).GoToPayment)
}

func (s *service) SelectPaymentMethod(ctx context.Context, sess Session, method enums.PaymentMethod) (State, error) {
	return s.step(ctx, sess, func(w *Wizard) (State, error) { return w.SelectPaymentMethod(method) })
}

func (s *service) GoToConfirmation(ctx context.Context, sess Session) (State, error) {
	return s.step(ctx, sess, (*Wizard).GoToConfirmation)
}

func (s *service) AcceptTerms(ctx context.Context, sess Session, accepted bool) (State, error) {
	return s.step(ctx, sess, func(w *Wizard) (State, error) { return w.AcceptTerms(accepted) })
}

func (s *service) Back(ctx context.Context, sess Session) (State, error) {
	return s.step(ctx, sess, (*Wizard).Back)
}

// Submit persists the order, fires the confirmation in the background and
// clears the cart. A persistence failure leaves the cart and wizard intact.
func (s *service) Submit(ctx context.Context, sess Session) (*OrderSummary, error) {
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "visitor session required")
	}
	ctx = s.logg.WithVisitor(ctx, sess.VisitorID())

	lines := sess.Cart().Lines()
	if len(lines) == 0 {
		s.record(metrics.OutcomeRejected)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty").
			WithDetails(map[string]any{"redirect": emptyCartRedirect})
	}

	wizard := sess.Wizard()
	state, err := wizard.beginSubmit()
	if err != nil {
		s.persist(ctx, sess, state)
		s.record(metrics.OutcomeRejected)
		return nil, err
	}

	id := s.newID()
	summary := BuildSummary(s.now(), id, state.Customer.Trimmed(), state.PaymentMethod, lines)
	ctx = s.logg.WithOrderID(ctx, summary.ID)

	if _, err := s.orders.Place(ctx, toModel(summary, id)); err != nil {
		s.persist(ctx, sess, wizard.abortSubmit(msgOrderNotRegistered))
		s.record(metrics.OutcomeFailure)
		s.logg.Error(ctx, "checkout.order_persist_failed", err)
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to place order")
	}

	s.persist(ctx, sess, wizard.complete(summary))
	sess.Cart().Clear(ctx)
	s.record(metrics.OutcomeSuccess)
	s.logg.Info(ctx, "checkout.order_placed")

	s.notify(ctx, summary)
	return &summary, nil
}

func (s *service) notify(ctx context.Context, summary OrderSummary) {
	if s.notifier == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.async(func() {
		nctx, cancel := context.WithTimeout(detached, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(nctx, summary); err != nil {
			s.logg.Error(nctx, "No se pudo enviar la confirmación de pedido", err)
		}
	})
}

func (s *service) step(ctx context.Context, sess Session, apply func(*Wizard) (State, error)) (State, error) {
	if sess == nil {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "visitor session required")
	}
	state, err := apply(sess.Wizard())
	s.persist(ctx, sess, state)
	return state, err
}

func (s *service) persist(ctx context.Context, sess Session, state State) {
	if s.states == nil {
		return
	}
	if err := s.states.Save(ctx, sess.VisitorID(), state); err != nil {
		ctx = s.logg.WithVisitor(ctx, sess.VisitorID())
		s.logg.Error(ctx, "checkout.state_persist_failed", err)
	}
}

func (s *service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.IncCheckoutSubmission(outcome)
	}
}
