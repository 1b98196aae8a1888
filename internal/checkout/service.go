package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/renovamx/storefront/internal/checkout/repository"
	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/internal/order"
	"github.com/renovamx/storefront/internal/session"
	apperrors "github.com/renovamx/storefront/pkg/errors"
	"github.com/renovamx/storefront/pkg/logger"
)

// CartSource is the cart the wizard reads from and clears after a completed
// order. cart.Manager satisfies it.
type CartSource interface {
	Items(ctx context.Context, sess session.Session) []domain.LineItem
	Clear(ctx context.Context, sess session.Session)
}

// Events publishes checkout lifecycle events.
type Events interface {
	PublishOrderSubmitted(ctx context.Context, s *domain.CheckoutSession) error
}

// User-facing submission messages.
const (
	msgSessionExpired = "Tu sesión ha expirado. Inicia sesión de nuevo para continuar"
	msgSubmitFailed   = "No pudimos procesar tu pedido. Intenta de nuevo"
)

// Service drives the checkout wizard: it loads the session, applies one
// transition, and persists the result. All pricing is recomputed server-side
// at submission time.
type Service struct {
	repo      repository.SessionRepository
	carts     CartSource
	submitter order.Submitter
	events    Events
	promo     Promotion
	rates     Rates
	loginURL  string
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a checkout service.
func NewService(repo repository.SessionRepository, carts CartSource, submitter order.Submitter, events Events, promo Promotion, rates Rates, loginURL string, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		carts:     carts,
		submitter: submitter,
		events:    events,
		promo:     promo,
		rates:     rates,
		loginURL:  loginURL,
		logger:    log,
		now:       time.Now,
	}
}

// Start opens a new wizard session at the Cart step, seeded with the current
// cart contents.
func (s *Service) Start(ctx context.Context, sess session.Session) (*domain.CheckoutSession, error) {
	now := s.now().UTC()
	cs := &domain.CheckoutSession{
		ID:            uuid.New().String(),
		UserID:        sess.User.ID,
		DeviceID:      sess.DeviceID,
		CurrentStep:   domain.StepCart,
		Items:         s.carts.Items(ctx, sess),
		PaymentStatus: domain.PaymentIdle,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, cs); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	logger.WithContext(ctx, s.logger).Info("checkout started",
		slog.String("session_id", cs.ID),
		slog.Int("item_count", cs.Cart().ItemCount()))
	return cs, nil
}

// Get returns a session by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return s.repo.GetByID(ctx, id)
}

// Quote prices the session's cart against the current promotion window.
func (s *Service) Quote(ctx context.Context, id string) (*domain.CheckoutSession, Quote, error) {
	cs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, Quote{}, err
	}
	return cs, ComputeQuote(cs.Items, s.promo, s.rates, s.now()), nil
}

// ConfirmCart refreshes the session items from the live cart and advances
// Cart -> Customer.
func (s *Service) ConfirmCart(ctx context.Context, sess session.Session, id string) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(cs *domain.CheckoutSession) error {
		cs.Items = s.carts.Items(ctx, sess)
		return ConfirmCart(cs)
	})
}

// SetCustomer stores the contact data and advances when it validates. A
// validation failure still persists the entered data and the field errors,
// so a later EditField can clear them one by one.
func (s *Service) SetCustomer(ctx context.Context, id string, c domain.CustomerInfo) (*domain.CheckoutSession, error) {
	return s.formStep(ctx, id, func(cs *domain.CheckoutSession) error {
		return SetCustomer(cs, c)
	})
}

// SetShipping stores the delivery data and advances when it validates.
func (s *Service) SetShipping(ctx context.Context, id string, sh domain.ShippingInfo) (*domain.CheckoutSession, error) {
	return s.formStep(ctx, id, func(cs *domain.CheckoutSession) error {
		return SetShipping(cs, sh)
	})
}

// EditField updates a single field, clearing its error as soon as it passes.
func (s *Service) EditField(ctx context.Context, id, field, value string) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(cs *domain.CheckoutSession) error {
		return EditField(cs, field, value)
	})
}

// SelectPaymentMethod records the chosen payment method.
func (s *Service) SelectPaymentMethod(ctx context.Context, id, method string) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(cs *domain.CheckoutSession) error {
		return SelectPaymentMethod(cs, method)
	})
}

// Back moves the wizard one step backward.
func (s *Service) Back(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	return s.transition(ctx, id, func(cs *domain.CheckoutSession) error {
		return Back(cs)
	})
}

// transition loads the session, applies one stepper transition, and persists
// the result. A rejected transition leaves the stored session untouched.
func (s *Service) transition(ctx context.Context, id string, apply func(*domain.CheckoutSession) error) (*domain.CheckoutSession, error) {
	cs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(cs); err != nil {
		return nil, err
	}
	cs.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, cs); err != nil {
		return nil, fmt.Errorf("persist checkout session: %w", err)
	}
	return cs, nil
}

// formStep is transition for the data-entry steps: a validation failure is
// persisted too, because the entered values and their field errors are part
// of the wizard state. The session is returned alongside the validation
// error so callers can render the field errors.
func (s *Service) formStep(ctx context.Context, id string, apply func(*domain.CheckoutSession) error) (*domain.CheckoutSession, error) {
	cs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyErr := apply(cs)
	if applyErr != nil && !errors.Is(applyErr, apperrors.ErrInvalidInput) {
		return nil, applyErr
	}
	cs.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, cs); err != nil {
		return nil, fmt.Errorf("persist checkout session: %w", err)
	}
	return cs, applyErr
}

// Submit sends the order to the collaborator. A validation guard failure
// returns an error; a collaborator failure is absorbed into the session as a
// payment error so the customer can retry. Reaching Confirmation clears the
// cart exactly once.
func (s *Service) Submit(ctx context.Context, sess session.Session, id string) (*domain.CheckoutSession, error) {
	cs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := BeginSubmission(cs); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, cs); err != nil {
		return nil, fmt.Errorf("persist checkout session: %w", err)
	}

	log := logger.WithContext(ctx, s.logger).With(slog.String("session_id", cs.ID))

	quote := ComputeQuote(cs.Items, s.promo, s.rates, s.now())
	result, err := s.submitter.Submit(ctx, &order.Request{
		Customer: cs.Customer,
		Shipping: cs.Shipping,
		Items:    cs.Items,
		Totals: order.Totals{
			Subtotal: quote.Subtotal,
			Discount: quote.Discount,
			Shipping: quote.Shipping,
			Total:    quote.Total,
		},
		PaymentMethod: cs.PaymentMethod,
		UserID:        cs.UserID,
	})
	if err != nil {
		s.failSubmission(cs, err, log)
		if uerr := s.repo.Update(ctx, cs); uerr != nil {
			return nil, fmt.Errorf("persist checkout session: %w", uerr)
		}
		return cs, nil
	}

	info := domain.OrderInfo{
		OrderNumber:      result.Order.Number,
		PaymentReference: result.Payment.ReferenceNumber,
		Total:            result.Order.Total,
	}
	for _, effect := range CompleteSubmission(cs, info) {
		if effect == EffectClearCart {
			s.carts.Clear(ctx, sess)
		}
	}
	if err := s.repo.Update(ctx, cs); err != nil {
		return nil, fmt.Errorf("persist checkout session: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishOrderSubmitted(ctx, cs); err != nil {
			log.Warn("failed to publish order submitted event", slog.String("error", err.Error()))
		}
	}

	log.Info("order submitted",
		slog.String("order_number", info.OrderNumber),
		slog.Int64("total", info.Total))
	return cs, nil
}

// failSubmission maps a collaborator failure onto the session. An expired
// session sends the customer to the login page with a callback back into
// checkout; everything else surfaces as a retryable message.
func (s *Service) failSubmission(cs *domain.CheckoutSession, err error, log *slog.Logger) {
	var serr *order.SubmitError
	if !errors.As(err, &serr) {
		serr = &order.SubmitError{Kind: order.KindUnknown, Message: msgSubmitFailed, Err: err}
	}

	log.Warn("order submission failed",
		slog.String("kind", string(serr.Kind)),
		slog.String("error", serr.Error()))

	switch serr.Kind {
	case order.KindUnauthorized:
		FailSubmission(cs, msgSessionExpired, s.loginRedirect())
	case order.KindValidation:
		FailSubmission(cs, serr.Message, "")
	default:
		FailSubmission(cs, msgSubmitFailed, "")
	}
}

func (s *Service) loginRedirect() string {
	if s.loginURL == "" {
		return ""
	}
	return s.loginURL + "?callbackUrl=" + url.QueryEscape("/checkout")
}
