package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/pkg/database"
	apperrors "github.com/renovamx/storefront/pkg/errors"
)

// SessionRepository implements repository.SessionRepository on PostgreSQL.
// Items, customer, shipping, field errors, and order info live in JSONB
// columns; the step and payment status are plain columns for querying.
type SessionRepository struct {
	pool database.DBTX
}

// NewSessionRepository creates a Postgres-backed checkout session repository.
func NewSessionRepository(pool database.DBTX) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new checkout session.
func (r *SessionRepository) Create(ctx context.Context, s *domain.CheckoutSession) error {
	itemsJSON, customerJSON, shippingJSON, fieldErrsJSON, orderJSON, err := marshalSession(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO checkout_sessions (
			id, user_id, device_id, current_step, items,
			customer, shipping, field_errors,
			payment_method, payment_status, error_message, redirect_url,
			order_info, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15
		)`

	_, err = r.pool.Exec(ctx, query,
		s.ID,
		nullable(s.UserID),
		s.DeviceID,
		s.CurrentStep.String(),
		itemsJSON,
		customerJSON,
		shippingJSON,
		fieldErrsJSON,
		nullable(s.PaymentMethod),
		string(s.PaymentStatus),
		nullable(s.ErrorMessage),
		nullable(s.RedirectURL),
		orderJSON,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout session: %w", err)
	}
	return nil
}

// GetByID retrieves a checkout session.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	query := `
		SELECT id, user_id, device_id, current_step, items,
			customer, shipping, field_errors,
			payment_method, payment_status, error_message, redirect_url,
			order_info, created_at, updated_at
		FROM checkout_sessions
		WHERE id = $1`

	var (
		s             domain.CheckoutSession
		userID        *string
		stepName      string
		itemsJSON     []byte
		customerJSON  []byte
		shippingJSON  []byte
		fieldErrsJSON []byte
		method        *string
		status        string
		errorMessage  *string
		redirectURL   *string
		orderJSON     []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &userID, &s.DeviceID, &stepName, &itemsJSON,
		&customerJSON, &shippingJSON, &fieldErrsJSON,
		&method, &status, &errorMessage, &redirectURL,
		&orderJSON, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("checkout session", id)
		}
		return nil, fmt.Errorf("select checkout session: %w", err)
	}

	step, ok := domain.ParseStep(stepName)
	if !ok {
		return nil, fmt.Errorf("stored checkout session %s has unknown step %q", id, stepName)
	}
	s.CurrentStep = step
	s.PaymentStatus = domain.PaymentStatus(status)
	s.UserID = deref(userID)
	s.PaymentMethod = deref(method)
	s.ErrorMessage = deref(errorMessage)
	s.RedirectURL = deref(redirectURL)

	if err := json.Unmarshal(itemsJSON, &s.Items); err != nil {
		return nil, fmt.Errorf("unmarshal checkout items: %w", err)
	}
	if err := json.Unmarshal(customerJSON, &s.Customer); err != nil {
		return nil, fmt.Errorf("unmarshal checkout customer: %w", err)
	}
	if err := json.Unmarshal(shippingJSON, &s.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshal checkout shipping: %w", err)
	}
	if len(fieldErrsJSON) > 0 {
		if err := json.Unmarshal(fieldErrsJSON, &s.FieldErrors); err != nil {
			return nil, fmt.Errorf("unmarshal checkout field errors: %w", err)
		}
	}
	if len(orderJSON) > 0 && string(orderJSON) != "null" {
		s.Order = &domain.OrderInfo{}
		if err := json.Unmarshal(orderJSON, s.Order); err != nil {
			return nil, fmt.Errorf("unmarshal checkout order info: %w", err)
		}
	}

	return &s, nil
}

// Update replaces the stored session state.
func (r *SessionRepository) Update(ctx context.Context, s *domain.CheckoutSession) error {
	itemsJSON, customerJSON, shippingJSON, fieldErrsJSON, orderJSON, err := marshalSession(s)
	if err != nil {
		return err
	}

	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE checkout_sessions
		SET user_id = $2, current_step = $3, items = $4,
			customer = $5, shipping = $6, field_errors = $7,
			payment_method = $8, payment_status = $9,
			error_message = $10, redirect_url = $11,
			order_info = $12, updated_at = $13
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		s.ID,
		nullable(s.UserID),
		s.CurrentStep.String(),
		itemsJSON,
		customerJSON,
		shippingJSON,
		fieldErrsJSON,
		nullable(s.PaymentMethod),
		string(s.PaymentStatus),
		nullable(s.ErrorMessage),
		nullable(s.RedirectURL),
		orderJSON,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update checkout session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("checkout session", s.ID)
	}
	return nil
}

func marshalSession(s *domain.CheckoutSession) (items, customer, shipping, fieldErrs, order []byte, err error) {
	if items, err = json.Marshal(s.Items); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal checkout items: %w", err)
	}
	if customer, err = json.Marshal(s.Customer); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal checkout customer: %w", err)
	}
	if shipping, err = json.Marshal(s.Shipping); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal checkout shipping: %w", err)
	}
	if fieldErrs, err = json.Marshal(s.FieldErrors); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal checkout field errors: %w", err)
	}
	if order, err = json.Marshal(s.Order); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("marshal checkout order info: %w", err)
	}
	return items, customer, shipping, fieldErrs, order, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
