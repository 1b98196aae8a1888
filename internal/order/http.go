package order

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPSubmitter submits orders to the order service over HTTP.
type HTTPSubmitter struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewHTTPSubmitter creates an HTTP submitter for the given order service URL.
func NewHTTPSubmitter(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPSubmitter {
	return &HTTPSubmitter{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Submit posts the order and maps the response onto the structured contract:
// 401/403 -> Unauthorized, 400/422 -> Validation (with the service's
// message), transport failures -> Network, anything else -> Unknown.
func (s *HTTPSubmitter) Submit(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &SubmitError{Kind: KindUnknown, Message: "no se pudo preparar el pedido", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, &SubmitError{Kind: KindUnknown, Message: "no se pudo preparar el pedido", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.UserID != "" {
		httpReq.Header.Set("X-User-ID", req.UserID)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &SubmitError{Kind: KindNetwork, Message: "no se pudo conectar con el servicio de pedidos", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, s.errorFromResponse(ctx, resp)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &SubmitError{Kind: KindUnknown, Message: "respuesta inválida del servicio de pedidos", Err: err}
	}

	s.logger.InfoContext(ctx, "order submitted",
		slog.String("order_number", result.Order.Number),
		slog.Int64("total", result.Order.Total),
	)

	return &result, nil
}

func (s *HTTPSubmitter) errorFromResponse(ctx context.Context, resp *http.Response) *SubmitError {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &payload)
	message := payload.Error.Message

	var kind Kind
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	default:
		kind = KindUnknown
	}
	if message == "" {
		message = fmt.Sprintf("el servicio de pedidos respondió %d", resp.StatusCode)
	}

	s.logger.WarnContext(ctx, "order submission rejected",
		slog.Int("status", resp.StatusCode),
		slog.String("kind", string(kind)),
	)

	return &SubmitError{Kind: kind, Message: message}
}
