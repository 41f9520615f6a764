package wallet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
)

const serviceName = "wallet"

// Config holds the wallet service client configuration
type Config struct {
	BaseURL string
	Secret  string
	Timeout time.Duration
}

type movementRequest struct {
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Balance *int64 `json:"balance,omitempty"`
}

type httpWallet struct {
	cfg        Config
	httpClient adapter.HTTPClient
	json       adapter.JSON
	clock      adapter.Clock
}

// NewHTTPWallet creates a wallet backed by the wallet service HTTP API.
// Requests are signed with HMAC-SHA256 over their canonical JSON body.
func NewHTTPWallet(cfg Config, httpClient adapter.HTTPClient, json adapter.JSON, clock adapter.Clock) Wallet {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &httpWallet{
		cfg:        cfg,
		httpClient: httpClient,
		json:       json,
		clock:      clock,
	}
}

func (w *httpWallet) GetBalance(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := w.timebox(ctx)
	defer cancel()

	resp, err := w.do(ctx, http.MethodGet, w.accountURL(userID, "balance"), "", nil)
	if err != nil {
		return 0, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var out balanceResponse
		if err := w.json.Unmarshal(resp.Body, &out); err != nil {
			return 0, domain.NewExternalServiceError(serviceName, fmt.Errorf("failed to decode balance: %w", err))
		}
		return out.Balance, nil
	case http.StatusNotFound:
		// Accounts that never received funds have nothing to spend
		return 0, nil
	default:
		return 0, w.unexpected(resp)
	}
}

func (w *httpWallet) Debit(ctx context.Context, userID string, amount int64, reference string) error {
	return w.move(ctx, "debit", userID, amount, reference)
}

func (w *httpWallet) Credit(ctx context.Context, userID string, amount int64, reference string) error {
	return w.move(ctx, "credit", userID, amount, reference)
}

func (w *httpWallet) move(ctx context.Context, op string, userID string, amount int64, reference string) error {
	if amount <= 0 {
		return domain.NewInvalidRequest(fmt.Sprintf("%s amount must be positive", op))
	}

	ctx, cancel := w.timebox(ctx)
	defer cancel()

	body, err := w.json.MarshalCanonical(movementRequest{
		UserID:    userID,
		Amount:    amount,
		Reference: reference,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	resp, err := w.do(ctx, http.MethodPost, w.accountURL(userID, op), reference, body)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusPaymentRequired:
		var out errorResponse
		if err := w.json.Unmarshal(resp.Body, &out); err != nil || out.Balance == nil {
			return domain.NewInsufficientFunds(0, amount)
		}
		return domain.NewInsufficientFunds(*out.Balance, amount)
	default:
		return w.unexpected(resp)
	}
}

func (w *httpWallet) do(ctx context.Context, method, target, reference string, body []byte) (*adapter.HTTPResponse, error) {
	timestamp := w.clock.Now().Unix()
	headers := map[string]string{
		"Accept":        "application/json",
		HeaderTimestamp: strconv.FormatInt(timestamp, 10),
		HeaderSignature: Sign(w.cfg.Secret, timestamp, reference, body),
	}
	if body != nil {
		headers["Content-Type"] = "application/json"
	}
	if reference != "" {
		headers[HeaderIdempotencyKey] = reference
	}

	resp, err := w.httpClient.Do(ctx, adapter.HTTPRequest{
		Method:  method,
		URL:     target,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		logger.WarnCtx(ctx, "wallet request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err))
		return nil, domain.NewExternalServiceError(serviceName, err)
	}
	return resp, nil
}

func (w *httpWallet) unexpected(resp *adapter.HTTPResponse) error {
	var out errorResponse
	if err := w.json.Unmarshal(resp.Body, &out); err == nil && out.Message != "" {
		return domain.NewExternalServiceError(serviceName,
			fmt.Errorf("status %d: %s: %s", resp.StatusCode, out.Code, out.Message))
	}
	return domain.NewExternalServiceError(serviceName, fmt.Errorf("unexpected status %d", resp.StatusCode))
}

func (w *httpWallet) accountURL(userID, action string) string {
	return fmt.Sprintf("%s/v1/accounts/%s/%s", w.cfg.BaseURL, url.PathEscape(userID), action)
}

func (w *httpWallet) timebox(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, w.cfg.Timeout)
}
