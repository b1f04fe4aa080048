package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/angelmondragon/launchboard-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/launchboard-backend/pkg/errors"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	// PaymentStatusCompleted is the only status that allows fulfilment.
	PaymentStatusCompleted = "COMPLETED"
)

var (
	errAccessTokenRequired   = errors.New("square access token is required to verify payments")
	errWebhookSecretRequired = errors.New("square webhook secret is required")
	errInvalidSquareEnv      = fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired        = errors.New("square logger is required")
	errVerificationDisabled  = errors.New("square payment verification is disabled")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// Payment is the subset of a Square payment the launch pipeline checks.
type Payment struct {
	ID          string
	Status      string
	AmountCents int64
	Currency    string
}

// Completed reports whether the payment settled.
func (p *Payment) Completed() bool {
	return p != nil && strings.EqualFold(p.Status, PaymentStatusCompleted)
}

// Client wraps the Square SDK with centralized auth, logging and error mapping.
type Client struct {
	sdk           *sqclient.Client
	environment   string
	webhookSecret string
	baseURL       string
	logger        *logger.Logger
}

// NewClient validates the Square settings and builds the wrapper. Without
// payment verification only the webhook signing secret is needed.
func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	c := &Client{
		environment:   env,
		webhookSecret: webhookSecret,
		baseURL:       baseURLs[env],
		logger:        logg,
	}
	if cfg.VerifyPayment {
		accessToken := strings.TrimSpace(cfg.AccessToken)
		if accessToken == "" {
			return nil, errAccessTokenRequired
		}
		c.sdk = sqclient.NewClient(
			sqoption.WithBaseURL(c.baseURL),
			sqoption.WithToken(accessToken),
		)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{"environment": env, "verify_payment": cfg.VerifyPayment}), "square client initialized")
	return c, nil
}

// Environment reports the normalized Square environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the Square webhook secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// VerifiesPayments reports whether GetPayment can reach Square.
func (c *Client) VerifiesPayments() bool {
	return c != nil && c.sdk != nil
}

// GetPayment loads a payment by id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if !c.VerifiesPayments() {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, errVerificationDisabled, "square get payment")
	}
	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.sdk.Payments.Get(ctx, &sq.GetPaymentsRequest{PaymentID: paymentID})
	if err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, c.mapSquareError(err, "get payment")
	}

	payment := resp.GetPayment()
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square get payment returned no payment")
	}
	out := &Payment{
		ID:     stringValue(payment.GetID()),
		Status: stringValue(payment.GetStatus()),
	}
	if money := payment.GetAmountMoney(); money != nil {
		if amount := money.GetAmount(); amount != nil {
			out.AmountCents = *amount
		}
		if currency := money.GetCurrency(); currency != nil {
			out.Currency = string(*currency)
		}
	}
	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": out.ID,
		"status":     out.Status,
		"amount":     out.AmountCents,
	})
	return out, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("square %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("square %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "nonce", "token", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapSquareError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		code := domainCodeForStatus(apiErr.StatusCode)
		for _, sqErr := range extractSquareErrors(apiErr) {
			if sqErr != nil && sqErr.Category == sq.ErrorCategoryAuthenticationError {
				code = pkgerrors.CodeUnauthorized
				break
			}
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("square %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("square %s failed", op))
}

func extractSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	if apiErr == nil {
		return nil
	}
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	raw := strings.TrimSpace(inner.Error())
	if raw == "" {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Errors
}

// domainCodeForStatus maps Square HTTP statuses; 5xx and 429 stay retryable for the collector.
func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidSquareEnv
	}
}
