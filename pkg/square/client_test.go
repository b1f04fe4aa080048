package square

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/angelmondragon/launchboard-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/launchboard-backend/pkg/errors"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "square-test"})
}

func TestNewClientRequiresTokenOnlyWhenVerifying(t *testing.T) {
	ctx := context.Background()
	cfg := config.SquareConfig{WebhookSecret: "whsec", Env: "sandbox", VerifyPayment: true}
	if _, err := NewClient(ctx, cfg, testLogger()); !errors.Is(err, errAccessTokenRequired) {
		t.Fatalf("expected access token error, got %v", err)
	}

	cfg.VerifyPayment = false
	c, err := NewClient(ctx, cfg, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.VerifiesPayments() {
		t.Fatal("client without token must not verify payments")
	}
	if c.SigningSecret() != "whsec" {
		t.Fatalf("unexpected signing secret %q", c.SigningSecret())
	}
	if _, err := c.GetPayment(ctx, "p1"); err == nil {
		t.Fatal("expected GetPayment to fail when verification is disabled")
	}
}

func TestNewClientValidatesSettings(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.SquareConfig{Env: "sandbox"}, testLogger()); !errors.Is(err, errWebhookSecretRequired) {
		t.Fatalf("expected webhook secret error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{WebhookSecret: "x", Env: "staging"}, testLogger()); !errors.Is(err, errInvalidSquareEnv) {
		t.Fatalf("expected env error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{WebhookSecret: "x"}, nil); !errors.Is(err, errLoggerRequired) {
		t.Fatalf("expected logger error, got %v", err)
	}
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v2/payments/pay_123") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payment":{"id":"pay_123","status":"COMPLETED","amount_money":{"amount":2900,"currency":"USD"}}}`))
	}))
	defer srv.Close()

	c := &Client{
		sdk:    sqclient.NewClient(sqoption.WithBaseURL(srv.URL), sqoption.WithToken("token")),
		logger: testLogger(),
	}
	payment, err := c.GetPayment(context.Background(), "pay_123")
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if !payment.Completed() {
		t.Fatalf("expected completed payment, got %q", payment.Status)
	}
	if payment.AmountCents != 2900 || payment.Currency != "USD" {
		t.Fatalf("unexpected amount %d %s", payment.AmountCents, payment.Currency)
	}

	_, err = c.GetPayment(context.Background(), "missing")
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestRedact(t *testing.T) {
	c := &Client{}
	if out := c.redact("source_token", "abc123"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestMapSquareErrorPrefersAuthenticationCategory(t *testing.T) {
	c := &Client{}
	err := sqcore.NewAPIError(http.StatusBadRequest, errors.New(`{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`))
	mapped := c.mapSquareError(err, "operation")
	typed := pkgerrors.As(mapped)
	if typed == nil {
		t.Fatal("result is not pkgerror")
	}
	if typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", typed.Code())
	}

	plain := c.mapSquareError(errors.New("dial tcp: refused"), "operation")
	if !pkgerrors.HasCode(plain, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency code, got %v", plain)
	}
}

func TestExtractSquareErrors(t *testing.T) {
	payload := `{"errors":[{"category":"API_ERROR","code":"BAD_REQUEST","detail":"oops"}]}`
	apiErr := sqcore.NewAPIError(http.StatusBadRequest, errors.New(payload))
	got := extractSquareErrors(apiErr)
	if len(got) != 1 {
		t.Fatalf("expected 1 error, got %d", len(got))
	}
	if got[0].GetCode() != sq.ErrorCodeBadRequest {
		t.Fatalf("unexpected error code %s", got[0].GetCode())
	}
}
