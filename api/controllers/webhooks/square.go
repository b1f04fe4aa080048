package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/launchboard-backend/api/responses"
	"github.com/angelmondragon/launchboard-backend/api/validators"
	"github.com/angelmondragon/launchboard-backend/internal/launches"
	squarewebhook "github.com/angelmondragon/launchboard-backend/internal/webhooks/square"
	pkgerrors "github.com/angelmondragon/launchboard-backend/pkg/errors"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
	"github.com/angelmondragon/launchboard-backend/pkg/types"
)

const maxWebhookBody = 1 << 20

type SquareWebhookService interface {
	HandleEvent(ctx context.Context, event *squarewebhook.SquareWebhookEvent) (*launches.FulfillResult, error)
}

type squareWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type squareClient interface {
	SigningSecret() string
}

// SquareWebhook receives fulfilled orders from the payment collector. Parked
// orders (manual review) answer 200 so the collector does not retry them.
func SquareWebhook(svc SquareWebhookService, client squareClient, guard squareWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "square client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := strings.TrimSpace(r.Header.Get("Square-Signature"))
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "square signature missing"))
			return
		}
		if !validateSquareSignature(payload, client.SigningSecret(), sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid square signature"))
			return
		}

		var event squarewebhook.SquareWebhookEvent
		if err := validators.DecodeJSON(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		eventID := event.DedupeKey()
		if eventID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event id missing"))
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"event_id": eventID, "event_type": event.Type})
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			if logg != nil {
				logg.Info(ctx, "square event already processed")
			}
			responses.WriteSuccess(w, types.WebhookAck{Duplicate: true, EventType: event.Type})
			return
		}

		result, err := svc.HandleEvent(ctx, &event)
		if err != nil && result == nil {
			if delErr := guard.Delete(context.WithoutCancel(ctx), eventID); delErr != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", delErr.Error()), "square idempotency key not released")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err != nil && logg != nil {
			logg.Warn(logg.WithField(ctx, "reason", err.Error()), "square order parked for manual review")
		}

		if result == nil {
			if logg != nil {
				logg.Debug(ctx, "square event ignored")
			}
			responses.WriteSuccess(w, types.WebhookAck{Ignored: true, EventType: event.Type})
			return
		}
		if logg != nil {
			logg.Info(ctx, "square event processed")
		}
		responses.WriteSuccess(w, result)
	}
}

// validateSquareSignature accepts a hex or base64 HMAC-SHA256 of the raw body.
func validateSquareSignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	sum := mac.Sum(nil)
	if hmac.Equal([]byte(hex.EncodeToString(sum)), []byte(header)) {
		return true
	}
	return hmac.Equal([]byte(base64.StdEncoding.EncodeToString(sum)), []byte(header))
}
