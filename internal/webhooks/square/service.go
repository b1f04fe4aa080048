package squarewebhook

import (
	"context"
	"strings"

	"github.com/angelmondragon/launchboard-backend/internal/launches"
	pkgerrors "github.com/angelmondragon/launchboard-backend/pkg/errors"
	"github.com/angelmondragon/launchboard-backend/pkg/logger"
	"github.com/angelmondragon/launchboard-backend/pkg/square"
)

type fulfiller interface {
	Fulfill(ctx context.Context, event launches.OrderFulfilled) (*launches.FulfillResult, error)
}

type paymentVerifier interface {
	VerifiesPayments() bool
	GetPayment(ctx context.Context, paymentID string) (*square.Payment, error)
}

type ServiceParams struct {
	Logger   *logger.Logger
	Launches fulfiller
	Payments paymentVerifier
}

// Service turns Square order events into launches.
type Service struct {
	logg     *logger.Logger
	launches fulfiller
	payments paymentVerifier
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.Launches == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "launch service required")
	}
	return &Service{
		logg:     params.Logger,
		launches: params.Launches,
		payments: params.Payments,
	}, nil
}

// HandleEvent fulfils order.fulfilled events and ignores every other type.
// A non-nil result with an error means the order was parked for manual review.
func (s *Service) HandleEvent(ctx context.Context, event *SquareWebhookEvent) (*launches.FulfillResult, error) {
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "square event required")
	}
	if !strings.EqualFold(event.Type, EventTypeOrderFulfilled) {
		s.logg.Debug(s.logg.WithField(ctx, "event_type", event.Type), "square event ignored")
		return nil, nil
	}

	order := event.Data.Object.Order
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order payload missing")
	}
	paymentID := event.PaymentID()
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id missing")
	}
	ctx = s.logg.WithField(ctx, "payment_id", paymentID)

	if err := s.verifyPayment(ctx, paymentID, order); err != nil {
		return nil, err
	}

	return s.launches.Fulfill(ctx, order.ToOrderFulfilled(paymentID))
}

func (s *Service) verifyPayment(ctx context.Context, paymentID string, order *OrderPayload) error {
	if s.payments == nil || !s.payments.VerifiesPayments() {
		return nil
	}
	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if !payment.Completed() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment not completed").
			WithDetails(map[string]any{"status": payment.Status})
	}
	if payment.AmountCents != order.AmountCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount mismatch").
			WithDetails(map[string]any{"paid": payment.AmountCents, "claimed": order.AmountCents})
	}
	return nil
}
