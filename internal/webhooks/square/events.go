package squarewebhook

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/launchboard-backend/internal/launches"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// EventTypeOrderFulfilled is the only event type that creates launches.
const EventTypeOrderFulfilled = "order.fulfilled"

type SquareWebhookEvent struct {
	EventID   string            `json:"event_id"`
	Type      string            `json:"type" validate:"required"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
	Data      SquareWebhookData `json:"data"`
}

type SquareWebhookData struct {
	Type   string              `json:"type"`
	ID     string              `json:"id"`
	Object SquareWebhookObject `json:"object"`
}

type SquareWebhookObject struct {
	Order *OrderPayload `json:"order,omitempty"`
}

// OrderPayload is the submission the checkout attaches to a fulfilled order.
type OrderPayload struct {
	UserID       string       `json:"user_id" validate:"required"`
	PlanTier     string       `json:"plan_tier" validate:"required,oneof=free join skip relaunch"`
	ProductSlug  string       `json:"product_slug" validate:"required,max=80"`
	ProductName  string       `json:"product_name" validate:"required,max=120"`
	Tagline      string       `json:"tagline" validate:"max=200"`
	Description  string       `json:"description"`
	DomainURL    string       `json:"domain_url" validate:"omitempty,url"`
	Categories   []string     `json:"categories" validate:"max=5,dive,required"`
	Media        PayloadMedia `json:"media"`
	SelectedDate *time.Time   `json:"selected_date,omitempty"`
	AmountCents  int64        `json:"amount_cents" validate:"min=0"`
	Currency     string       `json:"currency" validate:"omitempty,len=3"`
}

type PayloadMedia struct {
	Icon        string   `json:"icon" validate:"omitempty,url"`
	Thumbnail   string   `json:"thumbnail" validate:"omitempty,url"`
	Screenshots []string `json:"screenshots" validate:"dive,url"`
}

// DedupeKey is the idempotency key for the envelope; Square reuses event_id on redelivery.
func (e *SquareWebhookEvent) DedupeKey() string {
	if e == nil {
		return ""
	}
	if id := strings.TrimSpace(e.EventID); id != "" {
		return id
	}
	return strings.TrimSpace(e.Data.ID)
}

// PaymentID identifies the Square payment that paid for the order.
func (e *SquareWebhookEvent) PaymentID() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Data.ID)
}

// ToOrderFulfilled maps the payload onto the launch pipeline input.
func (p OrderPayload) ToOrderFulfilled(externalID string) launches.OrderFulfilled {
	return launches.OrderFulfilled{
		ExternalID:  externalID,
		UserID:      p.UserID,
		PlanTier:    enums.PlanTier(strings.ToLower(strings.TrimSpace(p.PlanTier))),
		ProductSlug: p.ProductSlug,
		ProductName: p.ProductName,
		Tagline:     strings.TrimSpace(p.Tagline),
		Description: strings.TrimSpace(p.Description),
		DomainURL:   strings.TrimSpace(p.DomainURL),
		Categories:  p.Categories,
		Media: launches.SubmissionMedia{
			Icon:        p.Media.Icon,
			Thumbnail:   p.Media.Thumbnail,
			Screenshots: p.Media.Screenshots,
		},
		SelectedDate: p.SelectedDate,
		Amount:       decimal.New(p.AmountCents, -2),
		Currency:     p.Currency,
	}
}
