package launches

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/launchboard-backend/pkg/db/models"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// OrderFulfilled is a paid submission handed over by the payment collector.
type OrderFulfilled struct {
	ExternalID   string          `validate:"required"`
	UserID       string          `validate:"required"`
	PlanTier     enums.PlanTier  `validate:"required"`
	ProductSlug  string          `validate:"required"`
	ProductName  string          `validate:"required"`
	Tagline      string
	Description  string
	DomainURL    string
	Categories   []string
	Media        SubmissionMedia
	SelectedDate *time.Time
	Amount       decimal.Decimal
	Currency     string
}

// SubmissionMedia lists the media uploaded with a submission.
type SubmissionMedia struct {
	Icon        string
	Thumbnail   string
	Screenshots []string
}

// FulfillResult reports what a fulfilment did.
type FulfillResult struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderStatus enums.OrderStatus `json:"order_status"`
	ProductID   *uuid.UUID        `json:"product_id,omitempty"`
	LaunchDate  *time.Time        `json:"launch_date,omitempty"`
	Created     bool              `json:"created"`
	Duplicate   bool              `json:"duplicate"`
	Reason      string            `json:"reason,omitempty"`
}

func resultFromOrder(order *models.Order, product *models.Product) *FulfillResult {
	result := &FulfillResult{
		OrderID:     order.ID,
		OrderStatus: order.Status,
		ProductID:   order.ProductID,
	}
	if order.FailureReason != nil {
		result.Reason = *order.FailureReason
	}
	if product != nil {
		result.LaunchDate = product.LaunchDate
	}
	return result
}

func mediaRows(media SubmissionMedia) []models.ProductMedia {
	var rows []models.ProductMedia
	if media.Icon != "" {
		rows = append(rows, models.ProductMedia{Kind: enums.MediaKindIcon, URL: media.Icon})
	}
	if media.Thumbnail != "" {
		rows = append(rows, models.ProductMedia{Kind: enums.MediaKindThumbnail, URL: media.Thumbnail})
	}
	for i, url := range media.Screenshots {
		if url == "" {
			continue
		}
		rows = append(rows, models.ProductMedia{Kind: enums.MediaKindScreenshot, URL: url, Position: i})
	}
	return rows
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
