package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// Order records one fulfilled payment for a launch plan.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ExternalID    string            `gorm:"column:external_id;not null;uniqueIndex:ux_orders_external_id"`
	UserID        string            `gorm:"column:user_id;not null;index"`
	ProductID     *uuid.UUID        `gorm:"column:product_id;type:uuid"`
	PlanTier      enums.PlanTier    `gorm:"column:plan_tier;not null"`
	Status        enums.OrderStatus `gorm:"column:status;not null"`
	Amount        decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	Currency      string            `gorm:"column:currency;not null;default:'USD'"`
	FailureReason *string           `gorm:"column:failure_reason"`
	FulfilledAt   time.Time         `gorm:"column:fulfilled_at;not null"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
