package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote is one user's vote on a product. Removing a vote deletes the row.
type Vote struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:ux_votes_user_product,priority:1"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_votes_user_product,priority:2;index"`
	Value     int       `gorm:"column:value;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
