package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// Product is a submitted listing that can be scheduled for a launch slot.
type Product struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID      string              `gorm:"column:owner_id;not null;uniqueIndex:ux_products_owner_slug,priority:1"`
	Slug         string              `gorm:"column:slug;not null;uniqueIndex:ux_products_owner_slug,priority:2"`
	Name         string              `gorm:"column:name;not null"`
	Tagline      string              `gorm:"column:tagline;not null;default:''"`
	Description  string              `gorm:"column:description;not null;default:''"`
	WebsiteURL   string              `gorm:"column:website_url;not null;default:''"`
	IconURL      *string             `gorm:"column:icon_url"`
	ThumbnailURL *string             `gorm:"column:thumbnail_url"`
	Status       enums.ProductStatus `gorm:"column:status;not null;default:draft;index"`
	LaunchDate   *time.Time          `gorm:"column:launch_date;index"`
	PlanTier     enums.PlanTier      `gorm:"column:plan_tier;not null;default:free"`
	Categories   []ProductCategory   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Media        []ProductMedia      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductCategory links a product to a category slug.
type ProductCategory struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	Category  string    `gorm:"column:category;primaryKey"`
}

func (ProductCategory) TableName() string { return "product_categories" }

// ProductMedia stores icon, thumbnail and screenshot references for a product.
type ProductMedia struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Kind      enums.MediaKind `gorm:"column:kind;not null"`
	URL       string          `gorm:"column:url;not null"`
	Position  int             `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (ProductMedia) TableName() string { return "product_media" }

func (m *ProductMedia) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
