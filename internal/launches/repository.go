package launches

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/launchboard-backend/pkg/db/models"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// Repository persists products, orders and the weekly slot ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CountLaunchesBetween counts products whose launch date falls in [from, to).
func (r *Repository) CountLaunchesBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("launch_date >= ? AND launch_date < ?", from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

// ReserveWeekSlot books one slot in the week unless the ledger already holds capacity bookings.
// observed seeds a missing ledger row so launches booked before the ledger existed still count.
func (r *Repository) ReserveWeekSlot(ctx context.Context, weekStart time.Time, observed int64, capacity int) (bool, error) {
	now := time.Now().UTC()
	slot := models.LaunchWeekSlot{
		WeekStart: weekStart.UTC(),
		Booked:    int(observed) + 1,
		UpdatedAt: now,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "week_start"}},
		DoUpdates: clause.Assignments(map[string]any{
			"booked":     gorm.Expr("launch_week_slots.booked + 1"),
			"updated_at": now,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("launch_week_slots.booked < ?", capacity),
		}},
	}).Create(&slot)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RecordWeekSlot books a slot without a ceiling; used for explicitly chosen dates.
func (r *Repository) RecordWeekSlot(ctx context.Context, weekStart time.Time) error {
	now := time.Now().UTC()
	slot := models.LaunchWeekSlot{WeekStart: weekStart.UTC(), Booked: 1, UpdatedAt: now}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "week_start"}},
		DoUpdates: clause.Assignments(map[string]any{
			"booked":     gorm.Expr("launch_week_slots.booked + 1"),
			"updated_at": now,
		}),
	}).Create(&slot).Error
}

// FindOrderByExternalID returns the order recorded for a payment, or nil.
func (r *Repository) FindOrderByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindProduct loads a product by owner and slug regardless of status, or nil.
func (r *Repository) FindProduct(ctx context.Context, ownerID, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND slug = ?", ownerID, slug).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductByID loads a product by id, or nil.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindDraft returns the draft product for (slug, owner), or nil.
func (r *Repository) FindDraft(ctx context.Context, ownerID, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND slug = ? AND status = ?", ownerID, slug, enums.ProductStatusDraft).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a product with its category links and media rows.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product, categories []string, media []models.ProductMedia) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
		return err
	}
	if len(categories) > 0 {
		links := make([]models.ProductCategory, 0, len(categories))
		for _, category := range categories {
			links = append(links, models.ProductCategory{ProductID: product.ID, Category: category})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
			return err
		}
	}
	if len(media) > 0 {
		for i := range media {
			media[i].ProductID = product.ID
		}
		if err := tx.Create(&media).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateDraft fills in a draft product with the fulfilled submission and its launch date.
func (r *Repository) UpdateDraft(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND status = ?", id, enums.ProductStatusDraft).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateOrder inserts the order row.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// PromoteDue moves scheduled products whose launch date has passed to launched.
func (r *Repository) PromoteDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("status = ? AND launch_date <= ?", enums.ProductStatusScheduled, now.UTC()).
		Updates(map[string]any{
			"status":     enums.ProductStatusLaunched,
			"updated_at": now.UTC(),
		})
	return res.RowsAffected, res.Error
}

// ListCategories returns the category links of a product.
func (r *Repository) ListCategories(ctx context.Context, productID uuid.UUID) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).
		Model(&models.ProductCategory{}).
		Where("product_id = ?", productID).
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}
