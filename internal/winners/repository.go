package winners

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/launchboard-backend/pkg/db/models"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// Repository stores the winner flags.
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

// SwapWinner clears the window's flag on every other product and sets it on winner.
// A nil winner only clears. Callers run it inside a transaction.
func (r *Repository) SwapWinner(ctx context.Context, window enums.WinnerWindow, winner *uuid.UUID) error {
	column := window.FlagColumn()
	if column == "" {
		return fmt.Errorf("unknown winner window %q", window)
	}
	now := time.Now().UTC()
	reset := r.db.WithContext(ctx).
		Model(&models.WinnerFlag{}).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: true})
	if winner != nil {
		reset = reset.Where("product_id <> ?", *winner)
	}
	if err := reset.Updates(map[string]any{column: false, "updated_at": now}).Error; err != nil {
		return fmt.Errorf("clear %s: %w", column, err)
	}
	if winner == nil {
		return nil
	}
	flag := models.WinnerFlag{ProductID: *winner, UpdatedAt: now}
	switch window {
	case enums.WinnerWindowDaily:
		flag.WonDaily = true
	case enums.WinnerWindowWeekly:
		flag.WonWeekly = true
	case enums.WinnerWindowMonthly:
		flag.WonMonthly = true
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{column, "updated_at"}),
		}).
		Create(&flag).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	return nil
}

// Winners returns the product holding each window's flag.
func (r *Repository) Winners(ctx context.Context) (map[enums.WinnerWindow]uuid.UUID, error) {
	var flags []models.WinnerFlag
	if err := r.db.WithContext(ctx).
		Where("won_daily = ? OR won_weekly = ? OR won_monthly = ?", true, true, true).
		Find(&flags).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.WinnerWindow]uuid.UUID, len(enums.WinnerWindows))
	for _, flag := range flags {
		if flag.WonDaily {
			out[enums.WinnerWindowDaily] = flag.ProductID
		}
		if flag.WonWeekly {
			out[enums.WinnerWindowWeekly] = flag.ProductID
		}
		if flag.WonMonthly {
			out[enums.WinnerWindowMonthly] = flag.ProductID
		}
	}
	return out, nil
}
