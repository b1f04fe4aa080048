package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/launchboard-backend/internal/rankings"
	"github.com/angelmondragon/launchboard-backend/pkg/db/models"
	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// Repository stores archive entries and completed runs.
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

// ReplacePeriod makes the stored (year, period) group equal to entries.
// Rows for products no longer ranked are removed; the rest are upserted.
func (r *Repository) ReplacePeriod(ctx context.Context, year int, period enums.ArchivePeriod, entries []rankings.Entry) error {
	tx := r.db.WithContext(ctx)
	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ProductID)
	}
	stale := tx.Where("year = ? AND period = ?", year, period)
	if len(ids) > 0 {
		stale = stale.Where("product_id NOT IN ?", ids)
	}
	if err := stale.Delete(&models.ArchiveEntry{}).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	rows := make([]models.ArchiveEntry, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, models.ArchiveEntry{
			Year:      year,
			Period:    period,
			ProductID: entry.ProductID,
			Rank:      entry.Rank,
			NetVotes:  entry.NetVotes,
		})
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "period"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rank", "net_votes", "updated_at"}),
	}).CreateInBatches(&rows, 100).Error
}

// Entries lists the stored group ordered by rank.
func (r *Repository) Entries(ctx context.Context, year int, period enums.ArchivePeriod) ([]models.ArchiveEntry, error) {
	var entries []models.ArchiveEntry
	err := r.db.WithContext(ctx).
		Where("year = ? AND period = ?", year, period).
		Order("rank ASC").
		Find(&entries).Error
	return entries, err
}

// RunCompleted reports whether the archive for year already finished.
func (r *Repository) RunCompleted(ctx context.Context, year int) (bool, error) {
	var run models.ArchiveRun
	err := r.db.WithContext(ctx).First(&run, "year = ?", year).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkCompleted records a finished archive run for year.
func (r *Repository) MarkCompleted(ctx context.Context, year, entries int, at time.Time) error {
	run := models.ArchiveRun{Year: year, Entries: entries, CompletedAt: at.UTC()}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}},
		DoUpdates: clause.AssignmentColumns([]string{"entries", "completed_at"}),
	}).Create(&run).Error
}
