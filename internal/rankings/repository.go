package rankings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// Repository reads launched products with their vote sums.
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

type tallyRow struct {
	ProductID  uuid.UUID
	Status     enums.ProductStatus
	LaunchDate *time.Time
	NetVotes   int64
}

// Tally returns launched products whose launch date falls in the window, with net votes.
// Every vote on a qualifying product counts regardless of when it was cast.
func (r *Repository) Tally(ctx context.Context, window Window) ([]Candidate, map[uuid.UUID]int64, error) {
	var rows []tallyRow
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select("p.id AS product_id, p.status AS status, p.launch_date AS launch_date, COALESCE(SUM(v.value), 0) AS net_votes").
		Joins("LEFT JOIN votes v ON v.product_id = p.id").
		Where("p.status = ? AND p.launch_date >= ? AND p.launch_date < ?", enums.ProductStatusLaunched, window.From.UTC(), window.To.UTC()).
		Group("p.id, p.status, p.launch_date").
		Scan(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	candidates := make([]Candidate, 0, len(rows))
	tallies := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		candidates = append(candidates, Candidate{
			ProductID:  row.ProductID,
			Status:     row.Status,
			LaunchDate: row.LaunchDate,
		})
		tallies[row.ProductID] = row.NetVotes
	}
	return candidates, tallies, nil
}
