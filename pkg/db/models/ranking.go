package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/launchboard-backend/pkg/enums"
)

// WinnerFlag marks the current top product of each rolling window.
type WinnerFlag struct {
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	WonDaily   bool      `gorm:"column:won_daily;not null;default:false"`
	WonWeekly  bool      `gorm:"column:won_weekly;not null;default:false"`
	WonMonthly bool      `gorm:"column:won_monthly;not null;default:false"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ArchiveEntry is one ranked product of an archived period.
type ArchiveEntry struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Year      int                 `gorm:"column:year;not null;uniqueIndex:ux_archive_entries_year_period_product,priority:1"`
	Period    enums.ArchivePeriod `gorm:"column:period;not null;uniqueIndex:ux_archive_entries_year_period_product,priority:2"`
	ProductID uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_archive_entries_year_period_product,priority:3"`
	Rank      int                 `gorm:"column:rank;not null"`
	NetVotes  int64               `gorm:"column:net_votes;not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *ArchiveEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ArchiveRun marks a year whose archive completed.
type ArchiveRun struct {
	Year        int       `gorm:"column:year;primaryKey;autoIncrement:false"`
	Entries     int       `gorm:"column:entries;not null;default:0"`
	CompletedAt time.Time `gorm:"column:completed_at;not null"`
}
