package models

import "time"

// LaunchWeekSlot is the booking ledger for one Monday-aligned capacity week.
type LaunchWeekSlot struct {
	WeekStart time.Time `gorm:"column:week_start;primaryKey"`
	Booked    int       `gorm:"column:booked;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// All lists every model managed by the launch pipeline, in dependency order.
func All() []any {
	return []any{
		&Product{},
		&ProductCategory{},
		&ProductMedia{},
		&Order{},
		&Vote{},
		&WinnerFlag{},
		&ArchiveEntry{},
		&ArchiveRun{},
		&LaunchWeekSlot{},
	}
}
