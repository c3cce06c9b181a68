package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/yukikurage/roommates-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// ForWeek restricts assignment queries to one week key. A nil week
// selects the undated rows of one-time tasks.
func ForWeek(weekStart *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if weekStart == nil {
			return db.Where("week_start IS NULL")
		}
		return db.Where("week_start = ?", *weekStart)
	}
}

// CurrentOrUndated keeps assignments of the given week plus undated ones,
// which together are the obligations visible this week.
func CurrentOrUndated(weekStart time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(week_start IS NULL OR week_start = ?)", weekStart)
	}
}
