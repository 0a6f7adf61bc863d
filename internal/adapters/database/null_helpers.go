package database

import (
	"database/sql"
	"time"

	"github.com/careloop/careops-dashboard/internal/domain/entities"
)

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullLevel(level *entities.RiskLevel) sql.NullString {
	if level == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*level), Valid: true}
}
