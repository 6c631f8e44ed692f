package chat

import (
	"context"

	"gorm.io/gorm"
)

// Repo persists audit rows. It implements Recorder.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Record(ctx context.Context, a *Attempt) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListRecent returns the most recent rows in DESC id order (newest -> oldest).
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]Attempt, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var rows []Attempt
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type StatRow struct {
	Stage        Stage   `json:"stage"`
	Provider     string  `json:"provider"`
	Outcome      string  `json:"outcome"`
	Count        int64   `json:"count"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// Stats aggregates rows per (stage, provider, outcome).
func (r *Repo) Stats(ctx context.Context) ([]StatRow, error) {
	var rows []StatRow
	if err := r.db.WithContext(ctx).
		Model(&Attempt{}).
		Select("stage, provider, outcome, COUNT(*) AS count, AVG(latency_ms) AS avg_latency_ms").
		Group("stage, provider, outcome").
		Order("stage, provider, outcome").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
