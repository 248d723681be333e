package planner

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StoredPlan is a persisted generation result.
type StoredPlan struct {
	ID        int64
	UserID    string
	Outcome   string
	PlanData  []byte // raw JSON of the plan draft
	CreatedAt time.Time
}

// PlanRepository is a database-backed repository for generated plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts a new generated plan into the database.
func (r *PlanRepository) Save(ctx context.Context, userID string, outcome Outcome, planData []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, outcome, plan_data, created_at) VALUES (?, ?, ?, ?)`,
		userID, string(outcome), planData, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save plan for user %s: %w", userID, err)
	}
	return nil
}

// ListRecentByUserID retrieves the N most recent plans for a given user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, outcome, plan_data, created_at FROM meal_plans
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		var p StoredPlan
		if err := rows.Scan(&p.ID, &p.UserID, &p.Outcome, &p.PlanData, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
