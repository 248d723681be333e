package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Repository is a database-backed recipe store. Records are stored as JSON
// blobs keyed by id, the same way plans and metrics are kept.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or updates a recipe in the database.
func (r *Repository) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	updatedAt := time.Now().UTC()
	if rec.UpdatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, rec.UpdatedAt); err == nil {
			updatedAt = parsed
		} else {
			log.Warn().Str("recipe_id", rec.ID).Str("updated_at", rec.UpdatedAt).
				Msg("unparseable recipe timestamp, using current time")
		}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO recipes (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		rec.ID, string(data), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a recipe by its ID. Returns nil when not found.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM recipes WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}
	return &rec, nil
}

// GetByIDs retrieves multiple recipes by their IDs. Missing ids are skipped.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]Record, error) {
	recipes := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			recipes = append(recipes, *rec)
		}
	}
	return recipes, nil
}

// List retrieves recipes matching the query. Filtering happens in memory
// because records are stored as opaque JSON.
func (r *Repository) List(ctx context.Context, q Query) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM recipes`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Record
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}

		var rec Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			log.Warn().Str("recipe_id", id).Err(err).Msg("skipping recipe with invalid JSON")
			continue
		}

		if matchesQuery(rec, q) {
			recipes = append(recipes, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe rows: %w", err)
	}

	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Rating > recipes[j].Rating })
	if q.Limit > 0 && len(recipes) > q.Limit {
		recipes = recipes[:q.Limit]
	}
	return recipes, nil
}

// Count returns the number of recipes in the database.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

func matchesQuery(rec Record, q Query) bool {
	if q.MaxTotalTime > 0 && rec.TotalTime() > q.MaxTotalTime {
		return false
	}
	if q.MinRating > 0 && rec.Rating < q.MinRating {
		return false
	}
	if q.Premium != nil && rec.Premium != *q.Premium {
		return false
	}
	for _, excluded := range q.ExcludeTags {
		for _, tag := range rec.Tags {
			if tag == excluded {
				return false
			}
		}
	}
	return true
}
