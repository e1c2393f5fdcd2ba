package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"study-planner/internal/models"
)

var ErrPlanNotFound = errors.New("plan not found")

// PlanStore keeps a history of generated study plans.
type PlanStore interface {
	Save(ctx context.Context, plan *models.Plan) error
	Get(ctx context.Context, id string) (*models.Plan, error)
	// List returns the newest plans first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]*models.Plan, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open returns the store for backend ("file" or "sqlite").
func Open(backend, path string, maxAge time.Duration) (PlanStore, error) {
	switch backend {
	case "", "file":
		return NewFileStore(path, maxAge)
	case "sqlite":
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "plans.db")
		}
		store, err := NewSQLiteStore(path, maxAge)
		if err != nil {
			return nil, err
		}
		if maxAge > 0 {
			if _, err := store.Prune(context.Background(), time.Now().Add(-maxAge)); err != nil {
				store.Close()
				return nil, err
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
