package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"study-planner/internal/models"
)

// FileStore persists plans to a JSON file in a data directory. Plans older
// than maxAge are dropped on load and on every save.
type FileStore struct {
	filePath string
	plans    map[string]*models.Plan
	mu       sync.RWMutex
	maxAge   time.Duration
	now      func() time.Time
}

func NewFileStore(dataDir string, maxAge time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &FileStore{
		filePath: filepath.Join(dataDir, "plans.json"),
		plans:    make(map[string]*models.Plan),
		maxAge:   maxAge,
		now:      time.Now,
	}

	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load plan history: %w", err)
	}

	store.cleanup()

	return store, nil
}

func (s *FileStore) Save(ctx context.Context, plan *models.Plan) error {
	if plan == nil || plan.ID == "" {
		return fmt.Errorf("plan with an ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans[plan.ID] = plan
	s.cleanup()
	return s.save()
}

func (s *FileStore) Get(ctx context.Context, id string) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.plans[id]
	if !ok || s.expired(plan) {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *FileStore) List(ctx context.Context, limit int) ([]*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := make([]*models.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if !s.expired(p) {
			plans = append(plans, p)
		}
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})

	if limit > 0 && len(plans) > limit {
		plans = plans[:limit]
	}
	return plans, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return ErrPlanNotFound
	}
	delete(s.plans, id)
	return s.save()
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) expired(p *models.Plan) bool {
	return s.maxAge > 0 && s.now().Sub(p.CreatedAt) >= s.maxAge
}

func (s *FileStore) cleanup() {
	for id, p := range s.plans {
		if s.expired(p) {
			delete(s.plans, id)
		}
	}
}

func (s *FileStore) load() error {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open plan file: %w", err)
	}
	defer file.Close()

	var plans []*models.Plan
	if err := json.NewDecoder(file).Decode(&plans); err != nil {
		return fmt.Errorf("failed to decode plan file: %w", err)
	}

	for _, p := range plans {
		s.plans[p.ID] = p
	}

	return nil
}

// save rewrites the whole file via a temp file and rename.
func (s *FileStore) save() error {
	plans := make([]*models.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		plans = append(plans, p)
	}

	tmp := s.filePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(plans); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode plans: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close plan file: %w", err)
	}

	return os.Rename(tmp, s.filePath)
}
