// Package memstore holds in-memory implementations of the progression and
// achievement collaborators. Tests use it in place of Postgres.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rpgTodoAPI/internal/progression"
)

type Store struct {
	mu           sync.Mutex
	progressions map[string]progression.Progression
	earned       map[string]map[uuid.UUID]time.Time
	tasks        map[string]int
	completed    map[string]map[progression.Priority]int
	labels       map[string]int

	// Hooks let tests inject persistence failures.
	UpdateErr   error
	HasErr      error
	RecordErr   error
	CountErr    error
	Updates     int
	RecordCalls int
}

func New() *Store {
	return &Store{
		progressions: make(map[string]progression.Progression),
		earned:       make(map[string]map[uuid.UUID]time.Time),
		tasks:        make(map[string]int),
		completed:    make(map[string]map[progression.Priority]int),
		labels:       make(map[string]int),
	}
}

// AddUser creates a progression record the way account creation does.
func (s *Store) AddUser(userID string, totalXP, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressions[userID] = progression.Progression{UserID: userID, TotalXP: totalXP, CurrentLevel: level}
}

func (s *Store) GetProgression(ctx context.Context, userID string) (progression.Progression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progressions[userID]
	if !ok {
		return progression.Progression{}, progression.ErrUserNotFound
	}
	return p, nil
}

func (s *Store) UpdateProgression(ctx context.Context, userID string, fn func(progression.Progression) (progression.Progression, error)) (progression.Progression, progression.Progression, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return progression.Progression{}, progression.Progression{}, s.UpdateErr
	}
	before, ok := s.progressions[userID]
	if !ok {
		return progression.Progression{}, progression.Progression{}, progression.ErrUserNotFound
	}
	after, err := fn(before)
	if err != nil {
		return progression.Progression{}, progression.Progression{}, err
	}
	s.progressions[userID] = after
	s.Updates++
	return before, after, nil
}

func (s *Store) HasEarned(ctx context.Context, userID string, achievementID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.HasErr != nil {
		return false, s.HasErr
	}
	_, ok := s.earned[userID][achievementID]
	return ok, nil
}

func (s *Store) RecordEarned(ctx context.Context, userID string, achievementID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RecordCalls++
	if s.RecordErr != nil {
		return false, s.RecordErr
	}
	if s.earned[userID] == nil {
		s.earned[userID] = make(map[uuid.UUID]time.Time)
	}
	if _, ok := s.earned[userID][achievementID]; ok {
		return false, nil
	}
	s.earned[userID][achievementID] = at
	return true, nil
}

// EarnedCount is the number of earned-achievement records for a user.
func (s *Store) EarnedCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.earned[userID])
}

func (s *Store) EarnedAt(userID string, achievementID uuid.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.earned[userID][achievementID]
	return at, ok
}

func (s *Store) CountTasks(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CountErr != nil {
		return 0, s.CountErr
	}
	return s.tasks[userID], nil
}

func (s *Store) CountCompletedTasks(ctx context.Context, userID string, priority progression.Priority) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CountErr != nil {
		return 0, s.CountErr
	}
	return s.completed[userID][priority], nil
}

func (s *Store) CountLabels(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CountErr != nil {
		return 0, s.CountErr
	}
	return s.labels[userID], nil
}

func (s *Store) CreateTask(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[userID]++
	return s.tasks[userID]
}

func (s *Store) CompleteTask(userID string, priority progression.Priority) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed[userID] == nil {
		s.completed[userID] = make(map[progression.Priority]int)
	}
	s.completed[userID][priority]++
	return s.completed[userID][priority]
}

func (s *Store) CreateLabel(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[userID]++
	return s.labels[userID]
}
