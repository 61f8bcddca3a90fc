package progression

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNegativeXP   = errors.New("xp delta must not be negative")
)

// Progression is a user's cumulative XP and derived level.
type Progression struct {
	UserID       string    `json:"user_id"`
	TotalXP      int       `json:"total_xp"`
	CurrentLevel int       `json:"current_level"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store owns the durable progression records.
//
// UpdateProgression must run fn and persist its result atomically with
// respect to other updates of the same user, and return ErrUserNotFound
// when no record exists.
type Store interface {
	GetProgression(ctx context.Context, userID string) (Progression, error)
	UpdateProgression(ctx context.Context, userID string, fn func(current Progression) (Progression, error)) (before, after Progression, err error)
}

type Result struct {
	PreviousLevel int  `json:"previous_level"`
	NewLevel      int  `json:"new_level"`
	NewTotalXP    int  `json:"new_total_xp"`
	XPApplied     int  `json:"xp_applied"`
	LeveledUp     bool `json:"leveled_up"`
}

type Updater struct {
	store  Store
	levels *LevelTable
	now    func() time.Time
}

func NewUpdater(store Store, levels *LevelTable) *Updater {
	return &Updater{store: store, levels: levels, now: time.Now}
}

func (u *Updater) Levels() *LevelTable {
	return u.levels
}

// Apply adds xpDelta to the user's total and recomputes the level. Store
// errors are returned as-is.
func (u *Updater) Apply(ctx context.Context, userID string, xpDelta int) (Result, error) {
	if xpDelta < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrNegativeXP, xpDelta)
	}

	before, after, err := u.store.UpdateProgression(ctx, userID, func(cur Progression) (Progression, error) {
		next := cur
		next.TotalXP = cur.TotalXP + xpDelta
		next.CurrentLevel = u.levels.Advance(cur.CurrentLevel, next.TotalXP)
		next.UpdatedAt = u.now()
		return next, nil
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		PreviousLevel: before.CurrentLevel,
		NewLevel:      after.CurrentLevel,
		NewTotalXP:    after.TotalXP,
		XPApplied:     xpDelta,
		LeveledUp:     after.CurrentLevel > before.CurrentLevel,
	}, nil
}
