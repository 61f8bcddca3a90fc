package progression

import (
	"errors"
	"fmt"
)

// MaxLevel caps progression no matter how much XP is accumulated.
const MaxLevel = 20

var ErrInvalidLevelTable = errors.New("invalid level table")

type Threshold struct {
	Level      int `json:"level_number" db:"level_number"`
	XPRequired int `json:"xp_required" db:"xp_required"`
}

// LevelTable is the read-only level threshold reference data. Build it once
// with NewLevelTable and share it; it is never mutated afterwards.
type LevelTable struct {
	thresholds []Threshold
}

func NewLevelTable(thresholds []Threshold) (*LevelTable, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("%w: no thresholds", ErrInvalidLevelTable)
	}
	if thresholds[0].Level != 1 || thresholds[0].XPRequired != 0 {
		return nil, fmt.Errorf("%w: first entry must be level 1 at 0 xp, got %+v", ErrInvalidLevelTable, thresholds[0])
	}
	for i := 1; i < len(thresholds); i++ {
		prev, cur := thresholds[i-1], thresholds[i]
		if cur.Level <= prev.Level || cur.XPRequired <= prev.XPRequired {
			return nil, fmt.Errorf("%w: entry %+v does not increase on %+v", ErrInvalidLevelTable, cur, prev)
		}
	}

	copied := make([]Threshold, len(thresholds))
	copy(copied, thresholds)
	return &LevelTable{thresholds: copied}, nil
}

// DefaultLevelTable requires 50*n*(n-1) XP for level n, up to MaxLevel.
func DefaultLevelTable() *LevelTable {
	thresholds := make([]Threshold, 0, MaxLevel)
	for n := 1; n <= MaxLevel; n++ {
		thresholds = append(thresholds, Threshold{Level: n, XPRequired: 50 * n * (n - 1)})
	}
	return &LevelTable{thresholds: thresholds}
}

// LevelFor returns the largest level whose requirement totalXP meets.
func (t *LevelTable) LevelFor(totalXP int) int {
	return t.Advance(1, totalXP)
}

// Advance returns the highest level above currentLevel that totalXP qualifies
// for, or currentLevel when there is none. The result is clamped to MaxLevel.
func (t *LevelTable) Advance(currentLevel, totalXP int) int {
	level := currentLevel
	for _, th := range t.thresholds {
		if th.Level > level && totalXP >= th.XPRequired {
			level = th.Level
		}
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return level
}

func (t *LevelTable) Threshold(level int) (Threshold, bool) {
	for _, th := range t.thresholds {
		if th.Level == level {
			return th, true
		}
	}
	return Threshold{}, false
}

func (t *LevelTable) Thresholds() []Threshold {
	out := make([]Threshold, len(t.thresholds))
	copy(out, t.thresholds)
	return out
}
