package achievement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var ErrDuplicateCriteria = errors.New("duplicate achievement criteria")

type criteriaKey struct {
	kind  CriteriaType
	value int
}

// Catalog is the read-only set of achievements a user can earn, indexed by
// criteria. It is loaded once at startup and passed to the Evaluator.
type Catalog struct {
	byCriteria map[criteriaKey]Achievement
	ordered    []Achievement
}

func NewCatalog(achievements []Achievement) (*Catalog, error) {
	c := &Catalog{
		byCriteria: make(map[criteriaKey]Achievement, len(achievements)),
		ordered:    make([]Achievement, 0, len(achievements)),
	}
	for _, a := range achievements {
		key := criteriaKey{a.CriteriaType, a.CriteriaValue}
		if existing, ok := c.byCriteria[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q both use %s=%d", ErrDuplicateCriteria, existing.Name, a.Name, a.CriteriaType, a.CriteriaValue)
		}
		c.byCriteria[key] = a
		c.ordered = append(c.ordered, a)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool {
		return c.ordered[i].Name < c.ordered[j].Name
	})
	return c, nil
}

func (c *Catalog) Lookup(kind CriteriaType, value int) (Achievement, bool) {
	a, ok := c.byCriteria[criteriaKey{kind, value}]
	return a, ok
}

// All returns the catalog sorted by name.
func (c *Catalog) All() []Achievement {
	out := make([]Achievement, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) Len() int {
	return len(c.ordered)
}

// DefaultAchievements is the catalog seeded into a fresh database. IDs are
// fixed so the seed migration and in-memory setups agree.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e000001"), Name: "Getting Started", Description: "Create 5 tasks", XPBonus: 50, CriteriaType: CriteriaTaskCreation, CriteriaValue: 5},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e000002"), Name: "Task Enthusiast", Description: "Create 10 tasks", XPBonus: 100, CriteriaType: CriteriaTaskCreation, CriteriaValue: 10},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e000003"), Name: "Task Master", Description: "Create 20 tasks", XPBonus: 200, CriteriaType: CriteriaTaskCreation, CriteriaValue: 20},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e000004"), Name: "High Roller", Description: "Complete your first High priority task", XPBonus: 50, CriteriaType: CriteriaTaskCompletion, CriteriaValue: 1},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e000005"), Name: "Steady Hand", Description: "Complete your first Medium priority task", XPBonus: 25, CriteriaType: CriteriaTaskCompletion, CriteriaValue: 2},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e000006"), Name: "Small Wins", Description: "Complete your first Low priority task", XPBonus: 10, CriteriaType: CriteriaTaskCompletion, CriteriaValue: 3},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e000007"), Name: "Apprentice", Description: "Reach level 5", XPBonus: 100, CriteriaType: CriteriaLevelMilestone, CriteriaValue: 5},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e000008"), Name: "Journeyman", Description: "Reach level 10", XPBonus: 200, CriteriaType: CriteriaLevelMilestone, CriteriaValue: 10},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e000009"), Name: "Veteran", Description: "Reach level 15", XPBonus: 300, CriteriaType: CriteriaLevelMilestone, CriteriaValue: 15},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e00000a"), Name: "Legend", Description: "Reach level 20", XPBonus: 0, CriteriaType: CriteriaLevelMilestone, CriteriaValue: 20},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e00000b"), Name: "Label Master", Description: "Create 3 labels", XPBonus: 25, CriteriaType: CriteriaLabelCreation, CriteriaValue: 3},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e00000c"), Name: "Organizer", Description: "Create 5 labels", XPBonus: 50, CriteriaType: CriteriaLabelCreation, CriteriaValue: 5},
		{ID: uuid.MustParse("6f1d7c2a-0b7e-4c55-9d1e-5a1c0e00000d"), Name: "Librarian", Description: "Create 10 labels", XPBonus: 100, CriteriaType: CriteriaLabelCreation, CriteriaValue: 10},
	}
}
