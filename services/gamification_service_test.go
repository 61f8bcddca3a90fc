package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/memstore"
	"rpgTodoAPI/internal/progression"
)

type recordingNotifier struct {
	mu           sync.Mutex
	levels       []int
	achievements []string
}

func (n *recordingNotifier) NotifyLevelUp(userID string, level int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.levels = append(n.levels, level)
}

func (n *recordingNotifier) NotifyAchievement(userID string, a achievement.Achievement) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.achievements = append(n.achievements, a.Name)
}

func newGamification(t *testing.T) (*GamificationService, *memstore.Store, *recordingNotifier) {
	t.Helper()
	store := memstore.New()
	catalog, err := achievement.NewCatalog(achievement.DefaultAchievements())
	require.NoError(t, err)

	updater := progression.NewUpdater(store, progression.DefaultLevelTable())
	evaluator := achievement.NewEvaluator(catalog, store, store, updater)
	notifier := &recordingNotifier{}
	return NewGamificationService(updater, evaluator, notifier, zerolog.Nop()), store, notifier
}

func TestAwardTaskCompletionXPFirstHighLevelsUp(t *testing.T) {
	svc, store, notifier := newGamification(t)
	store.AddUser("u1", 90, 1)
	store.CompleteTask("u1", progression.PriorityHigh)

	levelUpsBefore := testutil.ToFloat64(levelUpsTotal)

	res, err := svc.AwardTaskCompletionXP(context.Background(), "u1", progression.PriorityHigh)
	require.NoError(t, err)

	assert.Equal(t, 100, res.XPEarned)
	assert.Equal(t, 1, res.PreviousLevel)
	assert.Equal(t, 2, res.NewLevel)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 190, res.NewTotalXP)
	assert.Equal(t, 50, res.BonusXP)
	require.Len(t, res.NewAchievements, 1)
	assert.Equal(t, "High Roller", res.NewAchievements[0].Name)
	assert.False(t, res.Degraded)

	p, err := store.GetProgression(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 240, p.TotalXP)
	assert.Equal(t, 2, p.CurrentLevel)

	assert.Equal(t, []int{2}, notifier.levels)
	assert.Equal(t, []string{"High Roller"}, notifier.achievements)
	assert.Equal(t, levelUpsBefore+1, testutil.ToFloat64(levelUpsTotal))
}

func TestAwardTaskCompletionXPLevelMilestone(t *testing.T) {
	svc, store, notifier := newGamification(t)
	store.AddUser("u1", 900, 4)
	store.CompleteTask("u1", progression.PriorityHigh)
	store.CompleteTask("u1", progression.PriorityHigh)

	res, err := svc.AwardTaskCompletionXP(context.Background(), "u1", progression.PriorityHigh)
	require.NoError(t, err)

	assert.Equal(t, 5, res.NewLevel)
	assert.Equal(t, 1000, res.NewTotalXP)
	assert.Equal(t, 100, res.BonusXP)
	require.Len(t, res.NewAchievements, 1)
	assert.Equal(t, "Apprentice", res.NewAchievements[0].Name)
	assert.Equal(t, []int{5}, notifier.levels)

	p, _ := store.GetProgression(context.Background(), "u1")
	assert.Equal(t, 1100, p.TotalXP)
	assert.Equal(t, 5, p.CurrentLevel, "bonus xp does not cascade into another level check")
}

func TestAwardTaskCompletionXPRepeatCompletionNoBonus(t *testing.T) {
	svc, store, _ := newGamification(t)
	store.AddUser("u1", 0, 1)
	store.CompleteTask("u1", progression.PriorityLow)
	store.CompleteTask("u1", progression.PriorityLow)

	res, err := svc.AwardTaskCompletionXP(context.Background(), "u1", progression.PriorityLow)
	require.NoError(t, err)
	assert.Equal(t, 25, res.XPEarned)
	assert.Empty(t, res.NewAchievements)
	assert.NotNil(t, res.NewAchievements)
	assert.Equal(t, 1, store.Updates)
}

func TestAwardTaskCompletionXPUserNotFound(t *testing.T) {
	svc, _, notifier := newGamification(t)

	res, err := svc.AwardTaskCompletionXP(context.Background(), "ghost", progression.PriorityMedium)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, progression.ErrUserNotFound)
	assert.Empty(t, notifier.achievements)
}

func TestAwardTaskCompletionXPDegradedBookkeeping(t *testing.T) {
	svc, store, _ := newGamification(t)
	store.AddUser("u1", 0, 1)
	store.CompleteTask("u1", progression.PriorityMedium)
	store.RecordErr = errors.New("insert failed")

	failuresBefore := testutil.ToFloat64(bookkeepingFailuresTotal.WithLabelValues(string(achievement.CriteriaTaskCompletion)))

	res, err := svc.AwardTaskCompletionXP(context.Background(), "u1", progression.PriorityMedium)
	require.NoError(t, err)
	assert.Equal(t, 50, res.NewTotalXP)
	assert.True(t, res.Degraded)
	assert.Empty(t, res.NewAchievements)
	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(bookkeepingFailuresTotal.WithLabelValues(string(achievement.CriteriaTaskCompletion))))
}

func TestAwardTaskCompletionXPUnknownPriority(t *testing.T) {
	svc, store, _ := newGamification(t)
	store.AddUser("u1", 10, 1)

	res, err := svc.AwardTaskCompletionXP(context.Background(), "u1", progression.Priority("Urgent"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.XPEarned)
	assert.Equal(t, 10, res.NewTotalXP)
	assert.False(t, res.LeveledUp)
	assert.Empty(t, res.NewAchievements)
}

func TestCheckAchievementsTaskCreation(t *testing.T) {
	svc, store, notifier := newGamification(t)
	store.AddUser("u1", 0, 1)
	for i := 0; i < 5; i++ {
		store.CreateTask("u1")
	}

	out := svc.CheckAchievements(context.Background(), "u1", achievement.Trigger{Action: achievement.CriteriaTaskCreation})
	require.Len(t, out.Awarded, 1)
	assert.Equal(t, "Getting Started", out.Awarded[0].Name)
	assert.Equal(t, 50, out.BonusXP)
	assert.False(t, out.Degraded())
	assert.Equal(t, []string{"Getting Started"}, notifier.achievements)

	again := svc.CheckAchievements(context.Background(), "u1", achievement.Trigger{Action: achievement.CriteriaTaskCreation})
	assert.Empty(t, again.Awarded)
	assert.NotNil(t, again.Awarded)
}
