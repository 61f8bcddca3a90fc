package services

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/progression"
)

func TestNormalizeLabelName(t *testing.T) {
	name, s, err := normalizeLabelName("  Home Office ")
	require.NoError(t, err)
	assert.Equal(t, "Home Office", name)
	assert.Equal(t, "home-office", s)

	_, s2, err := normalizeLabelName("home-office")
	require.NoError(t, err)
	assert.Equal(t, s, s2, "names differing only in case and spacing collide")

	_, _, err = normalizeLabelName("   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = normalizeLabelName(strings.Repeat("x", maxLabelNameLength+1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateTitle(t *testing.T) {
	title, err := validateTitle("  Buy milk ")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", title)

	_, err = validateTitle("")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = validateTitle(strings.Repeat("é", 255))
	assert.NoError(t, err)
	_, err = validateTitle(strings.Repeat("é", 256))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidatePriority(t *testing.T) {
	p, err := validatePriority("Medium")
	require.NoError(t, err)
	assert.Equal(t, progression.PriorityMedium, p)

	_, err = validatePriority("Urgent")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "High, Medium or Low")
}

func TestNormalizeUsername(t *testing.T) {
	name, err := normalizeUsername("  questor ")
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Equal(t, "questor", *name)

	name, err = normalizeUsername("")
	assert.NoError(t, err)
	assert.Nil(t, name)

	_, err = normalizeUsername("ab")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDedupe(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{a, b}, dedupe([]uuid.UUID{a, b, a, b}))
	assert.Empty(t, dedupe(nil))
}

func TestWithStatus(t *testing.T) {
	all := achievement.DefaultAchievements()[:2]
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	out := withStatus(all, map[uuid.UUID]time.Time{all[1].ID: at})
	require.Len(t, out, 2)
	assert.False(t, out[0].Earned)
	assert.Nil(t, out[0].EarnedAt)
	assert.True(t, out[1].Earned)
	require.NotNil(t, out[1].EarnedAt)
	assert.Equal(t, at, *out[1].EarnedAt)
}
