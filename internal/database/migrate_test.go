package database

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpgTodoAPI/internal/achievement"
	"rpgTodoAPI/internal/progression"
)

func TestMigrationsOrdered(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "0001_schema", ms[0].Version)
	assert.Equal(t, "0002_seed", ms[1].Version)
	assert.Contains(t, ms[0].SQL, "CREATE TABLE IF NOT EXISTS user_achievements")
}

func TestSeedMatchesDefaults(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	seed := ms[1].SQL

	for _, a := range achievement.DefaultAchievements() {
		assert.Contains(t, seed, a.ID.String(), a.Name)
		assert.Contains(t, seed, "'"+a.Name+"'")
	}
	for _, th := range progression.DefaultLevelTable().Thresholds() {
		assert.Containsf(t, seed, "("+strconv.Itoa(th.Level)+", "+strconv.Itoa(th.XPRequired)+")", "level %d", th.Level)
	}
}
