package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rss-retitle/app/rules"
)

func newTestRepository(t *testing.T) *SQLRuleRepository {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "rules.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	return NewRuleRepository(db)
}

func TestNewConnectionRequiresPath(t *testing.T) {
	_, err := NewConnection("")
	assert.Error(t, err)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)

	version, dirty, err := RunMigrations(repo.db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func TestRuleRepositoryLoadRulesOrdering(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.CreateRule(ctx, rules.Rule{Name: "late", Pattern: "b", Replacement: "B", Priority: 50})
	require.NoError(t, err)
	_, err = repo.CreateRule(ctx, rules.Rule{Name: "early", Pattern: "a", Replacement: "A", Priority: 5})
	require.NoError(t, err)
	_, err = repo.CreateRule(ctx, rules.Rule{Name: "late-second", Pattern: "c", Replacement: "C", Priority: 50})
	require.NoError(t, err)

	loaded, err := repo.LoadRules(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	assert.Equal(t, rules.Rule{Name: "early", Pattern: "a", Replacement: "A", Priority: 5}, loaded[0])
	assert.Equal(t, "late", loaded[1].Name)
	assert.Equal(t, "late-second", loaded[2].Name)
}

func TestRuleRepositoryDisabledRulesAreNotLoaded(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateRule(ctx, rules.Rule{Name: "off", Pattern: "x", Priority: 1})
	require.NoError(t, err)
	require.NoError(t, repo.SetRuleEnabled(ctx, id, false))

	loaded, err := repo.LoadRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	stored, err := repo.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, id, stored[0].ID)
	assert.False(t, stored[0].Enabled)
	assert.False(t, stored[0].CreatedAt.IsZero())

	require.NoError(t, repo.SetRuleEnabled(ctx, id, true))
	loaded, err = repo.LoadRules(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestRuleRepositoryDeleteRule(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateRule(ctx, rules.Rule{Name: "gone", Pattern: "x", Priority: 1})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteRule(ctx, id))

	err = repo.DeleteRule(ctx, id)
	assert.ErrorIs(t, err, ErrRuleNotFound)

	err = repo.SetRuleEnabled(ctx, 999, true)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestRuleRepositoryFeedsBuilder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.CreateRule(ctx, rules.Rule{Name: "upper", Pattern: `^episode (\d+)$`, Replacement: "Episode $1", Priority: 10})
	require.NoError(t, err)
	_, err = repo.CreateRule(ctx, rules.Rule{Name: "broken", Pattern: `(unclosed`, Priority: 20})
	require.NoError(t, err)

	builder := &rules.Builder{Sources: []rules.Source{repo}}
	set, err := builder.Build(ctx)
	require.NoError(t, err)

	// built-in rule plus the one valid stored rule
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, "Episode 7", set.Convert("episode 7"))
}
