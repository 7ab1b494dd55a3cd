package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/simfell/internal/config"
	"github.com/cory-johannsen/simfell/internal/storage/postgres"
	"github.com/cory-johannsen/simfell/internal/testutil"
)

func setupRepo(t *testing.T) (*testutil.PostgresContainer, *postgres.ResultRepository) {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pc, pc.Repo
}

func sampleRun(archetype string) postgres.Run {
	seed := uint64(42)
	return postgres.Run{
		Archetype:  archetype,
		Talents:    []string{"avalanche", "soulfrost_torrent"},
		Stats:      postgres.RunStats{MainStat: 1000, Crit: 30, Haste: 20},
		Duration:   300,
		Enemies:    1,
		Iterations: 100,
		Seed:       &seed,
		DPSMean:    812.5,
		DPSMin:     790.1,
		DPSMax:     840.9,
		DPSStdDev:  9.7,
		Abilities: []postgres.AbilityResult{
			{ID: "frost_bolt", Casts: 80, CritRate: 31.2, DPS: 400, Share: 49.2},
			{ID: "ice_comet", Casts: 12, CritRate: 29.8, DPS: 200, Share: 24.6},
		},
	}
}

func TestResultRepository(t *testing.T) {
	pc, repo := setupRepo(t)
	ctx := context.Background()

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})

	t.Run("save and get round trip", func(t *testing.T) {
		saved, err := repo.Save(ctx, sampleRun("rime"))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, saved.ID)
		assert.False(t, saved.CreatedAt.IsZero())

		got, err := repo.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, []string{"avalanche", "soulfrost_torrent"}, got.Talents)
		assert.Equal(t, postgres.RunStats{MainStat: 1000, Crit: 30, Haste: 20}, got.Stats)
		require.NotNil(t, got.Seed)
		assert.Equal(t, uint64(42), *got.Seed)
		assert.InDelta(t, 812.5, got.DPSMean, 1e-9)
		require.Len(t, got.Abilities, 2)
		assert.Equal(t, "ice_comet", got.Abilities[1].ID)
	})

	t.Run("nil seed stays nil", func(t *testing.T) {
		run := sampleRun("rime")
		run.Seed = nil
		saved, err := repo.Save(ctx, run)
		require.NoError(t, err)
		got, err := repo.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Seed)
	})

	t.Run("duplicate id", func(t *testing.T) {
		run := sampleRun("rime")
		run.ID = uuid.New()
		_, err := repo.Save(ctx, run)
		require.NoError(t, err)
		_, err = repo.Save(ctx, run)
		assert.ErrorIs(t, err, postgres.ErrRunExists)
	})

	t.Run("missing run", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, postgres.ErrRunNotFound)
	})

	t.Run("list by archetype newest first", func(t *testing.T) {
		var ids []uuid.UUID
		for range 3 {
			saved, err := repo.Save(ctx, sampleRun("listing"))
			require.NoError(t, err)
			ids = append(ids, saved.ID)
			time.Sleep(5 * time.Millisecond)
		}
		runs, err := repo.ListByArchetype(ctx, "listing", 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, ids[2], runs[0].ID)
		assert.Equal(t, ids[1], runs[1].ID)

		none, err := repo.ListByArchetype(ctx, "nobody", 5)
		require.NoError(t, err)
		assert.Empty(t, none)

		_, err = repo.ListByArchetype(ctx, "listing", 0)
		assert.Error(t, err)
	})

	t.Run("closed repository fails ping", func(t *testing.T) {
		other, err := postgres.Open(ctx, pc.Config)
		require.NoError(t, err)
		require.NoError(t, other.Ping(ctx))
		other.Close()
		assert.Error(t, other.Ping(ctx))
	})
}

func TestOpen_UnreachableDatabase(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:        "127.0.0.1",
		Port:        1,
		User:        "simfell",
		Name:        "simfell",
		SSLMode:     "disable",
		MaxConns:    1,
		PingTimeout: 500 * time.Millisecond,
	}
	start := time.Now()
	_, err := postgres.Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinging database")
	assert.Less(t, time.Since(start), 5*time.Second)
}
