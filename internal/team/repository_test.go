package team_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlabs/oracle/internal/database/dbtest"
	"github.com/cohortlabs/oracle/internal/stage"
	"github.com/cohortlabs/oracle/internal/team"
)

func TestRepository_CreateAndGet(t *testing.T) {
	pool := dbtest.Open(t)
	repo := team.NewRepository(pool)
	ctx := context.Background()

	tm := &team.Team{Name: "Rocket", Description: "Launch tooling", Tags: []string{"devtools"}}
	require.NoError(t, repo.Create(ctx, tm))
	assert.NotEqual(t, uuid.Nil, tm.ID)
	assert.Equal(t, stage.Ideation, tm.Stage, "teams start in ideation")

	byID, err := repo.GetByID(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rocket", byID.Name)
	assert.Equal(t, []string{"devtools"}, byID.Tags)

	byName, err := repo.GetByName(ctx, "rOcKeT")
	require.NoError(t, err)
	assert.Equal(t, tm.ID, byName.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, team.ErrTeamNotFound)
}

func TestRepository_CreateRejectsDuplicatesAndBadStages(t *testing.T) {
	pool := dbtest.Open(t)
	repo := team.NewRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &team.Team{Name: "Orbit", Stage: stage.Growth}))

	err := repo.Create(ctx, &team.Team{Name: "orbit"})
	assert.ErrorIs(t, err, team.ErrDuplicateTeamName)

	err = repo.Create(ctx, &team.Team{Name: "Comet", Stage: "hyperdrive"})
	assert.ErrorIs(t, err, team.ErrInvalidStage)
}

func TestRepository_Status(t *testing.T) {
	pool := dbtest.Open(t)
	repo := team.NewRepository(pool)
	ctx := context.Background()

	tm := &team.Team{Name: "Nebula"}
	require.NoError(t, repo.Create(ctx, tm))

	_, err := repo.GetStatus(ctx, tm.ID)
	assert.ErrorIs(t, err, team.ErrTeamNotFound)

	first, err := repo.UpsertStatus(ctx, tm.ID, "interviewing users")
	require.NoError(t, err)
	second, err := repo.UpsertStatus(ctx, tm.ID, "building the MVP")
	require.NoError(t, err)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	got, err := repo.GetStatus(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, "building the MVP", got.Status)

	_, err = repo.UpsertStatus(ctx, uuid.New(), "ghost")
	assert.ErrorIs(t, err, team.ErrTeamNotFound)
}
