package store_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/fieldops/internal/store"
	"github.com/kiranshivaraju/fieldops/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("fieldops_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool, connStr
}

type backend struct {
	name        string
	integration bool
	open        func(t *testing.T) store.Store
}

var backends = []backend{
	{
		name: "memory",
		open: func(*testing.T) store.Store { return store.NewMemoryStore() },
	},
	{
		name: "sqlite",
		open: func(t *testing.T) store.Store {
			s, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "fieldops.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	},
	{
		name:        "postgres",
		integration: true,
		open: func(t *testing.T) store.Store {
			pool, _ := setupTestDB(t)
			return store.NewPostgresStore(pool)
		},
	},
}

// forEachBackend runs fn against a fresh store of every backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, s store.Store)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			if b.integration && testing.Short() {
				t.Skip("skipping integration test")
			}
			fn(t, b.open(t))
		})
	}
}

var baseTime = time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)

func newJob(id string, created time.Time) *models.Job {
	return &models.Job{
		ID:              id,
		ServiceCategory: models.ServiceOilChange,
		Status:          models.JobStatusPending,
		Vehicle:         models.Vehicle{Make: "Honda", Model: "Accord", Year: 2012, VIN: "1HGCP2F44AA123456"},
		Description:     "oil change and inspection",
		ToolsChecked:    map[string]bool{},
		WorkSessions:    []models.WorkSession{},
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestJob_CreateAndGet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		job := newJob("job-1", baseTime)
		require.NoError(t, s.CreateJob(ctx, job))

		got, err := s.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusPending, got.Status)
		assert.Equal(t, job.Vehicle, got.Vehicle)
		assert.Nil(t, got.AssignedTechnicianID)
		assert.Nil(t, got.Signature)
		assert.Empty(t, got.WorkSessions)
		assert.True(t, baseTime.Equal(got.CreatedAt))
	})
}

func TestJob_DuplicateID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateJob(ctx, newJob("job-1", baseTime)))

		err := s.CreateJob(ctx, newJob("job-1", baseTime))
		assert.ErrorIs(t, err, store.ErrDuplicateKey)
	})
}

func TestJob_GetNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		_, err := s.GetJob(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.UpdateJob(context.Background(), "missing", func(*models.Job) error { return nil })
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestJob_UpdateRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateJob(ctx, newJob("job-1", baseTime)))

		claimed := baseTime.Add(time.Minute)
		stopped := baseTime.Add(40 * time.Minute)
		updated, err := s.UpdateJob(ctx, "job-1", func(j *models.Job) error {
			tech := "tech-1"
			j.Status = models.JobStatusInProgress
			j.AssignedTechnicianID = &tech
			j.ClaimedAt = &claimed
			j.RequiredTools = []models.ToolRequirement{
				{ID: "floor_jack", Name: "Floor jack", Required: true, Category: models.ToolCategoryLifting},
				{ID: "funnel", Name: "Funnel", Required: false, Category: models.ToolCategoryFluidHandling},
			}
			j.ToolsChecked["floor_jack"] = true
			j.WorkSessions = append(j.WorkSessions,
				models.WorkSession{Start: claimed, End: &stopped},
				models.WorkSession{Start: stopped.Add(time.Minute)},
			)
			j.Signature = &models.Signature{Artifact: "sig", CapturedAt: stopped, CapturedBy: "customer"}
			j.UpdatedAt = stopped
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusInProgress, updated.Status)

		got, err := s.GetJob(ctx, "job-1")
		require.NoError(t, err)
		require.NotNil(t, got.AssignedTechnicianID)
		assert.Equal(t, "tech-1", *got.AssignedTechnicianID)
		assert.Len(t, got.RequiredTools, 2)
		assert.Equal(t, "funnel", got.RequiredTools[1].ID)
		assert.True(t, got.ToolsChecked["floor_jack"])
		require.Len(t, got.WorkSessions, 2)
		require.NotNil(t, got.WorkSessions[0].End)
		assert.True(t, stopped.Equal(*got.WorkSessions[0].End))
		assert.True(t, got.WorkSessions[1].Open())
		require.NotNil(t, got.Signature)
		assert.Equal(t, "customer", got.Signature.CapturedBy)

		// closing the open session is persisted
		end := stopped.Add(10 * time.Minute)
		_, err = s.UpdateJob(ctx, "job-1", func(j *models.Job) error {
			j.WorkSessions[1].End = &end
			return nil
		})
		require.NoError(t, err)

		got, err = s.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, -1, got.ActiveSession())
	})
}

func TestJob_UpdateAbortAndNoChange(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateJob(ctx, newJob("job-1", baseTime)))

		boom := errors.New("boom")
		_, err := s.UpdateJob(ctx, "job-1", func(j *models.Job) error {
			j.Status = models.JobStatusQuoted
			return boom
		})
		assert.ErrorIs(t, err, boom)

		same, err := s.UpdateJob(ctx, "job-1", func(j *models.Job) error {
			j.Status = models.JobStatusQuoted
			return store.ErrNoChange
		})
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusPending, same.Status)

		got, err := s.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, models.JobStatusPending, got.Status)
	})
}

func TestJob_UpdateSerializesWriters(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateJob(ctx, newJob("job-1", baseTime)))

		const writers = 16
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.UpdateJob(ctx, "job-1", func(j *models.Job) error {
					j.ToolsChecked[fmt.Sprintf("tool-%02d", i)] = true
					return nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := s.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Len(t, got.ToolsChecked, writers)
	})
}

func TestJob_ListFilterAndPaginate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			job := newJob(fmt.Sprintf("job-%d", i), baseTime.Add(time.Duration(i)*time.Minute))
			if i%2 == 0 {
				tech := "tech-1"
				job.Status = models.JobStatusInProgress
				job.AssignedTechnicianID = &tech
			}
			require.NoError(t, s.CreateJob(ctx, job))
		}

		all, total, err := s.ListJobs(ctx, store.JobFilter{})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, all, 5)
		assert.Equal(t, "job-4", all[0].ID)
		assert.Equal(t, "job-0", all[4].ID)

		page, total, err := s.ListJobs(ctx, store.JobFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, page, 2)
		assert.Equal(t, "job-2", page[0].ID)

		mine, total, err := s.ListJobs(ctx, store.JobFilter{TechnicianID: "tech-1"})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, mine, 3)

		pending, total, err := s.ListJobs(ctx, store.JobFilter{Status: models.JobStatusPending})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, pending, 2)

		empty, total, err := s.ListJobs(ctx, store.JobFilter{Page: 9})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Empty(t, empty)
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.CreateJob(ctx, newJob("job-1", baseTime)))

	got, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	got.ToolsChecked["floor_jack"] = true
	got.Status = models.JobStatusCompleted

	again, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Empty(t, again.ToolsChecked)
	assert.Equal(t, models.JobStatusPending, again.Status)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, s.CreateJob(context.Background(), newJob("job-1", baseTime)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.UpdateJob(ctx, "job-1", func(*models.Job) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPostgres_OneOpenSessionIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool, _ := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()
	require.NoError(t, s.CreateJob(ctx, newJob("job-1", baseTime)))

	_, err := s.UpdateJob(ctx, "job-1", func(j *models.Job) error {
		j.WorkSessions = append(j.WorkSessions,
			models.WorkSession{Start: baseTime},
			models.WorkSession{Start: baseTime.Add(time.Minute)},
		)
		return nil
	})
	require.Error(t, err)

	got, err := s.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Empty(t, got.WorkSessions)
}

func TestMigrationVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	_, connStr := setupTestDB(t)

	version, dirty, err := store.MigrationVersion(connStr, migrationsDir())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// applying again is a no-op
	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))
}

func TestPing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s store.Store) {
		assert.NoError(t, s.Ping(context.Background()))
	})
}
