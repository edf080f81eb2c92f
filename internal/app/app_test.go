package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/tryon/internal/adapters/providers/avaturn"
	"github.com/phenrril/tryon/internal/adapters/providers/fixture"
	"github.com/phenrril/tryon/internal/adapters/providers/llmsizer"
	"github.com/phenrril/tryon/internal/adapters/repo/postgres"
	"github.com/phenrril/tryon/internal/config"
	"github.com/phenrril/tryon/internal/domain"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := map[string]string{
		"STORAGE_DIR":    t.TempDir(),
		"ASSETS_DIR":     t.TempDir(),
		"FIXTURE_DELAY":  "0",
		"RATE_LIMIT_RPS": "0",
		"SESSION_KEY":    "k",
	}
	for k, v := range env {
		base[k] = v
	}
	return config.FromEnv(func(k string) string { return base[k] })
}

func TestNewApp_InMemory(t *testing.T) {
	ctx := context.Background()
	a, err := NewApp(ctx, testConfig(t, nil), nil)
	require.NoError(t, err)
	require.NoError(t, a.MigrateAndSeed(ctx))

	items, err := a.CatalogUC.List(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, items)

	h := a.HTTPHandler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	closeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	a.Close(closeCtx)
}

func TestNewApp_Database(t *testing.T) {
	ctx := context.Background()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	a, err := NewApp(ctx, testConfig(t, nil), db)
	require.NoError(t, err)
	require.NoError(t, a.MigrateAndSeed(ctx))

	n, err := postgres.NewCatalogRepo(db).Count(ctx)
	require.NoError(t, err)
	assert.Positive(t, n)

	// a job left processing by a previous process is failed on the next start
	jobs := postgres.NewTryOnJobRepo(db)
	require.NoError(t, jobs.Create(ctx, &domain.TryOnJob{RequestID: "tryon-1-zzzzzzzz", Status: domain.JobStatusProcessing}))
	require.NoError(t, a.MigrateAndSeed(ctx))
	j, err := jobs.FindByRequestID(ctx, "tryon-1-zzzzzzzz")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, j.Status)

	again, err := postgres.NewCatalogRepo(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, again)
}

func TestProviders(t *testing.T) {
	av, fit, sz := providers(testConfig(t, nil))
	assert.IsType(t, &fixture.Avatars{}, av)
	assert.IsType(t, &fixture.Fitter{}, fit)
	assert.IsType(t, &fixture.Sizer{}, sz)

	av, _, sz = providers(testConfig(t, map[string]string{"AVATURN_API_KEY": "a", "OPENAI_API_KEY": "o"}))
	assert.IsType(t, &avaturn.Gateway{}, av)
	assert.IsType(t, &llmsizer.Sizer{}, sz)
}
