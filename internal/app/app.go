package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/tryon/internal/adapters/assets"
	"github.com/phenrril/tryon/internal/adapters/catalog"
	"github.com/phenrril/tryon/internal/adapters/httpserver"
	"github.com/phenrril/tryon/internal/adapters/notify"
	"github.com/phenrril/tryon/internal/adapters/providers/avaturn"
	"github.com/phenrril/tryon/internal/adapters/providers/fashn"
	"github.com/phenrril/tryon/internal/adapters/providers/fixture"
	"github.com/phenrril/tryon/internal/adapters/providers/llmsizer"
	"github.com/phenrril/tryon/internal/adapters/providers/sizer"
	"github.com/phenrril/tryon/internal/adapters/repo/memory"
	"github.com/phenrril/tryon/internal/adapters/repo/postgres"
	"github.com/phenrril/tryon/internal/adapters/scraper"
	"github.com/phenrril/tryon/internal/adapters/session"
	"github.com/phenrril/tryon/internal/adapters/storage/localfs"
	"github.com/phenrril/tryon/internal/config"
	"github.com/phenrril/tryon/internal/domain"
	"github.com/phenrril/tryon/internal/metrics"
	"github.com/phenrril/tryon/internal/placement"
	"github.com/phenrril/tryon/internal/pose"
	"github.com/phenrril/tryon/internal/render"
	"github.com/phenrril/tryon/internal/scene"
	"github.com/phenrril/tryon/internal/usecase"
)

type App struct {
	Cfg     *config.Config
	DB      *gorm.DB
	Storage domain.FileStorage
	Metrics *metrics.Collector

	CatalogUC *usecase.CatalogUC
	AvatarUC  *usecase.AvatarUC
	OverlayUC *usecase.OverlayUC
	TryOnUC   *usecase.TryOnUC
	SizingUC  *usecase.SizingUC
	SessionUC *usecase.SessionUC
	SceneUC   *usecase.SceneUC

	catalogRepo domain.CatalogRepo
	sessions    domain.SessionStore
}

// NewApp wires the service. db may be nil, in which case jobs and the
// catalog live in memory.
func NewApp(ctx context.Context, cfg *config.Config, db *gorm.DB) (*App, error) {
	_ = os.MkdirAll(cfg.StorageDir, 0755)
	storage := localfs.New(cfg.StorageDir)
	resolver := assets.NewResolver(cfg.AssetsDir)

	var jobs domain.TryOnJobRepo = memory.NewTryOnJobRepo()
	var catalogRepo domain.CatalogRepo
	if db != nil {
		jobs = postgres.NewTryOnJobRepo(db)
		catalogRepo = postgres.NewCatalogRepo(db)
	} else {
		repo, err := catalog.NewSeeded()
		if err != nil {
			return nil, err
		}
		catalogRepo = repo
	}

	var sessions domain.SessionStore
	if cfg.RedisAddr != "" {
		rs, err := session.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		sessions = rs
	} else {
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	avatars, fitter, sizeEstimator := providers(cfg)
	collector := metrics.NewCollector("tryon")

	catalogUC := &usecase.CatalogUC{Items: catalogRepo}
	sizingUC := &usecase.SizingUC{Sizer: sizeEstimator}

	if cfg.SessionKey == "" {
		log.Warn().Msg("SESSION_KEY not set; cookies and callbacks use an insecure key")
	}

	a := &App{
		Cfg:       cfg,
		DB:        db,
		Storage:   storage,
		Metrics:   collector,
		CatalogUC: catalogUC,
		AvatarUC:  &usecase.AvatarUC{Avatars: avatars},
		OverlayUC: &usecase.OverlayUC{
			Estimator:     pose.NewProportionalEstimator(),
			Engine:        placement.NewEngine(),
			Compositor:    render.NewCompositor(resolver),
			Storage:       storage,
			Catalog:       catalogUC,
			PublicBaseURL: cfg.PublicBaseURL,
			MaxPixels:     cfg.MaxImagePixels,
		},
		TryOnUC: &usecase.TryOnUC{
			Jobs:     jobs,
			Images:   scraper.NewImageScraper(cfg.MaxUploadBytes()),
			Avatars:  avatars,
			Fitter:   fitter,
			Sizing:   sizingUC,
			Catalog:  catalogUC,
			Notifier: notify.NewWebhook(cfg.SessionKey, 0),
			Observer: collector,
			Timeout:  cfg.JobTimeout,
		},
		SizingUC:  sizingUC,
		SessionUC: &usecase.SessionUC{Store: sessions},
		SceneUC: &usecase.SceneUC{
			Composer: scene.NewComposer(resolver, scene.Options{}),
			Catalog:  catalogUC,
			Guard:    scene.NewGuard(),
		},
		catalogRepo: catalogRepo,
		sessions:    sessions,
	}
	return a, nil
}

// providers picks the upstream services. Each one without credentials falls
// back to the fixture. Size estimation uses the LLM estimator when only an
// OpenAI key is configured.
func providers(cfg *config.Config) (domain.AvatarGenerator, domain.ClothingFitter, domain.SizeEstimator) {
	var (
		avatars domain.AvatarGenerator = fixture.NewAvatars(cfg.FixtureDelay)
		fitter  domain.ClothingFitter  = fixture.NewFitter(cfg.FixtureDelay)
		sizes   domain.SizeEstimator   = fixture.NewSizer(cfg.FixtureDelay)
	)
	if cfg.Avaturn.Token != "" {
		avatars = avaturn.NewGateway(cfg.Avaturn.Token, cfg.Avaturn.BaseURL)
	}
	if cfg.Fashn.Token != "" {
		fitter = fashn.NewGateway(cfg.Fashn.Token, cfg.Fashn.BaseURL)
	}
	switch {
	case cfg.Sizer.Token != "":
		sizes = sizer.NewGateway(cfg.Sizer.Token, cfg.Sizer.BaseURL)
	case cfg.OpenAIKey != "":
		sizes = llmsizer.New(cfg.OpenAIKey, cfg.OpenAIModel, "")
	}
	log.Info().
		Bool("avaturn", cfg.Avaturn.Token != "").
		Bool("fashn", cfg.Fashn.Token != "").
		Bool("sizer", cfg.Sizer.Token != "").
		Bool("llm_sizer", cfg.Sizer.Token == "" && cfg.OpenAIKey != "").
		Msg("providers configured")
	return avatars, fitter, sizes
}

// MigrateAndSeed prepares the database, seeds an empty catalog, imports the
// optional spreadsheet and fails jobs left processing by a previous run.
func (a *App) MigrateAndSeed(ctx context.Context) error {
	if a.DB != nil {
		if err := postgres.Migrate(a.DB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		repo := a.catalogRepo.(*postgres.CatalogRepo)
		n, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			items, err := catalog.Seed()
			if err != nil {
				return err
			}
			created, err := repo.Upsert(ctx, items...)
			if err != nil {
				return fmt.Errorf("seed catalog: %w", err)
			}
			log.Info().Int("items", created).Msg("catalog seeded")
		}
	}

	if a.Cfg.CatalogXLSX != "" {
		sink, ok := a.catalogRepo.(catalog.Sink)
		if !ok {
			return fmt.Errorf("catalog store does not accept imports")
		}
		if _, err := catalog.ImportXLSXFile(ctx, sink, a.Cfg.CatalogXLSX); err != nil {
			return fmt.Errorf("import %s: %w", a.Cfg.CatalogXLSX, err)
		}
	}

	n, err := a.TryOnUC.FailOrphaned(ctx)
	if err != nil {
		return fmt.Errorf("fail orphaned jobs: %w", err)
	}
	if n > 0 {
		log.Warn().Int("jobs", n).Msg("marked interrupted try-on jobs as failed")
	}
	return nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Options{
		Catalog:        a.CatalogUC,
		Avatars:        a.AvatarUC,
		Overlay:        a.OverlayUC,
		TryOn:          a.TryOnUC,
		Sizing:         a.SizingUC,
		Sessions:       a.SessionUC,
		Scene:          a.SceneUC,
		Storage:        a.Storage,
		Metrics:        a.Metrics,
		AssetsDir:      a.Cfg.AssetsDir,
		SessionKey:     a.Cfg.SessionKey,
		SessionTTL:     a.Cfg.SessionTTL,
		SecureCookies:  a.Cfg.Production(),
		MaxUploadBytes: a.Cfg.MaxUploadBytes(),
		RateLimitRPS:   a.Cfg.RateLimitRPS,
	})
}

// Close waits for in-flight try-on jobs (bounded by ctx) and releases the
// session store.
func (a *App) Close(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		a.TryOnUC.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Msg("try-on jobs still running at shutdown")
	}
	if c, ok := a.sessions.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close session store")
		}
	}
}
