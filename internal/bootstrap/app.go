package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/school_management/internal/config"
	"github.com/locvowork/school_management/internal/database"
	"github.com/locvowork/school_management/internal/domain"
	"github.com/locvowork/school_management/internal/handler"
	"github.com/locvowork/school_management/internal/logger"
	"github.com/locvowork/school_management/internal/repository"
	"github.com/locvowork/school_management/internal/service"
	"github.com/locvowork/school_management/internal/view"
)

type App struct {
	Echo     *echo.Echo
	DB       *sql.DB
	Config   *config.EnvConfig
	DBConfig database.Config
	Provider *database.Provider
	Search   *database.ElasticSearchClient
	Teachers *service.TeacherService
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	return &App{Echo: e}
}

// Initialize loads configuration, opens the store and wires the handlers.
func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitializeStore(ctx); err != nil {
		return err
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	a.Echo.Renderer = renderer
	a.Echo.Validator = handler.NewRequestValidator()

	a.RegisterMiddlewares()
	a.RegisterRoutes(handler.NewTeacherHandler(a.Teachers), handler.NewTeacherPageHandler(a.Teachers))
	return nil
}

// InitializeStore does everything Initialize does short of HTTP wiring. The
// seeder CLI uses it on its own.
func (a *App) InitializeStore(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	a.Config = cfg

	logger.InitLogging(logger.Options{
		Level:      cfg.LOG_LEVEL,
		FilePath:   cfg.LOG_FILE_PATH,
		MaxSizeMB:  cfg.LOG_MAX_SIZE_MB,
		MaxBackups: cfg.LOG_MAX_BACKUPS,
		MaxAgeDays: cfg.LOG_MAX_AGE_DAYS,
	})
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	a.DBConfig = database.ConfigFromEnv(cfg)
	db, err := database.Open(ctx, a.DBConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db

	if cfg.DB_AUTO_MIGRATE {
		if err := database.Migrate(ctx, db, a.DBConfig.Dialect()); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	a.Provider = database.NewProvider(db, a.DBConfig)
	repo := repository.NewTeacherRepository(a.Provider)

	var index domain.TeacherIndex
	if cfg.ELASTIC_URL != "" {
		es, err := database.NewElasticSearchClient(cfg.ELASTIC_URL, cfg.ELASTIC_INDEX)
		if err != nil {
			logger.WarnLog(ctx, "search index disabled: %v", err)
		} else {
			if err := es.EnsureIndex(ctx); err != nil {
				logger.WarnLog(ctx, "failed to ensure search index %s: %v", cfg.ELASTIC_INDEX, err)
			}
			a.Search = es
			index = es
		}
	}

	layout, err := loadExportLayout(cfg.EXPORT_CONFIG_PATH)
	if err != nil {
		return err
	}
	a.Teachers = service.NewTeacherService(repo, index, layout)
	return nil
}

func loadExportLayout(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read export layout: %w", err)
	}
	return string(raw), nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	a.Echo.Use(requestLogger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

// requestLogger attaches a request scoped logger to the context and logs
// one line per request.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := logger.WithLogger(req.Context(), map[string]interface{}{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"method":     req.Method,
				"path":       req.URL.Path,
			})
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.InfoLog(ctx, "%d %s", c.Response().Status, http.StatusText(c.Response().Status))
			return nil
		}
	}
}

func (a *App) RegisterRoutes(api *handler.TeacherHandler, pages *handler.TeacherPageHandler) {
	a.Echo.GET("/healthz", a.HealthHandler)
	api.Register(a.Echo)
	pages.Register(a.Echo)
}

// HealthHandler pings the store.
func (a *App) HealthHandler(c echo.Context) error {
	if err := a.Provider.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) Run() error {
	defer a.Close()
	return a.Echo.Start(":" + a.Config.APP_PORT)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
