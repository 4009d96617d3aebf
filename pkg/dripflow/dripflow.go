package dripflow

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dripware/dripflow/internal/catalog"
	"github.com/dripware/dripflow/internal/config"
	"github.com/dripware/dripflow/internal/controllers"
	"github.com/dripware/dripflow/internal/engine"
	"github.com/dripware/dripflow/internal/mailer"
	"github.com/dripware/dripflow/internal/migrations"
	"github.com/dripware/dripflow/internal/profile"
	"github.com/dripware/dripflow/internal/repository"
	"github.com/dripware/dripflow/internal/template"
	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lmittmann/tint"

	_ "github.com/go-sql-driver/mysql"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Options lets the embedding application swap out the workflow catalog, the
// message templates, the mail transport and the profile source. Every nil
// field falls back to the built-in default.
type Options struct {
	Mux       *http.ServeMux
	Workflows []*domain.WorkflowDefinition
	Templates []*domain.MessageTemplate
	Transport engine.Transport
	Profiles  engine.ProfileProvider
}

// Start boots the drip engine and HTTP server. The workflow catalog and the
// template registry are validated against each other before anything touches
// the database; a broken catalog fails fast. This call blocks until the HTTP
// server stops.
func Start(opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}

	workflows := opts.Workflows
	if workflows == nil {
		workflows = catalog.Builtin()
	}
	cat, err := catalog.New(workflows)
	if err != nil {
		slog.Error("Invalid workflow catalog", "error", err)
		return err
	}

	templates := opts.Templates
	if templates == nil {
		templates = template.Builtin()
	}
	registry, err := template.NewRegistry(templates)
	if err != nil {
		slog.Error("Invalid message templates", "error", err)
		return err
	}
	if err := registry.ValidateCatalog(cat.All()); err != nil {
		slog.Error("Catalog references missing templates", "error", err)
		return err
	}

	databaseType := config.GetSystemSettingString(config.DATABASE_TYPE)
	if databaseType == "" || (databaseType != config.DATABASE_TYPE_POSTGRES && databaseType != config.DATABASE_TYPE_MYSQL && databaseType != config.DATABASE_TYPE_SQLLITE) {
		panic("DRIP_DATABASE_TYPE must be set to one of the following values: POSTGRES, MYSQL, SQLLITE")
	}

	var db *sql.DB
	if databaseType == config.DATABASE_TYPE_POSTGRES {
		db = setupPostgresDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_SQLLITE {
		db = setupSqlLiteDatabase()
		defer db.Close()
	}
	if databaseType == config.DATABASE_TYPE_MYSQL {
		db = setupMysqlDatabase()
		defer db.Close()
	}

	clock := core.NewRealClock()
	subscriptionRepo := repository.NewSubscriptionRepository(db, clock)
	deliveryRepo := repository.NewDeliveryRepository(db, clock)
	engagementRepo := repository.NewEngagementRepository(db, clock)
	runnerRepo := repository.NewRunnerRepository(db)
	apiClientRepo := repository.NewApiClientRepository(db)

	transport := opts.Transport
	if transport == nil {
		transport = mailer.NewLogTransport()
	}
	profiles := opts.Profiles
	if profiles == nil {
		profiles = profile.NewStatic()
	}

	scorer := engine.NewScorer(engagementRepo, clock)
	evaluator := engine.NewEvaluator(profiles, scorer)
	processor := engine.NewStepProcessor(cat, subscriptionRepo, deliveryRepo, engagementRepo,
		profiles, evaluator, transport, registry, clock)
	enrollment := engine.NewEnrollmentManager(cat, subscriptionRepo, profiles, evaluator, processor, clock)
	scheduler := engine.NewScheduler(subscriptionRepo, runnerRepo, processor, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := scheduler.Start(ctx); err != nil {
			slog.Error("Scheduler exited with error", "error", err)
		}
	}()

	mux := opts.Mux
	if mux == nil {
		mux = http.NewServeMux()
	}
	triggersController := controllers.NewTriggersController(enrollment, apiClientRepo)
	triggersController.RegisterRoutes(mux)
	subscriptionsController := controllers.NewSubscriptionsController(subscriptionRepo, deliveryRepo, scheduler, apiClientRepo)
	subscriptionsController.RegisterRoutes(mux)
	eventsController := controllers.NewEventsController(engagementRepo, scorer, clock, apiClientRepo)
	eventsController.RegisterRoutes(mux)
	workflowsController := controllers.NewWorkflowsController(cat, apiClientRepo)
	workflowsController.RegisterRoutes(mux)
	engineController := controllers.NewEngineController(scheduler, runnerRepo, apiClientRepo)
	engineController.RegisterRoutes(mux)

	addr := ":" + config.GetSystemSettingString(config.ENGINE_SERVER_WEB_PORT)
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		addr = v
	}
	slog.Info("Starting HTTP server", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("HTTP server failed", "error", err)
		return err
	}
	return nil
}

func setupPostgresDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("DRIP_DATABASE_URL must be set when using the POSTGRES database type")
	}
	slog.Info("Using Postgres database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("postgres", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening Postgres database")
	dbPostgres, err := sql.Open("postgres", dbURL)
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbPostgres
}

func setupSqlLiteDatabase() *sql.DB {
	fileName := config.GetSystemSettingString(config.DATABASE_SQLLITE_FILE_NAME)
	if fileName == "" {
		panic("DRIP_DATABASE_SQLLITE_FILE_NAME must be set")
	}
	dbURL := "sqlite3://" + fileName
	slog.Info("Using SQLite database", "file", fileName)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("sqllite3", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening SQLite database")
	dbSqlLite, err := sql.Open("sqlite3", fileName)
	if err != nil {
		log.Fatalf("Failed to open SQLite DB: %v", err)
	}
	if err := dbSqlLite.Ping(); err != nil {
		log.Fatalf("Failed to ping SQLite DB: %v", err)
	}
	return dbSqlLite
}

func setupMysqlDatabase() *sql.DB {
	dbURL := config.GetSystemSettingString(config.DATABASE_URL)
	if dbURL == "" {
		panic("DRIP_DATABASE_URL must be set when using the MYSQL database type")
	}
	if !strings.Contains(dbURL, "parseTime=true") {
		panic("DRIP_DATABASE_URL must contain 'parseTime=true' for MySQL")
	}
	if !strings.HasPrefix(dbURL, "mysql://") {
		panic("DRIP_DATABASE_URL must start with 'mysql://' for MySQL")
	}

	slog.Info("Using MySQL database", "url", dbURL)
	slog.Info("Running migrations")
	if err := runMigrationsFromEmbed("mysql", dbURL); err != nil {
		slog.Error("DB migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Opening MySQL database")
	dbMysql, err := sql.Open("mysql", strings.Replace(dbURL, "mysql://", "", 1))
	if err != nil {
		slog.Error("DB connection failed", "error", err)
		os.Exit(1)
	}
	return dbMysql
}

func runMigrationsFromEmbed(migrationsPath string, dbURL string) error {
	sub, err := fs.Sub(migrations.FS, migrationsPath)
	if err != nil {
		return err
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func SetupLogger() {
	w := os.Stderr
	_ = slog.New(tint.NewHandler(w, nil))
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.RFC3339Nano,
		}),
	))
}
