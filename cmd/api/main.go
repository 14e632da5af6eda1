package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kubryk/vegetables-shop/internal/catalog"
	"github.com/kubryk/vegetables-shop/internal/data"
	"github.com/kubryk/vegetables-shop/internal/mailer"
	"github.com/kubryk/vegetables-shop/internal/report"
	"github.com/kubryk/vegetables-shop/internal/sheets"
	_ "github.com/lib/pq"
	"github.com/spf13/cast"
	"golang.org/x/crypto/bcrypt"
)

const version = "v1.0.0"

// Catalog sources.
const (
	sourceLocal       = "local"
	sourceFakturownia = "fakturownia"
)

// Server configuration settings
type config struct {
	port int
	env  string
	db   struct {
		dsn          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
	}
	cors struct {
		trustedOrigins []string
	}
	rateLimit struct {
		rps     float64
		burst   int
		enabled bool
	}
	dashboard struct {
		user     string
		password string
	}
	sheets struct {
		spreadsheetID   string
		ordersSheet     string
		credentialsFile string
		timeout         time.Duration
	}
	catalog struct {
		source  string
		account string
		apiKey  string
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	preferredProducts []string
}

type app struct {
	config    config
	logger    *slog.Logger
	models    data.Models
	catalog   productCatalog
	sheets    spreadsheet
	mailer    notifier
	exporter  *report.Exporter
	adminHash []byte
	wg        sync.WaitGroup
}

func main() {
	cfg := loadConfig()

	logger := setupLogger(cfg)

	db, err := openDB(cfg)
	if err != nil {
		logger.Error("Error opening database connection", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("Database connection pool established")

	app, err := newApp(cfg, logger, data.NewModels(db))
	if err != nil {
		logger.Error("Error configuring application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = app.serve()
	if err != nil {
		logger.Error("Error starting server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newApp wires the optional integrations. A missing integration is logged
// and left nil; the endpoints that need it report it as not configured.
func newApp(cfg config, logger *slog.Logger, models data.Models) (*app, error) {
	a := &app{
		config: cfg,
		logger: logger,
		models: models,
	}

	if cfg.dashboard.password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.dashboard.password), 12)
		if err != nil {
			return nil, err
		}
		a.adminHash = hash
	} else {
		logger.Warn("dashboard password is not set, admin endpoints are locked")
	}

	switch cfg.catalog.source {
	case sourceFakturownia:
		client, err := catalog.New(catalog.Config{
			Account: cfg.catalog.account,
			APIKey:  cfg.catalog.apiKey,
		}, models.ProductMetadata, logger)
		if err != nil {
			return nil, err
		}
		a.catalog = client
	default:
		a.catalog = models.Products
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := sheets.NewClient(ctx, sheets.Config{
		ServiceAccountKeyPath: cfg.sheets.credentialsFile,
		SpreadsheetID:         cfg.sheets.spreadsheetID,
		OrdersSheet:           cfg.sheets.ordersSheet,
	})
	switch {
	case errors.Is(err, report.ErrNotConfigured):
		logger.Warn("Google Sheets export is disabled")
	case err != nil:
		logger.Error("Google Sheets client", slog.String("error", err.Error()))
	default:
		a.sheets = client
		logger.Info("Google Sheets client ready", slog.String("spreadsheet", cfg.sheets.spreadsheetID))
	}

	if cfg.smtp.host != "" {
		a.mailer = mailer.New(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender)
	}

	a.exporter = &report.Exporter{
		Orders:   models.Orders,
		Products: a.catalog,
		Timeout:  cfg.sheets.timeout,
		Logger:   logger,
	}

	return a, nil
}

func loadConfig() config {
	var cfg config

	// Every flag falls back to the environment variable of the same setting.
	flag.IntVar(&cfg.port, "port", cast.ToInt(envOr("PORT", "4000")), "API server port")
	flag.StringVar(&cfg.env, "env", envOr("APP_ENV", "development"), "Environment (development|staging|production)")

	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL database connection string")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.db.maxIdleConns, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max connection idle time")

	flag.Float64Var(&cfg.rateLimit.rps, "rate-limit-rps", 5, "Requests per second")
	flag.IntVar(&cfg.rateLimit.burst, "rate-limit-burst", 10, "Burst limit")
	flag.BoolVar(&cfg.rateLimit.enabled, "rate-limit-enabled", false, "Enable rate limiting")

	flag.StringVar(&cfg.dashboard.user, "dashboard-user", envOr("DASHBOARD_USER", "admin"), "Dashboard Basic-Auth user")
	flag.StringVar(&cfg.dashboard.password, "dashboard-password", os.Getenv("DASHBOARD_PASSWORD"), "Dashboard Basic-Auth password")

	flag.StringVar(&cfg.sheets.spreadsheetID, "sheets-spreadsheet-id", os.Getenv("GOOGLE_SHEET_ORDERS_ID"), "Google spreadsheet id")
	flag.StringVar(&cfg.sheets.ordersSheet, "sheets-orders-sheet", envOr("GOOGLE_SHEET_ORDERS_NAME", sheets.DefaultOrdersSheet), "Tab that checkout rows are appended to")
	flag.StringVar(&cfg.sheets.credentialsFile, "sheets-credentials", os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"), "Service account key file")
	flag.DurationVar(&cfg.sheets.timeout, "sheets-timeout", report.DefaultTimeout, "Timeout for writing one report")

	flag.StringVar(&cfg.catalog.source, "catalog-source", envOr("CATALOG_SOURCE", sourceLocal), "Product catalog (local|fakturownia)")
	flag.StringVar(&cfg.catalog.account, "fakturownia-account", os.Getenv("FAKTUROWNIA_USERNAME"), "Fakturownia account name")
	flag.StringVar(&cfg.catalog.apiKey, "fakturownia-api-key", os.Getenv("FAKTUROWNIA_API_KEY"), "Fakturownia API token")

	flag.StringVar(&cfg.smtp.host, "smtp-host", os.Getenv("SMTP_HOST"), "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", cast.ToInt(envOr("SMTP_PORT", "587")), "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", os.Getenv("SMTP_USERNAME"), "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", os.Getenv("SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", envOr("SMTP_SENDER", "Vegetables Shop <no-reply@example.com>"), "SMTP sender")

	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		cfg.cors.trustedOrigins = strings.Fields(val)
		return nil
	})
	flag.Func("preferred-products", "Comma separated product names shown first on the dashboard", func(val string) error {
		cfg.preferredProducts = splitList(val)
		return nil
	})
	flag.Parse()

	if len(cfg.preferredProducts) == 0 {
		cfg.preferredProducts = splitList(os.Getenv("PREFERRED_PRODUCTS"))
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setupLogger(cfg config) *slog.Logger {
	var logger *slog.Logger
	logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	// Output loaded configuration settings
	logger.Info("Starting server",
		slog.String("version", version),
		slog.String("env", cfg.env),
		slog.Int("port", cfg.port),
		slog.String("catalog", cfg.catalog.source),
		slog.Bool("sheets", cfg.sheets.spreadsheetID != ""),
		slog.Float64("rateLimitRPS", cfg.rateLimit.rps),
		slog.Int("rateLimitBurst", cfg.rateLimit.burst),
		slog.Bool("rateLimitEnabled", cfg.rateLimit.enabled),
	)

	return logger
}

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConns)
	db.SetMaxIdleConns(cfg.db.maxIdleConns)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
