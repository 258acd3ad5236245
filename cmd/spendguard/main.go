package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/fbreton/spendguard/internal/document"
	"github.com/fbreton/spendguard/internal/report"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

const defaultSecret = "change-me-please"

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Best effort .env load into the environment the flags read from
	godotenv.Load()

	fs := ff.NewFlagSet("spendguard")
	var (
		port          = fs.IntLong("port", 8080, "HTTP server port")
		dbPath        = fs.StringLong("db", "spendguard.db", "Database file path")
		storagePath   = fs.StringLong("storage", "./data", "Storage directory path")
		secret        = fs.StringLong("secret", defaultSecret, "Application secret for signed report links")
		priceCents    = fs.IntLong("price-cents", 900, "Unlock price in minor currency units")
		priceCurrency = fs.StringLong("price-currency", "eur", "Unlock price currency code")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("SPENDGUARD"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *secret == defaultSecret {
		slog.Warn("Using the default application secret; set --secret or SPENDGUARD_SECRET in production")
	}

	currencyCode := strings.ToUpper(strings.TrimSpace(*priceCurrency))
	if money.GetCurrency(currencyCode) == nil {
		slog.Error("Unknown price currency", "currency", *priceCurrency)
		os.Exit(1)
	}
	price := money.New(int64(*priceCents), currencyCode)

	// Initialize database
	slog.Info("Initializing database...")
	db, err := report.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := report.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize text extraction
	extractor := document.NewPDFExtractor()
	defer extractor.Close()

	// Initialize service
	reportService := report.NewService(db, extractor, store, &report.ManualProvider{}, report.NewSigner(*secret), price)

	// Initialize server
	basicAuth := report.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := report.NewServer(reportService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version, "price", price.Display())
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
