package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/company"
	companyStore "github.com/MrJamesThe3rd/bonsai/internal/company/store"
	"github.com/MrJamesThe3rd/bonsai/internal/config"
	"github.com/MrJamesThe3rd/bonsai/internal/database"
	"github.com/MrJamesThe3rd/bonsai/internal/emissions"
	"github.com/MrJamesThe3rd/bonsai/internal/export"
	bonsaiHttp "github.com/MrJamesThe3rd/bonsai/internal/http"
	authHandler "github.com/MrJamesThe3rd/bonsai/internal/http/auth"
	companyHandler "github.com/MrJamesThe3rd/bonsai/internal/http/company"
	exportHandler "github.com/MrJamesThe3rd/bonsai/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/bonsai/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/bonsai/internal/http/matching"
	receiptHandler "github.com/MrJamesThe3rd/bonsai/internal/http/receipt"
	txHandler "github.com/MrJamesThe3rd/bonsai/internal/http/transaction"
	userHandler "github.com/MrJamesThe3rd/bonsai/internal/http/user"
	"github.com/MrJamesThe3rd/bonsai/internal/importer"
	"github.com/MrJamesThe3rd/bonsai/internal/leaderboard"
	"github.com/MrJamesThe3rd/bonsai/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/bonsai/internal/matching/store"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt/archive"
	"github.com/MrJamesThe3rd/bonsai/internal/receipt/vision"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
	txStore "github.com/MrJamesThe3rd/bonsai/internal/transaction/store"
	"github.com/MrJamesThe3rd/bonsai/internal/user"
	userStore "github.com/MrJamesThe3rd/bonsai/internal/user/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	defaultBaseline, err := emissions.ParseBaseline(cfg.Emissions.DefaultBaseline)
	if err != nil {
		return fmt.Errorf("DEFAULT_BASELINE: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString(), database.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	analyzer, err := vision.New(ctx, vision.Config{
		Provider:  cfg.Vision.Provider,
		OpenAIKey: cfg.Vision.OpenAIKey,
		GeminiKey: cfg.Vision.GeminiKey,
		Model:     cfg.Vision.Model,
		BaseURL:   cfg.Vision.BaseURL,
		Timeout:   cfg.Vision.Timeout,
	})
	if err != nil {
		return fmt.Errorf("configuring receipt analysis: %w", err)
	}

	if _, disabled := analyzer.(vision.Disabled); disabled {
		slog.Warn("receipt analysis disabled: no API key for provider", "provider", cfg.Vision.Provider)
	}

	var receipts archive.Store = archive.Nop{}

	if cfg.Storage.ReceiptBucket != "" {
		gcs, err := archive.NewGCS(ctx, cfg.Storage.ReceiptBucket)
		if err != nil {
			return fmt.Errorf("opening receipt bucket: %w", err)
		}
		defer gcs.Close()

		receipts = gcs
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var (
		companyService     = company.NewService(companyStore.New(db))
		userService        = user.NewService(userStore.New(db), companyService)
		transactionService = transaction.NewService(txStore.New(db), userService)
		leaderboardService = leaderboard.NewService(companyService, transactionService)
		matchingService    = matching.NewService(matchingStore.New(db))
		importService      = importer.NewService(matchingService)
		exportService      = export.NewService(leaderboardService, transactionService)
	)

	maxUpload := cfg.Server.MaxUploadMB << 20

	router := bonsaiHttp.New(
		bonsaiHttp.Options{
			Timeout:      cfg.Server.Timeout,
			CORSOrigins:  cfg.Server.CORSOrigins,
			Authenticate: issuer.Middleware,
		},
		bonsaiHttp.Handlers{
			Auth:         authHandler.NewHandler(userService, issuer),
			Users:        userHandler.NewHandler(userService, leaderboardService, defaultBaseline),
			Transactions: txHandler.NewHandler(transactionService),
			Receipts:     receiptHandler.NewHandler(analyzer, receipts, transactionService, maxUpload),
			Companies:    companyHandler.NewHandler(companyService, leaderboardService, defaultBaseline),
			Import:       importHandler.NewHandler(importService, transactionService, maxUpload),
			Matching:     matchingHandler.NewHandler(matchingService),
			Export:       exportHandler.NewHandler(exportService, defaultBaseline),
		},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
