package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ads_migrator/config"
	"ads_migrator/logging"
	"ads_migrator/migrator"
	"ads_migrator/models"
	"ads_migrator/scheduler"
	"ads_migrator/storage"
)

var (
	migrateNow = flag.Bool("migrate", false, "Run the migration once and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting ads_migrator...")
	log.Printf("Migrating %s -> %s (batch %d, fetch policy %s, skip existing %v)",
		cfg.Migration.SourceTable, cfg.Migration.DestTable,
		cfg.Migration.BatchSize, cfg.Migration.FetchPolicy, cfg.Migration.SkipExisting)

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s backend: %v", cfg.Backend, err)
	}
	defer closeStore()

	runStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open run history database: %v", err)
	}
	defer runStore.Close()
	log.Printf("Run history database: %s", cfg.DBPath)

	runOnce := func(ctx context.Context) error {
		return runMigration(ctx, cfg, store, runStore)
	}

	if *migrateNow {
		if err := runOnce(ctx); err != nil {
			log.Printf("Migration finished with errors: %v", err)
			os.Exit(1)
		}
		log.Println("Migration complete!")
		return
	}

	// Daemon mode
	sched := scheduler.New(cfg, runOnce)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

// runMigration executes one full pass over the source table, recording the
// run and its batch errors in the history database. The returned error is
// non-nil when the run aborted or any batch went unrecovered, which maps to
// the non-zero exit in one-shot mode.
func runMigration(ctx context.Context, cfg *config.Config, store storage.AdStore, runStore *storage.SQLiteStore) error {
	run := &models.MigrationRun{
		Backend:   cfg.Backend,
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := runStore.CreateRun(run); err != nil {
		log.Printf("Warning: could not record run: %v", err)
	}

	m := migrator.New(store, migrator.Options{
		BatchSize:        cfg.Migration.BatchSize,
		FetchPolicy:      migrator.FetchPolicy(cfg.Migration.FetchPolicy),
		SkipExisting:     cfg.Migration.SkipExisting,
		MaxRetries:       cfg.Migration.MaxRetries,
		RetryDelay:       time.Duration(cfg.Migration.RetryDelayMS) * time.Millisecond,
		MaxFetchFailures: cfg.Migration.MaxFetchFailures,
		OnProgress: func(p migrator.Progress) {
			log.Printf("Migrated %d/%d (%.1f%%) upserted=%d skipped=%d errors=%d %.0f rows/s",
				p.Processed, p.Total, p.Percent(), p.Upserted, p.Skipped, p.Errors, p.Rate())
		},
		OnBatchError: func(lastID int64, err error) {
			if logErr := runStore.AppendLog(run.ID, "error", fmt.Sprintf("batch at id %d: %v", lastID, err)); logErr != nil {
				log.Printf("Warning: could not record batch error: %v", logErr)
			}
		},
	})

	summary, runErr := m.Run(ctx)

	now := time.Now()
	run.FinishedAt = &now
	run.TotalRows = summary.Total
	run.Processed = summary.Processed
	run.Upserted = summary.Upserted
	run.Skipped = summary.Skipped
	run.ErrorsCount = summary.Errors

	switch {
	case runErr != nil:
		run.Status = models.RunStatusFailed
		run.ErrorMessage = runErr.Error()
	case summary.Errors > 0:
		run.Status = models.RunStatusPartial
	default:
		run.Status = models.RunStatusCompleted
	}
	if err := runStore.FinishRun(run); err != nil {
		log.Printf("Warning: could not finalize run record: %v", err)
	}

	log.Printf("Run %s %s: processed=%d upserted=%d skipped=%d errors=%d in %s",
		run.ID, run.Status, summary.Processed, summary.Upserted, summary.Skipped,
		summary.Errors, summary.Elapsed.Round(time.Second))

	if runErr != nil {
		return runErr
	}
	if summary.Errors > 0 {
		return fmt.Errorf("%d batches went unrecovered", summary.Errors)
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.AdStore, func(), error) {
	switch cfg.Backend {
	case "supabase":
		s := storage.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey,
			cfg.Migration.SourceTable, cfg.Migration.DestTable)
		log.Printf("Using Supabase REST backend: %s", cfg.Supabase.URL)
		return s, func() {}, nil
	default:
		pg, err := storage.NewPostgresStore(ctx, cfg.Database.URL,
			cfg.Migration.SourceTable, cfg.Migration.DestTable)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Database.URL))
		return pg, pg.Close, nil
	}
}

// maskConnectionString hides the password portion of a URL-style connection
// string for logging.
func maskConnectionString(connStr string) string {
	schemeEnd := strings.Index(connStr, "://")
	if schemeEnd < 0 {
		return connStr
	}

	rest := connStr[schemeEnd+3:]
	at := strings.Index(rest, "@")
	if at < 0 {
		return connStr
	}

	colon := strings.Index(rest[:at], ":")
	if colon < 0 {
		return connStr
	}

	return connStr[:schemeEnd+3] + rest[:colon+1] + "****" + rest[at:]
}
