package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ruralcare/telehealth/internal/config"
	"github.com/ruralcare/telehealth/internal/domain/analysis"
	"github.com/ruralcare/telehealth/internal/domain/queue"
	"github.com/ruralcare/telehealth/internal/platform/cache"
	"github.com/ruralcare/telehealth/internal/platform/db"
	"github.com/ruralcare/telehealth/internal/platform/sandbox"
	"github.com/ruralcare/telehealth/migrations"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "telehealth-server",
		Short: "Rural telehealth triage API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the triage API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the read-model schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(cmd.Context(), dir, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withMigrator(cmd.Context(), dir, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				for _, s := range statuses {
					state, appliedAt := "pending", ""
					if s.Applied {
						state = "applied"
						if s.AppliedAt != nil {
							appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, state, appliedAt)
				}
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	defaults := sandbox.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load synthetic health centers, patients and analysis sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			seedCfg := defaults
			seedCfg.Centers, _ = flags.GetInt("centers")
			seedCfg.PatientsPerCenter, _ = flags.GetInt("patients")
			seedCfg.SessionsPerPatient, _ = flags.GetInt("sessions")
			seedCfg.WindowDays, _ = flags.GetInt("window-days")
			seedCfg.Seed, _ = flags.GetInt64("seed")
			if raw, _ := flags.GetString("specialist"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid --specialist: %w", err)
				}
				seedCfg.SpecialistID = id
			}

			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
				ds := sandbox.Generate(seedCfg, time.Now().UTC())
				if err := sandbox.Load(ctx, pool, ds); err != nil {
					return err
				}
				if seedCfg.SpecialistID != uuid.Nil {
					if err := invalidateAssignments(ctx, cfg, seedCfg.SpecialistID); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: cached assignments not cleared: %v\n", err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d center(s), %d patient(s), %d session(s).\n",
					len(ds.Centers), len(ds.Patients), len(ds.Sessions))
				return nil
			})
		},
	}
	cmd.Flags().Int("centers", defaults.Centers, "Number of health centers")
	cmd.Flags().Int("patients", defaults.PatientsPerCenter, "Patients per health center")
	cmd.Flags().Int("sessions", defaults.SessionsPerPatient, "Analysis sessions per patient")
	cmd.Flags().Int("window-days", defaults.WindowDays, "Spread session timestamps over this many trailing days")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().String("specialist", "", "Specialist UUID to assign to every seeded center")
	return cmd
}

func withMigrator(ctx context.Context, dir string, fn func(context.Context, *db.Migrator) error) error {
	var src fs.FS = migrations.FS
	if dir != "" {
		src = os.DirFS(dir)
	}
	return withPool(ctx, func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
		return fn(ctx, db.NewMigrator(pool, src))
	})
}

// invalidateAssignments drops the specialist's cached center list so newly
// seeded assignments show up in the next queue build.
func invalidateAssignments(ctx context.Context, cfg *config.Config, specialistID uuid.UUID) error {
	provider, err := cache.NewRedis(ctx, cfg.RedisURL, "telehealth")
	if err != nil {
		return err
	}
	defer provider.Close()
	return queue.InvalidateAssignments(ctx, provider, specialistID)
}

func withPool(ctx context.Context, fn func(context.Context, *config.Config, *pgxpool.Pool) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, cfg, pool)
}

func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("ENV=development: every API request runs as the development identity; never run this in production")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	provider, err := cache.NewRedis(ctx, cfg.RedisURL, "telehealth")
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, assignment cache disabled")
		provider = cache.NoopProvider{}
	}
	defer provider.Close()

	e, err := newServer(cfg, logger, deps{
		sessions: analysis.NewSessionRepoPG(pool),
		queue:    queue.NewCachedRepo(queue.NewRepoPG(pool), provider, cfg.AssignmentCacheTTL, logger),
		snapshot: db.Snapshots(pool),
		pinger:   pool,
		stats:    func() *db.PoolStats { return db.GetPoolStats(pool) },
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
