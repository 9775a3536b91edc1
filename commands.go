package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gridDashboard/internal/database"
	"gridDashboard/internal/logging"
)

type VersionInfo struct {
	Version string
	Commit  string
}

// NewRootCommand builds the gridboard command tree. Every subcommand reads
// its settings from one viper instance populated before it runs.
func NewRootCommand(info VersionInfo) *cobra.Command {
	var path string
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "gridboard",
		Short:         "Server-side data grid dashboard",
		Long:          "Serves paged, sorted and filtered invoice and order grids with saved views per grid.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, path)
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is ./gridboard.yaml)")
	cmd.PersistentFlags().String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	cmd.AddCommand(newServeCommand(v))
	cmd.AddCommand(newMigrateCommand(v))
	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newVersionCommand(info))

	return cmd
}

func newLogger(cfg *Config) *logging.Logger {
	return logging.New(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		Rotation: logging.RotationConfig{
			MaxSize:    cfg.Log.Rotation.MaxSize,
			MaxBackups: cfg.Log.Rotation.MaxBackups,
			MaxAge:     cfg.Log.Rotation.MaxAge,
			Compress:   cfg.Log.Rotation.Compress,
		},
	})
}

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(v)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}

			logger := newLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Serve(ctx)
		},
	}

	cmd.Flags().String("port", "", "port to listen on")
	v.BindPFlag("port", cmd.Flags().Lookup("port"))

	return cmd
}

func newMigrateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	withMigrator := func(run func(ctx context.Context, m *database.Migrator, logger *logging.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(v)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			db, err := database.Open(cmd.Context(), database.Config{Path: cfg.Database.Path, Logger: logger})
			if err != nil {
				return err
			}
			defer database.Close(db)

			return run(cmd.Context(), database.NewMigrator(db), logger)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: withMigrator(func(ctx context.Context, m *database.Migrator, logger *logging.Logger) error {
			applied, err := m.Migrate(ctx)
			if err != nil {
				return err
			}
			logger.WithField("applied", applied).Info("Migrations complete")
			fmt.Printf("Applied %d migration(s)\n", len(applied))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: withMigrator(func(ctx context.Context, m *database.Migrator, logger *logging.Logger) error {
			statuses, err := m.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%3d  %-8s  %s\n", s.Version, state, s.Description)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Revert the most recent migration",
		RunE: withMigrator(func(ctx context.Context, m *database.Migrator, logger *logging.Logger) error {
			version, err := m.Rollback(ctx)
			if err != nil {
				return err
			}
			logger.WithField("version", version).Info("Migration rolled back")
			fmt.Printf("Rolled back migration %d\n", version)
			return nil
		}),
	})

	return cmd
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management utilities",
	}

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output")
			overwrite, _ := cmd.Flags().GetBool("overwrite")

			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			filename := filepath.Join(outputDir, "gridboard.yaml")
			if _, err := os.Stat(filename); err == nil && !overwrite {
				fmt.Fprintf(cmd.OutOrStdout(), "Skipping %s (file exists, use --overwrite to replace)\n", filename)
				return nil
			}

			data, err := MarshalDefaults()
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			if err := os.WriteFile(filename, data, 0644); err != nil {
				return fmt.Errorf("failed to write config file %s: %w", filename, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", filename)
			return nil
		},
	}
	generate.Flags().String("output", ".", "output directory for the configuration file")
	generate.Flags().Bool("overwrite", false, "overwrite an existing file")

	cmd.AddCommand(generate)
	return cmd
}

func newVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gridboard %s (%s)\n", info.Version, info.Commit)
		},
	}
}
