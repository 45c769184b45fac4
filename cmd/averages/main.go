// Command averages converts league averages workbooks into nested season
// records and loads them into the archive.
//
// Usage:
//
//	averages json cpl
//	averages csv cpl nyp
//	averages sqlite cpl --out json/cpl.sqlite
//	averages load cpl
//	averages check-id B00013 P10019
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-averages/internal/config"
	"github.com/albapepper/scoracle-averages/internal/convert"
	"github.com/albapepper/scoracle-averages/internal/damm"
	"github.com/albapepper/scoracle-averages/internal/db"
	"github.com/albapepper/scoracle-averages/internal/encode"
	"github.com/albapepper/scoracle-averages/internal/maintenance"
	"github.com/albapepper/scoracle-averages/internal/seed"
	"github.com/albapepper/scoracle-averages/internal/transform"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// tablesFile overrides TABLES_FILE when set.
var tablesFile string

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "averages",
		Short:         "League averages workbook converter",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&tablesFile, "tables", "", "YAML table dictionaries (default: embedded)")

	root.AddCommand(jsonCmd())
	root.AddCommand(csvCmd())
	root.AddCommand(sqliteCmd())
	root.AddCommand(loadCmd())
	root.AddCommand(checkIDCmd())

	if err := root.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run helpers
// --------------------------------------------------------------------------

// runEnv is what every conversion command needs.
type runEnv struct {
	cfg    *config.Config
	tables *config.Tables
}

func runConvert(fn func(ctx context.Context, env runEnv) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	path := cfg.TablesFile
	if tablesFile != "" {
		path = tablesFile
	}
	tables, err := config.LoadTables(path)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}

	return fn(ctx, runEnv{cfg: cfg, tables: tables})
}

// convertSources converts each source directory under TRANSCRIPT_DIR with
// its own identifier allocator and returns an error if any file failed.
func convertSources(ctx context.Context, env runEnv, sources []string, emit func(source string) convert.Emitter) error {
	var total convert.Result
	for _, source := range sources {
		conv := convert.New(env.tables, logger)
		start := time.Now()
		dir := filepath.Join(env.cfg.TranscriptDir, source)
		result := conv.Run(ctx, dir, source, emit(source))
		logger.Info("Source converted",
			"source", source,
			"run_id", conv.RunID(),
			"duration", time.Since(start).Round(time.Millisecond),
			"summary", result.Summary())
		total.Add(*result)
	}
	if total.Failed() {
		for _, e := range total.Errors {
			logger.Error("conversion error", "error", e)
		}
		return fmt.Errorf("%d file(s) failed: %s", total.FilesFailed, total.Summary())
	}
	return nil
}

// --------------------------------------------------------------------------
// json / csv / sqlite commands
// --------------------------------------------------------------------------

func jsonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "json <source>...",
		Short: "Convert workbooks to one JSON document per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(func(ctx context.Context, env runEnv) error {
				return convertSources(ctx, env, args, func(source string) convert.Emitter {
					return func(_ context.Context, rep *convert.FileReport) error {
						path := filepath.Join(env.cfg.OutputDir, source, rep.Stem+".json")
						if err := encode.WriteJSON(path, rep.Document); err != nil {
							return err
						}
						logger.Debug("Wrote JSON", "path", path)
						return nil
					}
				})
			})
		},
	}
}

func csvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "csv <source>...",
		Short: "Convert workbooks to flat CSV tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(func(ctx context.Context, env runEnv) error {
				return convertSources(ctx, env, args, func(source string) convert.Emitter {
					return func(_ context.Context, rep *convert.FileReport) error {
						paths, err := encode.WriteCSV(filepath.Join(env.cfg.CSVDir, source), rep.Stem, rep.Document)
						if err != nil {
							return err
						}
						logger.Debug("Wrote CSV", "files", len(paths))
						return nil
					}
				})
			})
		},
	}
}

func sqliteCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "sqlite <source>",
		Short: "Convert a source into a single SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(func(ctx context.Context, env runEnv) error {
				source := args[0]
				var docs []*transform.Document
				convErr := convertSources(ctx, env, args, func(string) convert.Emitter {
					return func(_ context.Context, rep *convert.FileReport) error {
						docs = append(docs, rep.Document)
						return nil
					}
				})

				path := out
				if path == "" {
					path = filepath.Join(env.cfg.OutputDir, source+".sqlite")
				}
				if err := encode.WriteSQLite(path, docs); err != nil {
					return errors.Join(convErr, err)
				}
				logger.Info("Wrote SQLite", "path", path, "files", len(docs))
				return convErr
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output path (default OUTPUT_DIR/<source>.sqlite)")
	return cmd
}

// --------------------------------------------------------------------------
// load command
// --------------------------------------------------------------------------

func loadCmd() *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "load <source>...",
		Short: "Convert workbooks and load them into the Postgres archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(func(ctx context.Context, env runEnv) error {
				if err := env.cfg.RequireDatabase(); err != nil {
					return err
				}
				pool, err := db.Connect(ctx, env.cfg)
				if err != nil {
					return fmt.Errorf("connect to database: %w", err)
				}
				defer pool.Close()

				if err := seed.EnsureSchema(ctx, pool.Pool); err != nil {
					return err
				}

				var loaded seed.LoadResult
				convErr := convertSources(ctx, env, args, func(source string) convert.Emitter {
					if !keep {
						n, err := seed.ResetSource(ctx, pool.Pool, source)
						if err != nil {
							loaded.AddErrorf("%v", err)
						} else {
							logger.Info("Cleared previous load", "source", source, "records", n)
						}
					}
					return func(ctx context.Context, rep *convert.FileReport) error {
						result := seed.LoadDocument(ctx, pool.Pool, rep.Document, rep.RunID, logger)
						loaded.Add(result)
						if len(result.Errors) > 0 {
							return errors.New(result.Errors[0])
						}
						return nil
					}
				})

				logger.Info("Archive load finished", "summary", loaded.Summary())
				if err := maintenance.RefreshMaterializedViews(ctx, pool.Pool, logger); err != nil {
					return errors.Join(convErr, err)
				}
				if len(loaded.Errors) > 0 && convErr == nil {
					return fmt.Errorf("load failed: %s", loaded.Summary())
				}
				return convErr
			})
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep records of files not in this run")
	return cmd
}

// --------------------------------------------------------------------------
// check-id command
// --------------------------------------------------------------------------

func checkIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-id <id>...",
		Short: "Validate identifiers against their Damm check digit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, id := range args {
				if err := damm.Validate(id); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tinvalid\t%v\n", id, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tok\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d identifier(s) invalid", failed, len(args))
			}
			return nil
		},
	}
}
