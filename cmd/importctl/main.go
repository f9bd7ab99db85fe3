// importctl validates and commits dashboard CSV imports from the
// command line, running the same pipeline the web server uses.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/belisarialeskovac-maker/opsdash/internal/core"
	"github.com/belisarialeskovac-maker/opsdash/internal/importer"
	_ "github.com/belisarialeskovac-maker/opsdash/internal/importer/targets" // Register all import targets
	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

func main() {
	// Keep slog quiet: command output goes to stdout, not the log.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "importctl",
		Short:         "Validate and commit dashboard CSV imports",
		Long:          "importctl runs the dashboard's CSV import pipeline from the command line.\nValidation classifies every row of a file against the live database;\nimport commits the ready rows in one batch.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTargetsCmd(), newValidateCmd(), newImportCmd())
	return root
}

// newTargetsCmd lists the registered import targets and their columns.
// Works offline; nothing here touches the database.
func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List import targets and their columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, t := range importer.All() {
				fmt.Fprintf(out, "%s (%s)\n", t.Key, t.Label)
				fmt.Fprintf(out, "  key: %s\n", strings.Join(t.KeyFields, "+"))
				for _, col := range t.Columns {
					fmt.Fprintf(out, "  %-18s %s%s%s%s\n",
						col.Name, col.Type,
						requiredNote(col.Required),
						enumNote(col.EnumValues),
						refNote(col.Reference))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func requiredNote(required bool) string {
	if required {
		return ", required"
	}
	return ""
}

func enumNote(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return ", one of: " + strings.Join(values, "|")
}

func refNote(ref importer.RefKind) string {
	if ref == importer.RefNone {
		return ""
	}
	return ", references " + ref.String() + "s"
}

// newValidateCmd builds the dry-run classifier: it parses the file,
// resolves references against the database, and prints every problem
// row with its line number and reason. Nothing is written.
func newValidateCmd() *cobra.Command {
	var (
		targetKey string
		file      string
		showAll   bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Classify a CSV file without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := importer.Get(targetKey)
			if !ok {
				return fmt.Errorf("unknown import target: %s (see importctl targets)", targetKey)
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			refs, err := store.New(pool).LoadReferences(ctx, t)
			if err != nil {
				return fmt.Errorf("load references: %w", err)
			}
			plan, err := importer.BuildPlan(t, refs, data)
			if err != nil {
				return err
			}

			printPlan(cmd, plan, filepath.Base(file), showAll)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetKey, "target", "t", "", "Import target key (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to validate (required)")
	cmd.Flags().BoolVar(&showAll, "all", false, "Print every row, not just problems")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func printPlan(cmd *cobra.Command, plan *importer.Plan, fileName string, showAll bool) {
	out := cmd.OutOrStdout()
	counts := plan.Counts()
	fmt.Fprintf(out, "file: %s\n", fileName)
	fmt.Fprintf(out, "target: %s\n", plan.Target)
	fmt.Fprintf(out, "rows: %d  ready: %d  duplicate: %d  invalid: %d\n",
		counts.Total, counts.Ready, counts.Duplicate, counts.Invalid)

	for _, row := range plan.Rows {
		if row.Disposition == importer.Ready && !showAll {
			continue
		}
		if row.Reason == "" {
			fmt.Fprintf(out, "line %d: %s\n", row.Line, row.Disposition)
			continue
		}
		fmt.Fprintf(out, "line %d: %s  %s\n", row.Line, row.Disposition, row.Reason)
	}
}

// newImportCmd builds the commit command. Without --apply it behaves
// like validate with a summary; with --apply the ready rows are
// written in a single batch and the import is logged.
func newImportCmd() *cobra.Command {
	var (
		targetKey string
		file      string
		apply     bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV file (dry-run unless --apply)",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			st := store.New(pool)
			if err := st.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			service := core.NewService(st, slog.Default(), core.Options{})

			preview, err := service.Preview(ctx, targetKey, filepath.Base(file), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			c := preview.Counts
			fmt.Fprintf(out, "rows: %d  ready: %d  duplicate: %d  invalid: %d\n",
				c.Total, c.Ready, c.Duplicate, c.Invalid)

			if !apply {
				fmt.Fprintln(out, "dry run: nothing written (use --apply to commit)")
				return service.Discard(preview.SessionID)
			}

			ctx = core.WithRequestMeta(ctx, "local", "importctl")
			result, err := service.Commit(ctx, preview.SessionID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %d rows into %s (import %s)\n",
				result.RowsInserted, result.Target, result.ImportID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetKey, "target", "t", "", "Import target key (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import (required)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the ready rows (default is dry-run)")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// connect opens a pool from DATABASE_URL (or DB_URL), loading .env
// first so the CLI picks up the same settings as the server.
func connect(ctx context.Context) (*pgxpool.Pool, error) {
	_ = godotenv.Overload()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		url = os.Getenv("DB_URL")
	}
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
