package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/b1-query-assistant/pkg/llm"
	"github.com/ekaya-inc/b1-query-assistant/pkg/logging"
	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
)

var (
	askExecute bool
	askFormat  string
)

var askCmd = &cobra.Command{
	Use:   `ask "<question>"`,
	Short: "Translate one business question into SQL",
	Long: `ask sends a single question through the query pipeline and prints the result.

With --execute the generated SQL is run against the configured datasource.
--format json prints the result bundle; --format table prints the SQL,
summary and rows for a terminal.`,
	Example: `  b1qa ask "Top 10 customers by open balance"
  b1qa ask --execute --format json "Sales per month this year"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if askFormat != "json" && askFormat != "table" {
			return fmt.Errorf("unsupported format %q (must be json or table)", askFormat)
		}
		return runAsk(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "))
	},
}

func init() {
	askCmd.Flags().BoolVar(&askExecute, "execute", false, "Run the generated SQL against the datasource")
	askCmd.Flags().StringVar(&askFormat, "format", "table", "Output format: json or table")
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, out io.Writer, question string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if level == "" {
		level = "warn"
	}
	logger, err := logging.NewLogger(cfg.Env, level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx = llm.WithRequestID(ctx, "cli")

	var bundle *models.ResultBundle
	if askFormat == "table" {
		spinner, _ := pterm.DefaultSpinner.WithWriter(out).Start("Generating SQL...")
		bundle, err = app.queryService.ProcessQuery(ctx, question, askExecute)
		if spinner != nil {
			_ = spinner.Stop()
		}
	} else {
		bundle, err = app.queryService.ProcessQuery(ctx, question, askExecute)
	}
	if err != nil {
		logger.Debug("Ask failed", zap.Error(err))
		return err
	}

	if askFormat == "json" {
		return writeBundleJSON(out, bundle)
	}
	return renderBundle(out, bundle)
}

func writeBundleJSON(out io.Writer, bundle *models.ResultBundle) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}

// renderBundle prints the bundle for a terminal. Rows are shown as a table
// with the column order of the first row.
func renderBundle(out io.Writer, bundle *models.ResultBundle) error {
	pterm.Fprintln(out, pterm.Bold.Sprint("SQL"))
	pterm.Fprintln(out, bundle.SQLQuery)
	pterm.Fprintln(out)

	pterm.Fprintln(out, pterm.Bold.Sprint("Visualization: ")+string(bundle.VisualizationType))
	if bundle.Summary != "" {
		pterm.Fprintln(out, pterm.Bold.Sprint("Summary: ")+bundle.Summary)
	}

	switch {
	case bundle.Error != nil:
		pterm.Error.WithWriter(out).Println(*bundle.Error)
	case bundle.Results == nil:
		pterm.Info.WithWriter(out).Println("Query not executed (use --execute to run it)")
	case len(bundle.Results) == 0:
		pterm.Info.WithWriter(out).Println("Query returned no rows")
	default:
		pterm.Fprintln(out)
		pterm.Fprintln(out, pterm.Bold.Sprintf("Results (%d rows)", len(bundle.Results)))
		return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(resultTable(bundle.Results)).Render()
	}
	return nil
}

func resultTable(rows []models.Row) pterm.TableData {
	header := rows[0].Columns
	data := pterm.TableData{header}
	for _, row := range rows {
		line := make([]string, len(header))
		for i, col := range header {
			if v, ok := row.Get(col); ok && v != nil {
				line[i] = fmt.Sprint(v)
			}
		}
		data = append(data, line)
	}
	return data
}
