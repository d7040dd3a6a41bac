// Package cli implements salesctl, the terminal front end to the same
// pipeline the web dashboard runs.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sales-insights/internal/config"
	"sales-insights/internal/loader"
	"sales-insights/internal/models"
	"sales-insights/internal/observability"
	"sales-insights/internal/report"
	"sales-insights/internal/services"
)

const loadTimeout = 30 * time.Second

type App struct {
	root    *cobra.Command
	version string

	configFile string
	file       string
	logLevel   string
}

// filterFlags are shared by the commands that render a filtered view.
type filterFlags struct {
	regions    []string
	categories []string
	start      string
	end        string
}

func NewApp(version string) *App {
	app := &App{version: version}

	root := &cobra.Command{
		Use:           "salesctl",
		Short:         "Sales insights from a Superstore-style dataset",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "salesctl version: %s\n" .Version}}`)

	root.PersistentFlags().StringVarP(&app.configFile, "config", "C", "", "Path to a YAML, TOML or JSON configuration file")
	root.PersistentFlags().StringVarP(&app.file, "file", "f", "", "Dataset to read (.csv, .xlsx or postgres:// URL); overrides the config")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")

	root.AddCommand(app.reportCmd(), app.checkCmd(), app.exportCmd())
	app.root = root
	return app
}

func (app *App) Execute(ctx context.Context) error {
	return app.root.ExecuteContext(ctx)
}

// Command exposes the root command, mainly so tests can set args and output.
func (app *App) Command() *cobra.Command {
	return app.root
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.regions, "region", "r", nil, "Regions to include (repeatable or comma-separated; default all)")
	cmd.Flags().StringSliceVarP(&f.categories, "category", "c", nil, "Categories to include (repeatable or comma-separated; default all)")
	cmd.Flags().StringVar(&f.start, "start", "", "First order date to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last order date to include (YYYY-MM-DD)")
}

// selection turns the flags into a FilterSelection. Unset region and category
// flags select everything in opts.
func (f *filterFlags) selection(opts models.FilterOptions) (models.FilterSelection, error) {
	sel := services.FullSelection(opts)
	if len(f.regions) > 0 {
		sel.Regions = trimAll(f.regions)
	}
	if len(f.categories) > 0 {
		sel.Categories = trimAll(f.categories)
	}

	var err error
	if f.start != "" {
		if sel.Start, err = time.Parse(models.DateLayout, strings.TrimSpace(f.start)); err != nil {
			return models.FilterSelection{}, fmt.Errorf("--start must be a date in YYYY-MM-DD form: %q", f.start)
		}
	}
	if f.end != "" {
		if sel.End, err = time.Parse(models.DateLayout, strings.TrimSpace(f.end)); err != nil {
			return models.FilterSelection{}, fmt.Errorf("--end must be a date in YYYY-MM-DD form: %q", f.end)
		}
	}
	if f.start != "" && f.end != "" && sel.End.Before(sel.Start) {
		return models.FilterSelection{}, fmt.Errorf("--end %s is before --start %s", f.end, f.start)
	}
	return sel, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// dashboard loads configuration and data. Logs go to stderr so stdout stays
// clean for --json.
func (app *App) dashboard(cmd *cobra.Command) (*services.Dashboard, *slog.Logger, error) {
	path := app.configFile
	if path == "" {
		path = os.Getenv(config.FileEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if app.file != "" {
		cfg.Data.Source = app.file
	}
	if app.logLevel != "" {
		cfg.Logger.Level = app.logLevel
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), loadTimeout)
	defer cancel()

	table, err := loader.NewCache(cfg.Data.Table, logger).Get(ctx, cfg.Data.Source)
	if err != nil {
		return nil, nil, err
	}

	d := services.NewDashboard(table, services.WithLogger(logger))
	if q := d.Quality(); !q.OK() {
		logger.Warn("data quality issues detected", "issues", q.Messages())
	}
	return d, logger, nil
}

func (app *App) view(cmd *cobra.Command, filters *filterFlags) (*services.Dashboard, models.ViewModel, error) {
	d, _, err := app.dashboard(cmd)
	if err != nil {
		return nil, models.ViewModel{}, err
	}
	sel, err := filters.selection(d.Options())
	if err != nil {
		return nil, models.ViewModel{}, err
	}
	return d, d.View(cmd.Context(), sel), nil
}

func (app *App) reportCmd() *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard for the selected filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, vm, err := app.view(cmd, &filters)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), vm)
			}
			return report.NewTerminal(cmd.OutOrStdout()).Render(d.Table().Source(), vm)
		},
	}
	filters.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON instead of tables")
	return cmd
}

func (app *App) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the data-quality checks",
		Long:  "Run the data-quality checks. Violations are warnings; the command still exits 0.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, _, err := app.dashboard(cmd)
			if err != nil {
				return err
			}
			report.NewTerminal(cmd.OutOrStdout()).Quality(d.Quality())
			return nil
		},
	}
}

func (app *App) exportCmd() *cobra.Command {
	var (
		filters filterFlags
		dir     string
		name    string
		types   []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dashboard to CSV, JSON or PDF files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := report.ParseFormats(types)
			if err != nil {
				return err
			}
			d, vm, err := app.view(cmd, &filters)
			if err != nil {
				return err
			}

			paths, err := report.NewExporter(dir, name).Export(cmd.Context(), d.Table().Source(), vm, formats)
			if err != nil {
				return err
			}

			ok := color.New(color.FgGreen, color.Bold)
			for _, p := range paths {
				ok.Fprint(cmd.OutOrStdout(), "saved ")
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	filters.bind(cmd)
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to save the report files (default: current directory)")
	cmd.Flags().StringVarP(&name, "name", "n", "sales_report", "Base name for the report files (without extension)")
	cmd.Flags().StringSliceVarP(&types, "type", "y", []string{"csv"}, "Report types: csv, json, pdf")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
