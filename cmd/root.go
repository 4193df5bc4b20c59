package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/sheetpulse/internal/config"
	"github.com/KaramelBytes/sheetpulse/internal/logging"
	"github.com/KaramelBytes/sheetpulse/internal/pipeline"
	"github.com/KaramelBytes/sheetpulse/internal/source"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Overrides applied on top of the loaded config when set
	flagSourceFile string
	flagLogLevel   string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "sheetpulse",
	Short: "SheetPulse: Telegram reports over a spreadsheet",
	Long: `SheetPulse reads a Google Sheet (or a local CSV/XLSX export of it), filters the rows
by status and category, and answers Telegram commands with summaries, per-category
breakdowns and CSV/XLSX exports. The same reports are available from the command line.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.sheetpulse/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagSourceFile, "source-file", "", "read rows from a local CSV/TSV/XLSX file instead of Google Sheets")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func loadConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load .env: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("source-file") && flagSourceFile != "" {
		cfg.SourceFile = flagSourceFile
	}
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if debug {
		cfg.LogLevel = "debug"
	}
}

// requireConfig returns the loaded config after validating it.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		return nil, errors.New("no configuration loaded; run 'sheetpulse config init'")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger writes to out and the configured log file.
func newLogger(c *cfgpkg.Global, out io.Writer) (*logrus.Logger, error) {
	return logging.New(c.LogLevel, c.LogFile, out)
}

// newSource picks the local file when one is configured and Google Sheets
// otherwise.
func newSource(ctx context.Context, c *cfgpkg.Global) (source.Source, error) {
	if c.SourceFile != "" {
		return source.File{Path: c.SourceFile, Sheet: c.SourceSheet, Delimiter: c.SourceDelimiterRune()}, nil
	}
	s, err := source.NewSheets(ctx, c.CredentialsFile, c.SpreadsheetURL, c.WorksheetName)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// setup validates the config and builds the logger and report pipeline.
// Log lines go to logOut so they never mix with report output.
func setup(ctx context.Context, logOut io.Writer) (*pipeline.Pipeline, *logrus.Logger, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(c, logOut)
	if err != nil {
		return nil, nil, err
	}
	src, err := newSource(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(src, c.Pipeline(), pipeline.WithLogger(log)), log, nil
}
