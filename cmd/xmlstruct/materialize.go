package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wehubfusion/xmlstruct/internal/app"
	"github.com/wehubfusion/xmlstruct/internal/tracing"
	"github.com/wehubfusion/xmlstruct/pkg/concurrency"
	"github.com/wehubfusion/xmlstruct/pkg/config"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize [input]",
	Short: "Materialize records from an input file (or stdin) into rows",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMaterialize,
}

func init() {
	materializeCmd.Flags().String("input-format", "xml", "input format (xml|jsonl)")
	materializeCmd.Flags().String("format", "", "output format (json|msgpack)")
	materializeCmd.Flags().String("record-tag", "", "element name that delimits a record")
	materializeCmd.Flags().String("replacement-chars", "", "name substitutions, e.g. \".=_,-=_\"")
	materializeCmd.Flags().Int("max-concurrent", 0, "records materialized at once (0 = auto)")
}

func runMaterialize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.Output.Format = v
	}
	if v, _ := cmd.Flags().GetString("record-tag"); v != "" {
		cfg.Serde.RecordTag = v
	}
	if v, _ := cmd.Flags().GetString("replacement-chars"); v != "" {
		cfg.Serde.ReplacementChars = v
	}
	if v, _ := cmd.Flags().GetInt("max-concurrent"); v > 0 {
		cfg.MaxConcurrent = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	undo := concurrency.InitializeForKubernetes(logger)
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Setup(ctx, cfg.Tracing, version, logger)
	if err != nil {
		logger.Warn("Failed to setup tracing, continuing without tracing", zap.Error(err))
		tp, _ = tracing.Setup(ctx, config.TracingConfig{}, version, logger)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	inputFormat, _ := cmd.Flags().GetString("input-format")
	a, err := app.New(cfg, app.InputFormat(inputFormat), logger,
		app.WithTracerProvider(tp.TracerProvider()))
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	return a.Run(ctx, in, cmd.OutOrStdout())
}

// loadConfig reads --config and applies the catalog flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.Catalog = config.CatalogConfig{Path: v}
	}
	if v, _ := cmd.Flags().GetString("catalog-type"); v != "" {
		cfg.Catalog = config.CatalogConfig{Type: v}
	}
	return cfg, nil
}

// newLogger builds a zap logger that writes to stderr so rows own stdout
func newLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.OutputPaths = []string{"stderr"}

	if lc.Level != "" {
		level, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}
