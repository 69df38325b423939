// Package app wires configuration, catalog, accessor, resolver, pipeline and
// row output into the runnable xmlstruct host.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wehubfusion/xmlstruct/pkg/catalog"
	"github.com/wehubfusion/xmlstruct/pkg/concurrency"
	"github.com/wehubfusion/xmlstruct/pkg/config"
	"github.com/wehubfusion/xmlstruct/pkg/jsonnode"
	"github.com/wehubfusion/xmlstruct/pkg/logging"
	"github.com/wehubfusion/xmlstruct/pkg/node"
	"github.com/wehubfusion/xmlstruct/pkg/output"
	"github.com/wehubfusion/xmlstruct/pkg/pipeline"
	"github.com/wehubfusion/xmlstruct/pkg/resolver"
	"github.com/wehubfusion/xmlstruct/pkg/xmlnode"
)

// InputFormat selects how the input stream is split into records
type InputFormat string

const (
	InputXML       InputFormat = "xml"
	InputJSONLines InputFormat = "jsonl"
)

// App is a configured host
type App struct {
	cfg      *config.Config
	input    InputFormat
	catalog  *catalog.Catalog
	resolver *resolver.Resolver
	pipeline *pipeline.Materializer
	outputs  *output.Registry
	logger   *zap.Logger
}

// Option customizes an App
type Option func(*options)

type options struct {
	tracerProvider trace.TracerProvider
}

// WithTracerProvider sends pipeline spans to tp instead of the global provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// New builds an app from cfg
func New(cfg *config.Config, input InputFormat, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cat, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	table, err := cfg.SubstitutionTable()
	if err != nil {
		return nil, err
	}

	var accessor resolver.Accessor
	switch input {
	case InputXML:
		var opts []xmlnode.Option
		if cfg.Serde.CaseInsensitive {
			opts = append(opts, xmlnode.CaseInsensitive())
		}
		accessor = xmlnode.NewProcessor(opts...)
	case InputJSONLines:
		accessor = jsonnode.NewProcessor()
	default:
		return nil, fmt.Errorf("unsupported input format %q", input)
	}

	sink := logging.NewZapLogger(logger)
	res, err := resolver.New(cat, accessor,
		resolver.WithTable(table),
		resolver.WithLogger(sink))
	if err != nil {
		return nil, err
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = concurrency.LoadConfig().MaxConcurrent
	}

	logger.Debug("App configured",
		zap.String("catalog", cat.String()),
		zap.String("replacements", table.String()),
		zap.String("input", string(input)),
		zap.Int("max_concurrent", maxConcurrent))

	materializer := pipeline.NewMaterializer(res, pipeline.Config{
		MaxConcurrent:  maxConcurrent,
		TracerProvider: o.tracerProvider,
	}, sink)

	return &App{
		cfg:      cfg,
		input:    input,
		catalog:  cat,
		resolver: res,
		pipeline: materializer,
		outputs:  output.NewRegistry(),
		logger:   logger,
	}, nil
}

// LoadCatalog builds the catalog declared by the config
func LoadCatalog(cc config.CatalogConfig) (*catalog.Catalog, error) {
	parser := catalog.NewParser()
	switch {
	case cc.Type != "":
		return parser.ParseStruct(cc.Type)
	case cc.Path != "":
		format, err := catalog.FormatFromPath(cc.Path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(cc.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		return parser.Parse(data, format)
	}
	return nil, fmt.Errorf("no catalog configured: set catalog.path or catalog.type")
}

// Catalog returns the bound catalog
func (a *App) Catalog() *catalog.Catalog { return a.catalog }

// Run reads records from in and writes one row per record to out
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	nodes, err := a.readNodes(in)
	if err != nil {
		return err
	}

	rows, err := a.pipeline.Run(ctx, nodes)
	if err != nil {
		return err
	}

	w, err := a.outputs.Writer(a.cfg.Output.Format, out, a.catalog.Names())
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	a.logger.Info("Rows written",
		zap.Int("rows", len(rows)),
		zap.String("format", a.cfg.Output.Format))
	return nil
}

func (a *App) readNodes(in io.Reader) ([]node.Node, error) {
	switch a.input {
	case InputJSONLines:
		var nodes []node.Node
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		line := 0
		for sc.Scan() {
			line++
			text := sc.Bytes()
			if len(text) == 0 {
				continue
			}
			n, err := jsonnode.Parse(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			nodes = append(nodes, n)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return nodes, nil
	default:
		elements, err := xmlnode.DecodeRecords(in, a.cfg.Serde.RecordTag)
		if err != nil {
			return nil, err
		}
		nodes := make([]node.Node, len(elements))
		for i, el := range elements {
			nodes[i] = a.resolver.Classify(el)
		}
		return nodes, nil
	}
}
