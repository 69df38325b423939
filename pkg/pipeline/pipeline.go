// Package pipeline materializes batches of records concurrently against one
// shared resolver, keeping output rows in input order.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wehubfusion/xmlstruct/pkg/logging"
	"github.com/wehubfusion/xmlstruct/pkg/node"
	"github.com/wehubfusion/xmlstruct/pkg/resolver"
)

const tracerName = "github.com/wehubfusion/xmlstruct/pkg/pipeline"

// RecordError reports which record of a batch failed
type RecordError struct {
	Index    int
	RecordID string
	Err      error
}

// Error implements the error interface
func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.RecordID, e.Err)
}

// Unwrap returns the underlying error
func (e *RecordError) Unwrap() error {
	return e.Err
}

// Config controls batch execution
type Config struct {
	// MaxConcurrent bounds the number of records materialized at once
	MaxConcurrent int
	// TracerProvider receives batch spans. Nil uses the global provider.
	TracerProvider trace.TracerProvider
}

// Validate fills in defaults
func (c *Config) Validate() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 1
	}
}

// Materializer runs batches through a resolver
type Materializer struct {
	resolver *resolver.Resolver
	config   Config
	logger   logging.Logger
	tracer   trace.Tracer
}

// NewMaterializer creates a batch materializer. A nil logger disables logging.
func NewMaterializer(r *resolver.Resolver, config Config, logger logging.Logger) *Materializer {
	config.Validate()
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Materializer{
		resolver: r,
		config:   config,
		logger:   logger,
		tracer:   tp.Tracer(tracerName),
	}
}

// Run materializes every node. rows[i] belongs to nodes[i]. The first failure
// stops the batch and is returned as a *RecordError.
func (m *Materializer) Run(ctx context.Context, nodes []node.Node) ([][]any, error) {
	ctx, span := m.tracer.Start(ctx, "pipeline.Run",
		trace.WithAttributes(
			attribute.Int("records", len(nodes)),
			attribute.Int("max_concurrent", m.config.MaxConcurrent),
		))
	defer span.End()

	start := time.Now()
	rows := make([][]any, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.MaxConcurrent)

	for i := range nodes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := m.materialize(i, nodes[i])
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Error("Batch materialization failed",
			logging.Field{Key: "records", Value: len(nodes)},
			logging.Field{Key: "error", Value: err})
		return nil, err
	}

	// a cancelled parent stops scheduling without any worker failing
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	m.logger.Info("Batch materialized",
		logging.Field{Key: "records", Value: len(nodes)},
		logging.Field{Key: "duration", Value: time.Since(start)})
	return rows, nil
}

// materialize resolves one record with a logger scoped to it
func (m *Materializer) materialize(index int, n node.Node) ([]any, error) {
	recordID := uuid.NewString()
	scoped := m.resolver.WithLogger(logging.With(m.logger,
		logging.Field{Key: "record_id", Value: recordID},
		logging.Field{Key: "record_index", Value: index}))

	row, err := scoped.MaterializeRecord(n)
	if err != nil {
		return nil, &RecordError{Index: index, RecordID: recordID, Err: err}
	}
	return row, nil
}

// Stream materializes nodes from in and sends rows to the returned channel in
// arrival order, one record at a time. The error channel yields at most one
// error and both channels are closed when in is drained or ctx ends.
func (m *Materializer) Stream(ctx context.Context, in <-chan node.Node) (<-chan []any, <-chan error) {
	out := make(chan []any)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		index := 0
		for {
			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			case n, ok := <-in:
				if !ok {
					return
				}
				row, err := m.materialize(index, n)
				if err != nil {
					errc <- err
					return
				}
				select {
				case out <- row:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
				index++
			}
		}
	}()

	return out, errc
}
