package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wehubfusion/xmlstruct/pkg/catalog"
	"github.com/wehubfusion/xmlstruct/pkg/coerce"
	"github.com/wehubfusion/xmlstruct/pkg/node"
	"github.com/wehubfusion/xmlstruct/pkg/resolver"
)

type mapAccessor struct{}

func (mapAccessor) ObjectValue(raw any, name string) (any, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

func (mapAccessor) PrimitiveValue(raw any, kind catalog.PrimitiveKind) (any, error) {
	return coerce.Value(raw, kind)
}

func newResolver(t *testing.T) *resolver.Resolver {
	t.Helper()
	cat, err := catalog.New([]catalog.TypedName{
		catalog.PrimitiveField("id", catalog.KindInt),
		catalog.PrimitiveField("name", catalog.KindString),
	})
	require.NoError(t, err)
	r, err := resolver.New(cat, mapAccessor{})
	require.NoError(t, err)
	return r
}

func keyedNodes(n int) []node.Node {
	nodes := make([]node.Node, n)
	for i := range nodes {
		nodes[i] = node.NewKeyed(map[string]any{"id": fmt.Sprint(i), "name": fmt.Sprintf("user-%d", i)})
	}
	return nodes
}

func TestRun_PreservesOrder(t *testing.T) {
	m := NewMaterializer(newResolver(t), Config{MaxConcurrent: 8}, nil)

	rows, err := m.Run(context.Background(), keyedNodes(100))

	require.NoError(t, err)
	require.Len(t, rows, 100)
	for i, row := range rows {
		assert.Equal(t, []any{int32(i), fmt.Sprintf("user-%d", i)}, row)
	}
}

func TestRun_MixedShapes(t *testing.T) {
	m := NewMaterializer(newResolver(t), Config{}, nil)

	rows, err := m.Run(context.Background(), []node.Node{
		node.NewOrdered(1, "a"),
		node.NewKeyed(map[string]any{"id": "2"}),
	})

	require.NoError(t, err)
	assert.Equal(t, [][]any{{1, "a"}, {int32(2), nil}}, rows)
}

func TestRun_EmptyBatch(t *testing.T) {
	m := NewMaterializer(newResolver(t), Config{MaxConcurrent: 4}, nil)

	rows, err := m.Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRun_ReportsFailingRecord(t *testing.T) {
	m := NewMaterializer(newResolver(t), Config{MaxConcurrent: 1}, nil)
	nodes := keyedNodes(5)
	nodes[3] = node.NewOrdered(1)

	rows, err := m.Run(context.Background(), nodes)

	require.Error(t, err)
	assert.Nil(t, rows)

	var rerr *RecordError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 3, rerr.Index)
	assert.NotEmpty(t, rerr.RecordID)
	assert.True(t, resolver.IsSchemaNodeMismatch(err))
}

func TestRun_CancelledContext(t *testing.T) {
	m := NewMaterializer(newResolver(t), Config{MaxConcurrent: 2}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Run(ctx, keyedNodes(10))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{MaxConcurrent: -3}
	cfg.Validate()
	assert.Equal(t, 1, cfg.MaxConcurrent)
}

func TestStream(t *testing.T) {
	m := NewMaterializer(newResolver(t), Config{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in := make(chan node.Node)
	go func() {
		defer close(in)
		for _, n := range keyedNodes(3) {
			in <- n
		}
	}()

	out, errc := m.Stream(ctx, in)
	var rows [][]any
	for row := range out {
		rows = append(rows, row)
	}

	require.NoError(t, <-errc)
	assert.Equal(t, [][]any{
		{int32(0), "user-0"},
		{int32(1), "user-1"},
		{int32(2), "user-2"},
	}, rows)
}

func TestStream_StopsOnError(t *testing.T) {
	m := NewMaterializer(newResolver(t), Config{}, nil)

	in := make(chan node.Node, 3)
	in <- node.NewKeyed(map[string]any{"id": "1"})
	in <- node.NewKeyed(map[string]any{"id": "not-a-number"})
	in <- node.NewKeyed(map[string]any{"id": "3"})
	close(in)

	out, errc := m.Stream(context.Background(), in)
	var rows [][]any
	for row := range out {
		rows = append(rows, row)
	}

	err := <-errc
	require.Error(t, err)
	assert.Len(t, rows, 1)

	var rerr *RecordError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 1, rerr.Index)
	assert.True(t, resolver.IsCoercionFailure(err))
}

func TestRun_ReportsSpansToConfiguredProvider(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	m := NewMaterializer(newResolver(t), Config{MaxConcurrent: 2, TracerProvider: tp}, nil)

	_, err := m.Run(context.Background(), keyedNodes(3))
	require.NoError(t, err)

	bad := keyedNodes(2)
	bad[1] = node.NewOrdered()
	_, err = m.Run(context.Background(), bad)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "pipeline.Run", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("records", 3))
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
