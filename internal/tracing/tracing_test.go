package tracing

import (
	"context"
	"testing"

	"github.com/wehubfusion/xmlstruct/pkg/config"
)

func TestSetupDisabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TracingConfig{}, "test", nil)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if p.Enabled() {
		t.Error("Expected disabled provider")
	}

	_, span := p.TracerProvider().Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("Expected no-op span from disabled provider")
	}
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}

func TestSetupRequiresEndpoint(t *testing.T) {
	cfg := config.DefaultConfig().Tracing
	cfg.Enabled = true
	cfg.OTLPEndpoint = ""

	if _, err := Setup(context.Background(), cfg, "test", nil); err == nil {
		t.Error("Expected error for missing endpoint")
	}
}

func TestSetupEnabled(t *testing.T) {
	cfg := config.DefaultConfig().Tracing
	cfg.Enabled = true

	// the exporter dials lazily, so no collector is needed until spans are sent
	p, err := Setup(context.Background(), cfg, "test", nil)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if !p.Enabled() {
		t.Fatal("Expected enabled provider")
	}

	_, span := p.TracerProvider().Tracer("test").Start(context.Background(), "batch")
	if !span.SpanContext().IsValid() {
		t.Error("Expected a recording span")
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Logf("Shutdown without collector: %v", err)
	}
}
