package collector

import (
	"context"
	"fmt"

	attr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktr "go.opentelemetry.io/otel/sdk/trace"
)

type tracerProvider = *sdktr.TracerProvider

func (c *Collector) InitGRPCExporter(shutdownCtx context.Context) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(shutdownCtx)
	if err != nil {
		return nil, fmt.Errorf("creating gRPC exporter: %w", err)
	}

	c.tracerProvider = sdktr.NewTracerProvider(
		sdktr.WithBatcher(exporter),
		sdktr.WithResource(resource.Empty()))

	return c.tracerProvider.Shutdown, nil
}

func (c *Collector) InitStdoutExporter() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("creating stdout exporter: %w", err)
	}

	c.tracerProvider = sdktr.NewTracerProvider(
		sdktr.WithBatcher(exporter),
		sdktr.WithResource(resource.Empty()))

	return c.tracerProvider.Shutdown, nil
}

// InitDummyExporter only for testing purposes
func (c *Collector) InitDummyExporter() (func(context.Context) error, error) {
	c.tracerProvider = sdktr.NewTracerProvider(
		sdktr.WithResource(resource.NewSchemaless(attr.Bool("debug", true))),
	)
	return c.tracerProvider.Shutdown, nil
}
