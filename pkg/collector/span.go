package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stleox/seecov/pkg/config"
	attr "go.opentelemetry.io/otel/attribute"
	sdktr "go.opentelemetry.io/otel/sdk/trace"
	tr "go.opentelemetry.io/otel/trace"
)

// ExportSpans emits one span per traced file summarizing its observation
// counts, for looking at a measurement session in a trace UI. Call after
// Stop; no-op unless an exporter was initialized.
func (c *Collector) ExportSpans(ctx context.Context) error {
	if c.tracerProvider == nil {
		return nil
	}
	tracer := c.tracerProvider.Tracer("seecov")
	now := time.Now()

	for file, fd := range c.data {
		startOpts := make([]tr.SpanStartOption, 0)
		startOpts = append(startOpts, tr.WithTimestamp(now))
		startOpts = append(startOpts, tr.WithAttributes(
			attr.String("file", file),
			attr.Int("lines", len(fd.Lines)),
			attr.Int("arcs", len(fd.Arcs)),
			attr.String("plugin", c.pluginData[file]),
		))

		_, span := tracer.Start(ctx, file, startOpts...)
		span.End(tr.WithTimestamp(now))

		if config.Debug {
			// try to convert to sdktr.ReadOnlySpan
			switch s := span.(type) {
			case sdktr.ReadOnlySpan:
				logrus.Debugf("span name: %s, span id: %s",
					s.Name(), s.SpanContext().SpanID())
			default:
				logrus.Debugf("can't convert to ReadOnlySpan, span id: %s", span.SpanContext().SpanID())
			}
		}
	}
	return nil
}
