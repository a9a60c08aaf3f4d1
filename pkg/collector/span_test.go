package collector

import (
	"context"
	"testing"

	r "github.com/stretchr/testify/require"
)

func TestExportSpans(t *testing.T) {
	c := mockCollector(false)
	fn := c.Start()

	f := &SimFrame{File: "a.py", Func: "f", Line: 10, First: 10}
	r.NoError(t, fn(f, "call", nil, 0))
	r.NoError(t, fn(f, "line", nil, 10))
	r.NoError(t, fn(f, "return", nil, 10))
	c.Stop()

	ctx := context.Background()
	shutdown, err := c.InitDummyExporter()
	r.NoError(t, err)
	defer func() {
		r.NoError(t, shutdown(ctx))
	}()

	r.NoError(t, c.ExportSpans(ctx))
}

func TestExportSpans_NoProvider(t *testing.T) {
	c := mockCollector(false)
	// without an exporter, exporting is a clean no-op
	r.NoError(t, c.ExportSpans(context.Background()))
}
