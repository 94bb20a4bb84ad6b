package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/iafilius/StateScatter/src/chart"
	"github.com/iafilius/StateScatter/src/dataset"
	"github.com/iafilius/StateScatter/src/export"
	"github.com/iafilius/StateScatter/src/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("scatterexport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var data, field, format, out, level string
	fs.StringVar(&data, "data", dataset.DefaultSource, "CSV path or http(s) URL")
	fs.StringVar(&field, "field", string(dataset.FieldPoverty), "x field: poverty or income")
	fs.StringVar(&format, "format", "", "png or svg (default: from -out extension, else png)")
	fs.StringVar(&out, "out", "scatter.png", "output file, - for stdout")
	fs.StringVar(&level, "log-level", "info", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !logging.SetLogLevel(level) {
		fmt.Fprintf(stderr, "error: unknown log level %q\n", level)
		return 2
	}
	f, ok := dataset.ParseField(field)
	if !ok || !f.IsSelectableX() {
		fmt.Fprintf(stderr, "error: %v: %q\n", chart.ErrUnknownField, field)
		return 2
	}
	if format == "" {
		format = "png"
		if ext := filepath.Ext(out); out != "-" && ext != "" {
			format = ext
		}
	}
	ff, err := export.ParseFormat(format)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ds, err := dataset.LoadDataset(ctx, data)
	if err != nil {
		var le *dataset.LoadError
		if errors.As(err, &le) {
			logging.Errorf("load %s failed at %s stage: %v", le.Source, le.Stage, le.Err)
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	snap, err := chart.NewController(ds, nil, chart.DefaultLayout()).SnapshotFor(f)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	w := stdout
	if out != "-" {
		file, err := os.Create(out)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		defer file.Close()
		w = file
	}
	if err := export.Render(w, snap, ff); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if out != "-" {
		fmt.Fprintf(stdout, "States: %d\n", len(ds))
		fmt.Fprintf(stdout, "X: %s [%s, %s]\n", chart.AxisLabel(f), chart.FormatValue(snap.XScale.Domain[0]), chart.FormatValue(snap.XScale.Domain[1]))
		fmt.Fprintf(stdout, "Y: %s [%s, %s]\n", chart.AxisLabel(dataset.FieldHealthcare), chart.FormatValue(snap.YScale.Domain[0]), chart.FormatValue(snap.YScale.Domain[1]))
		fmt.Fprintf(stdout, "Wrote %s\n", out)
	}
	return 0
}
