package main

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/iafilius/StateScatter/src/chart"
	"github.com/iafilius/StateScatter/src/dataset"
	"github.com/iafilius/StateScatter/src/export"
	"github.com/iafilius/StateScatter/src/logging"
)

// RunScreenshotsMode renders the chart once per selectable x field and
// writes the PNGs under outDir. It runs headlessly without creating a UI window.
func RunScreenshotsMode(dataPath, outDir string) error {
	if dataPath == "" {
		dataPath = dataset.DefaultSource
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	ds, err := dataset.LoadDataset(context.Background(), dataPath)
	if err != nil {
		return err
	}
	ctrl := chart.NewController(ds, nil, chart.DefaultLayout())
	for _, f := range dataset.SelectableX {
		snap, err := ctrl.SnapshotFor(f)
		if err != nil {
			return err
		}
		img, err := export.Image(snap)
		if err != nil {
			return fmt.Errorf("render %s: %w", f, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("png encode %s: %w", f, err)
		}
		outPath := filepath.Join(outDir, screenshotName(f))
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		logging.Infof("wrote %s", outPath)
	}
	return nil
}

func screenshotName(f dataset.Field) string { return "scatter_" + string(f) + ".png" }
