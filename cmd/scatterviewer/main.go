package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/iafilius/StateScatter/cmd/scatterviewer/uihelpers"
	"github.com/iafilius/StateScatter/src/chart"
	"github.com/iafilius/StateScatter/src/dataset"
	"github.com/iafilius/StateScatter/src/export"
	"github.com/iafilius/StateScatter/src/logging"
)

type uiState struct {
	app      fyne.App
	window   fyne.Window
	dataPath string

	surface *fyneSurface
	ctrl    *chart.Controller
	cancel  context.CancelFunc
	status  *widget.Label
}

func main() {
	var dataFlag, levelFlag, screenshotDir string
	flag.StringVar(&dataFlag, "data", dataset.DefaultSource, "CSV path or http(s) URL")
	flag.StringVar(&levelFlag, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&screenshotDir, "screenshot", "", "render one PNG per x field into this directory and exit")
	flag.Parse()
	if !logging.SetLogLevel(levelFlag) {
		fmt.Fprintf(os.Stderr, "unknown log level %q\n", levelFlag)
		os.Exit(2)
	}

	if screenshotDir != "" {
		if err := RunScreenshotsMode(dataFlag, screenshotDir); err != nil {
			logging.Errorf("screenshots: %v", err)
			os.Exit(1)
		}
		return
	}

	a := app.NewWithID("com.statescatter.viewer")
	w := a.NewWindow("State Scatter")
	l := chart.DefaultLayout()
	w.Resize(fyne.NewSize(uihelpers.ComputeWindowSize(l.Width, l.Height)))

	state := &uiState{app: a, window: w, dataPath: dataFlag, status: widget.NewLabel("")}
	buildMenus(state)
	loadAll(state)
	w.SetOnClosed(func() {
		if state.cancel != nil {
			state.cancel()
		}
	})
	w.ShowAndRun()
}

// menus and dialogs
func buildMenus(state *uiState) {
	exportPNG := fyne.NewMenuItem("Export PNG…", func() { exportChart(state, export.PNG) })
	exportSVG := fyne.NewMenuItem("Export SVG…", func() { exportChart(state, export.SVG) })
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Reload", func() { loadAll(state) }),
		fyne.NewMenuItemSeparator(),
		exportPNG,
		exportSVG,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { state.window.Close() }),
	)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu))

	canv := state.window.Canvas()
	if canv != nil {
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { loadAll(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { loadAll(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { state.window.Close() })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { state.window.Close() })
	}
}

// loadAll loads the dataset and draws a fresh chart. On failure the window
// keeps no chart and the error is shown.
func loadAll(state *uiState) {
	if state.cancel != nil {
		state.cancel()
		state.cancel = nil
	}
	state.ctrl = nil
	ds, err := dataset.LoadDataset(context.Background(), state.dataPath)
	if err != nil {
		logging.Errorf("%v", err)
		state.status.SetText("Could not load " + state.dataPath)
		state.window.SetContent(container.NewVBox(state.status))
		dialog.ShowError(err, state.window)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	surface := newFyneSurface()
	ctrl := chart.NewController(ds, surface, chart.DefaultLayout())
	if err := ctrl.Draw(ctx); err != nil {
		cancel()
		logging.Errorf("draw: %v", err)
		return
	}
	state.surface, state.ctrl, state.cancel = surface, ctrl, func() { ctrl.Close(); cancel() }
	state.status.SetText(fmt.Sprintf("%d states from %s", len(ds), uihelpers.TruncatePath(state.dataPath, 60)))
	state.window.SetContent(container.NewBorder(nil, state.status, nil, nil, surface.Content()))
	logging.Infof("[viewer] loaded %d states", len(ds))
}

func exportChart(state *uiState, f export.Format) {
	if state.ctrl == nil {
		dialog.ShowInformation("Export", "No chart to export.", state.window)
		return
	}
	snap := state.ctrl.Snapshot()
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := export.Render(wc, snap, f); err != nil {
			dialog.ShowError(err, state.window)
		}
	}, state.window)
	fs.SetFileName("scatter_" + string(snap.Field) + "." + string(f))
	fs.Show()
}
