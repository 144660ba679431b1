package main

import (
	"errors"
	"flag"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.design/x/clipboard"

	"github.com/milk9111/patchbay/assets"
	"github.com/milk9111/patchbay/canvas"
	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/config"
	"github.com/milk9111/patchbay/graph"
	"github.com/milk9111/patchbay/pipeline"
)

func main() {
	configPath := flag.String("config", "", "config file (TOML); defaults to the user config dir")
	catalogPath := flag.String("catalog", "", "node catalog YAML; overrides the config")
	patchPath := flag.String("patch", "", "patch file to open and save to")
	debug := flag.Bool("debug", false, "force debug logging")
	flag.Parse()

	cfgFile := *configPath
	if cfgFile == "" {
		cfgFile = config.DefaultPath()
	}
	cfg := config.Load(cfgFile)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "patchbay",
	})
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	catPath := cfg.Catalog.Path
	if *catalogPath != "" {
		catPath = *catalogPath
	}
	var (
		cat *catalog.Catalog
		err error
	)
	if catPath != "" {
		cat, err = catalog.Load(catPath)
		if err != nil {
			logger.Fatal("load catalog", "path", catPath, "err", err)
		}
	} else {
		cat, err = assets.DefaultCatalog()
		if err != nil {
			logger.Fatal("embedded catalog", "err", err)
		}
	}

	var doc *graph.Graph
	if *patchPath != "" {
		doc, err = graph.Load(*patchPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Info("patch file missing, starting empty", "path", *patchPath)
				doc = graph.New()
			} else {
				logger.Fatal("load patch", "path", *patchPath, "err", err)
			}
		}
	} else {
		doc, err = assets.DemoPatch()
		if err != nil {
			logger.Fatal("embedded patch", "err", err)
		}
	}

	eval := pipeline.NewEvaluator(logger)
	eval.SetCatalog(cat)

	app := &App{
		eval:        eval,
		logger:      logger,
		catalogPath: catPath,
		patchPath:   *patchPath,
	}

	events := &canvas.Events{
		ParameterChanged: func(nodeID, param string, value graph.Value) <-chan struct{} {
			g := app.engine.Graph()
			n := g.NodeByID(nodeID)
			if n == nil {
				return nil
			}
			spec, ok := app.engine.Catalog().Spec(n.Type)
			if !ok {
				return nil
			}
			logger.Debug("param changed", "node", nodeID, "param", param, "value", value.String())
			return eval.Apply(n, spec)
		},
		ConnectionCreated: func(c *graph.Connection) {
			logger.Debug("connected", "from", c.SourceNode, "to", c.TargetNode)
		},
		ConnectionRemoved: func(id string) {
			logger.Debug("disconnected", "connection", id)
		},
		LabelEditRequested: func(nodeID string, bounds canvas.Rect) {
			n := app.engine.Graph().NodeByID(nodeID)
			if n == nil {
				return
			}
			app.ui.OpenRename(nodeID, n.Label)
		},
		TypeBadgeClicked: func(pt catalog.PortType, x, y float64, bounds canvas.Rect) {
			logger.Debug("type badge", "type", string(pt))
		},
	}

	engine, err := canvas.NewEngine(styleFromConfig(cfg), events, logger)
	if err != nil {
		logger.Fatal("canvas engine", "err", err)
	}
	engine.SetCatalog(cat)
	engine.SetGraph(doc)
	engine.Transform().MinZoom = cfg.View.MinZoom
	engine.Transform().MaxZoom = cfg.View.MaxZoom
	app.engine = engine

	ui, err := buildUI(
		nodeEntries(cat),
		app.addNode,
		app.save,
		app.tidy,
		app.copySelected,
		app.paste,
		engine.SetLabel,
	)
	if err != nil {
		logger.Fatal("build ui", "err", err)
	}
	app.ui = ui

	if cfg.Catalog.Reload && catPath != "" {
		watcher, err := catalog.NewWatcher(catPath)
		if err != nil {
			logger.Warn("catalog watcher unavailable", "err", err)
		} else {
			app.watcher = watcher
			defer watcher.Close()
		}
	}

	if err := clipboard.Init(); err != nil {
		logger.Warn("clipboard unavailable", "err", err)
	} else {
		app.clipboardOK = true
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)

	if err := ebiten.RunGame(app); err != nil {
		logger.Fatal("run", "err", err)
	}
}

// styleFromConfig overlays the user-tunable values on the stock theme.
func styleFromConfig(cfg *config.Config) *canvas.StyleMap {
	style := canvas.DefaultStyle()
	style.Metrics["grid.spacing"] = cfg.View.GridSpacing
	if cfg.Guides.Enabled {
		style.Metrics["guide.threshold_px"] = cfg.Guides.Threshold
	} else {
		style.Metrics["guide.threshold_px"] = 0
	}
	return style
}
