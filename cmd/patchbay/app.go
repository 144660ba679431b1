package main

import (
	"github.com/charmbracelet/log"
	ebuiinput "github.com/ebitenui/ebitenui/input"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/patchbay/arrange"
	"github.com/milk9111/patchbay/canvas"
	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
	"github.com/milk9111/patchbay/pipeline"
)

// App is the editor shell: the canvas engine plus the ebitenui chrome
// around it and the host-side plumbing (save, clipboard, hot reload).
type App struct {
	engine *canvas.Engine
	eval   *pipeline.Evaluator
	ui     *editorUI
	logger *log.Logger

	watcher     *catalog.Watcher
	catalogPath string
	patchPath   string
	clipboardOK bool

	width, height int
}

func (a *App) Update() error {
	a.pollWatcher()

	// Typing in a text input suppresses editor hotkeys.
	suppressHotkeys := false
	if a.ui != nil {
		if fw := a.ui.UI.GetFocusedWidget(); fw != nil {
			switch fw.(type) {
			case *widget.TextInput:
				suppressHotkeys = true
			}
		}
	}
	if !suppressHotkeys {
		a.handleHotkeys()
	}

	if a.ui != nil {
		a.ui.UI.Update()
	}

	// Clicks on the chrome must not also hit the canvas underneath, but
	// an in-flight drag keeps receiving input so releases over a panel
	// still end the gesture.
	if !ebuiinput.UIHovered || a.engine.Interaction().Dragging() {
		a.engine.Update()
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	a.engine.Draw(screen)
	if a.ui != nil {
		a.ui.UI.Draw(screen)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.width, a.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func (a *App) handleHotkeys() {
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl)
	switch {
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyS):
		a.save()
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyC):
		a.copySelected()
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyV):
		a.paste()
	case inpututil.IsKeyJustPressed(ebiten.KeyDelete),
		inpututil.IsKeyJustPressed(ebiten.KeyBackspace):
		a.deleteSelection()
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		a.renameSelected()
	}
}

// pollWatcher drains pending catalog file events without blocking the
// tick. A reload that fails to parse keeps the current catalog.
func (a *App) pollWatcher() {
	if a.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-a.watcher.Events:
			if !ok {
				a.watcher = nil
				return
			}
			cat, err := catalog.Load(path)
			if err != nil {
				a.logger.Warn("catalog reload failed, keeping current", "path", path, "err", err)
				continue
			}
			a.engine.SetCatalog(cat)
			a.eval.SetCatalog(cat)
			a.refreshPalette(cat)
			a.logger.Info("catalog reloaded", "path", path)
		case err, ok := <-a.watcher.Errors:
			if !ok {
				a.watcher = nil
				return
			}
			a.logger.Warn("catalog watcher", "err", err)
		default:
			return
		}
	}
}

func (a *App) refreshPalette(cat *catalog.Catalog) {
	if a.ui == nil || a.ui.NodeList == nil {
		return
	}
	entries := nodeEntries(cat)
	items := make([]any, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	a.ui.NodeList.SetEntries(items)
}

// addNode drops a new node of the given type at the viewport center.
func (a *App) addNode(key string) {
	tr := a.engine.Transform()
	center := tr.ScreenToCanvas(canvas.Point{
		X: float64(a.width) / 2,
		Y: float64(a.height) / 2,
	})
	n := graph.NewNode(key, center.X, center.Y)
	g := a.engine.Graph()
	g.AddNode(n)
	g.Select(n.ID, false)
	a.engine.Invalidate(n.ID, true)
	a.logger.Debug("node added", "type", key, "id", n.ID)
}

func (a *App) deleteSelection() {
	g := a.engine.Graph()
	sel := append([]string(nil), g.View.Selection...)
	for _, id := range sel {
		if _, ok := g.RemoveNode(id); ok {
			a.eval.Forget(id)
			a.engine.Invalidate(id, true)
		}
	}
	if len(sel) > 0 {
		a.logger.Debug("selection deleted", "nodes", len(sel))
	}
}

func (a *App) renameSelected() {
	g := a.engine.Graph()
	if len(g.View.Selection) != 1 || a.ui == nil {
		return
	}
	n := g.NodeByID(g.View.Selection[0])
	if n == nil {
		return
	}
	a.ui.OpenRename(n.ID, n.Label)
}

func (a *App) save() {
	path := a.patchPath
	if path == "" {
		path = "patch.yaml"
	}
	if err := graph.Save(a.engine.Graph(), path); err != nil {
		a.logger.Error("save patch", "path", path, "err", err)
		return
	}
	a.logger.Info("patch saved", "path", path)
}

func (a *App) tidy() {
	moved := arrange.Tidy(a.engine.Graph(), a.engine.NodeSize, arrange.Options{})
	for _, id := range moved {
		a.engine.Invalidate(id, true)
	}
	a.logger.Info("tidied", "moved", len(moved))
}

func (a *App) copySelected() {
	if !a.clipboardOK {
		a.logger.Warn("clipboard unavailable")
		return
	}
	n, err := copySelection(a.engine.Graph())
	if err != nil {
		a.logger.Error("copy", "err", err)
		return
	}
	if n > 0 {
		a.logger.Debug("copied", "nodes", n)
	}
}

func (a *App) paste() {
	if !a.clipboardOK {
		a.logger.Warn("clipboard unavailable")
		return
	}
	ids, err := pasteClipboard(a.engine.Graph())
	if err != nil {
		a.logger.Error("paste", "err", err)
		return
	}
	for _, id := range ids {
		a.engine.Invalidate(id, true)
	}
	if len(ids) > 0 {
		a.logger.Debug("pasted", "nodes", len(ids))
	}
}

func nodeEntries(cat *catalog.Catalog) []nodeEntry {
	keys := cat.Keys()
	entries := make([]nodeEntry, 0, len(keys))
	for _, key := range keys {
		label := key
		if spec, ok := cat.Spec(key); ok && spec.Label != "" {
			label = spec.Label
		}
		entries = append(entries, nodeEntry{Key: key, Label: label})
	}
	return entries
}
