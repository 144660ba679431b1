package main

import (
	"bytes"
	"image/color"

	"github.com/ebitenui/ebitenui"
	eimage "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// nodeEntry is one row in the node palette list.
type nodeEntry struct {
	Key   string
	Label string
}

// editorUI bundles the ebitenui tree with the handles the app mutates
// at runtime.
type editorUI struct {
	UI         *ebitenui.UI
	NodeList   *widget.List
	OpenRename func(nodeID, current string)
}

func solidNineSlice(c color.Color) *eimage.NineSlice {
	return eimage.NewNineSliceColor(c)
}

func newCanvasTheme(fontFace *text.Face) *widget.Theme {
	return &widget.Theme{
		ListTheme: &widget.ListParams{
			EntryFace: fontFace,
			EntryColor: &widget.ListEntryColor{
				Unselected:          color.RGBA{210, 214, 220, 255},
				Selected:            color.White,
				DisabledUnselected:  color.Gray{Y: 110},
				DisabledSelected:    color.Gray{Y: 90},
				SelectingBackground: color.RGBA{58, 66, 82, 255},
				SelectedBackground:  color.RGBA{70, 100, 160, 255},
			},
			ScrollContainerImage: &widget.ScrollContainerImage{
				Idle: solidNineSlice(color.RGBA{34, 38, 46, 255}),
				Mask: solidNineSlice(color.RGBA{34, 38, 46, 255}),
			},
		},
		PanelTheme: &widget.PanelParams{
			BackgroundImage: solidNineSlice(color.RGBA{30, 33, 40, 255}),
		},
		ButtonTheme: &widget.ButtonParams{
			Image: &widget.ButtonImage{
				Idle:    solidNineSlice(color.RGBA{56, 62, 74, 255}),
				Hover:   solidNineSlice(color.RGBA{72, 80, 96, 255}),
				Pressed: solidNineSlice(color.RGBA{46, 52, 64, 255}),
			},
			TextFace: fontFace,
			TextColor: &widget.ButtonTextColor{
				Idle: color.RGBA{225, 228, 235, 255},
			},
		},
	}
}

// buildUI assembles the toolbar, the node palette, and the rename
// dialog around the canvas.
func buildUI(
	entries []nodeEntry,
	onAddNode func(key string),
	onSave func(),
	onTidy func(),
	onCopy func(),
	onPaste func(),
	onRename func(nodeID, label string),
) (*editorUI, error) {
	ui := &ebitenui.UI{}

	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, err
	}
	var fontFace text.Face = &text.GoTextFace{Source: s, Size: 14}
	ui.PrimaryTheme = newCanvasTheme(&fontFace)

	toolbar := buildToolbar(ui.PrimaryTheme, &fontFace, onSave, onTidy, onCopy, onPaste)
	palette, nodeList := buildNodePalette(ui.PrimaryTheme, &fontFace, entries, onAddNode)
	renameOverlay, openRename := buildRenameDialog(ui.PrimaryTheme, &fontFace, onRename)

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	toolbar.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionCenter,
		VerticalPosition:   widget.AnchorLayoutPositionStart,
	}
	palette.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionStart,
		VerticalPosition:   widget.AnchorLayoutPositionCenter,
		StretchVertical:    true,
	}
	renameOverlay.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionCenter,
		VerticalPosition:   widget.AnchorLayoutPositionCenter,
		StretchHorizontal:  true,
		StretchVertical:    true,
	}
	root.AddChild(toolbar)
	root.AddChild(palette)
	root.AddChild(renameOverlay)

	ui.Container = root
	return &editorUI{UI: ui, NodeList: nodeList, OpenRename: openRename}, nil
}

func buildToolbar(theme *widget.Theme, fontFace *text.Face, onSave, onTidy, onCopy, onPaste func()) *widget.Container {
	toolbar := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(220, 44),
		),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{30, 33, 40, 235})),
	)

	actions := []struct {
		name string
		fn   func()
	}{
		{"Save", onSave},
		{"Tidy", onTidy},
		{"Copy", onCopy},
		{"Paste", onPaste},
	}
	for _, a := range actions {
		fn := a.fn
		btn := widget.NewButton(
			widget.ButtonOpts.Image(theme.ButtonTheme.Image),
			widget.ButtonOpts.Text(a.name, fontFace, theme.ButtonTheme.TextColor),
			widget.ButtonOpts.WidgetOpts(
				widget.WidgetOpts.MinSize(56, 32),
			),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				if fn != nil {
					fn()
				}
			}),
		)
		toolbar.AddChild(btn)
	}
	return toolbar
}

func buildNodePalette(theme *widget.Theme, fontFace *text.Face, entries []nodeEntry, onAddNode func(key string)) (*widget.Container, *widget.List) {
	panel := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(170, 1),
		),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{30, 33, 40, 235})),
	)

	title := widget.NewLabel(
		widget.LabelOpts.Text("Nodes", fontFace, &widget.LabelColor{
			Idle:     color.RGBA{225, 228, 235, 255},
			Disabled: color.Gray{Y: 140},
		}),
	)
	panel.AddChild(title)

	items := make([]any, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	nodeList := widget.NewList(
		widget.ListOpts.Entries(items),
		widget.ListOpts.EntryLabelFunc(func(e any) string {
			if entry, ok := e.(nodeEntry); ok {
				return entry.Label
			}
			return ""
		}),
		widget.ListOpts.EntrySelectedHandler(func(args *widget.ListEntrySelectedEventArgs) {
			entry, ok := args.Entry.(nodeEntry)
			if !ok || onAddNode == nil {
				return
			}
			onAddNode(entry.Key)
		}),
	)
	panel.AddChild(nodeList)
	return panel, nodeList
}

func buildRenameDialog(theme *widget.Theme, fontFace *text.Face, onRename func(nodeID, label string)) (*widget.Container, func(nodeID, current string)) {
	var targetID string

	overlay := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(1, 1),
		),
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{0, 0, 0, 160})),
	)
	overlay.GetWidget().Visibility = widget.Visibility_Hide

	dialog := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(320, 130),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{44, 48, 58, 255})),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
	)
	dialog.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionCenter,
		VerticalPosition:   widget.AnchorLayoutPositionCenter,
	}

	hide := func() {
		overlay.GetWidget().Visibility = widget.Visibility_Hide
		targetID = ""
	}

	label := widget.NewLabel(
		widget.LabelOpts.Text("Rename node", fontFace, &widget.LabelColor{
			Idle:     color.RGBA{225, 228, 235, 255},
			Disabled: color.Gray{Y: 140},
		}),
	)
	input := widget.NewTextInput(
		widget.TextInputOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(280, 28),
		),
		widget.TextInputOpts.Image(&widget.TextInputImage{
			Idle:     solidNineSlice(color.RGBA{24, 26, 32, 255}),
			Disabled: solidNineSlice(color.RGBA{40, 42, 48, 255}),
		}),
		widget.TextInputOpts.Color(&widget.TextInputColor{
			Idle:     color.RGBA{225, 228, 235, 255},
			Disabled: color.Gray{Y: 120},
			Caret:    color.White,
		}),
		widget.TextInputOpts.Face(fontFace),
		widget.TextInputOpts.SubmitOnEnter(true),
		widget.TextInputOpts.SubmitHandler(func(args *widget.TextInputChangedEventArgs) {
			if targetID != "" && onRename != nil {
				onRename(targetID, args.InputText)
			}
			hide()
		}),
	)

	buttons := widget.NewContainer(
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
	)
	okBtn := widget.NewButton(
		widget.ButtonOpts.Image(theme.ButtonTheme.Image),
		widget.ButtonOpts.Text("OK", fontFace, theme.ButtonTheme.TextColor),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			if targetID != "" && onRename != nil {
				onRename(targetID, input.GetText())
			}
			hide()
		}),
	)
	cancelBtn := widget.NewButton(
		widget.ButtonOpts.Image(theme.ButtonTheme.Image),
		widget.ButtonOpts.Text("Cancel", fontFace, theme.ButtonTheme.TextColor),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			hide()
		}),
	)
	buttons.AddChild(okBtn)
	buttons.AddChild(cancelBtn)

	dialog.AddChild(label)
	dialog.AddChild(input)
	dialog.AddChild(buttons)
	overlay.AddChild(dialog)

	open := func(nodeID, current string) {
		targetID = nodeID
		input.SetText(current)
		input.Focus(true)
		overlay.GetWidget().Visibility = widget.Visibility_Show
	}
	return overlay, open
}
