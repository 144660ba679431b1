package graph

import "testing"

func TestConnectReplacesOccupiedTarget(t *testing.T) {
	cases := []struct {
		name  string
		port  string
		param string
	}{
		{"input_port", "in", ""},
		{"parameter", "", "speed"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := New()
			a := g.AddNode(NewNode("osc", 0, 0))
			b := g.AddNode(NewNode("blur", 100, 0))
			d := g.AddNode(NewNode("noise", 0, 100))

			var first, second *Connection
			if c.param != "" {
				first = NewParamConnection(a.ID, "out", b.ID, c.param)
				second = NewParamConnection(d.ID, "out", b.ID, c.param)
			} else {
				first = NewPortConnection(a.ID, "out", b.ID, c.port)
				second = NewPortConnection(d.ID, "out", b.ID, c.port)
			}

			if displaced := g.Connect(first); displaced != nil {
				t.Fatalf("expected no displaced connection, got %v", displaced.ID)
			}
			displaced := g.Connect(second)
			if displaced == nil || displaced.ID != first.ID {
				t.Fatalf("expected first connection displaced, got %v", displaced)
			}

			count := 0
			for _, conn := range g.Connections {
				if conn.TargetNode == b.ID && conn.TargetPort == c.port && conn.TargetParam == c.param {
					count++
				}
			}
			if count != 1 {
				t.Fatalf("expected exactly one connection at target, got %d", count)
			}
		})
	}
}

func TestRemoveNodeDropsConnections(t *testing.T) {
	g := New()
	a := g.AddNode(NewNode("osc", 0, 0))
	b := g.AddNode(NewNode("blur", 100, 0))
	cn := g.AddNode(NewNode("mix", 200, 0))
	g.Connect(NewPortConnection(a.ID, "out", b.ID, "in"))
	g.Connect(NewPortConnection(b.ID, "out", cn.ID, "a"))

	removed, ok := g.RemoveNode(b.ID)
	if !ok {
		t.Fatalf("expected removal to succeed")
	}
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed connections, got %d", len(removed))
	}
	if len(g.Connections) != 0 {
		t.Fatalf("expected no surviving connections, got %d", len(g.Connections))
	}
	if g.NodeByID(b.ID) != nil {
		t.Fatalf("expected node lookup to fail after removal")
	}
}

func TestSelection(t *testing.T) {
	g := New()
	a := g.AddNode(NewNode("osc", 0, 0))
	b := g.AddNode(NewNode("blur", 1, 1))

	g.Select(a.ID, false)
	if !g.IsSelected(a.ID) || g.IsSelected(b.ID) {
		t.Fatalf("expected only a selected")
	}
	g.Select(b.ID, true)
	if len(g.View.Selection) != 2 {
		t.Fatalf("expected additive select to keep both, got %v", g.View.Selection)
	}
	g.Select(b.ID, false)
	if g.IsSelected(a.ID) || !g.IsSelected(b.ID) {
		t.Fatalf("expected replace select to keep only b")
	}
	g.ClearSelection()
	if len(g.View.Selection) != 0 {
		t.Fatalf("expected empty selection")
	}
}

func TestInputModeCycle(t *testing.T) {
	n := NewNode("osc", 0, 0)
	want := []InputMode{ModeAdd, ModeSubtract, ModeMultiply, ModeOverride}
	for i, w := range want {
		n.SetMode("speed", n.Mode("speed").Next())
		if got := n.Mode("speed"); got != w {
			t.Fatalf("cycle %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestParseInputMode(t *testing.T) {
	cases := []struct {
		in   string
		want InputMode
		ok   bool
	}{
		{"override", ModeOverride, true},
		{"add", ModeAdd, true},
		{"subtract", ModeSubtract, true},
		{"multiply", ModeMultiply, true},
		{"", ModeOverride, false},
		{"divide", ModeOverride, false},
	}
	for _, c := range cases {
		got, ok := ParseInputMode(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("ParseInputMode(%q) = %v %v, want %v %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestModeOrDefaultsUntilSet(t *testing.T) {
	n := NewNode("osc", 0, 0)
	if got := n.ModeOr("speed", ModeAdd); got != ModeAdd {
		t.Fatalf("expected fallback add for unset mode, got %v", got)
	}
	n.SetMode("speed", ModeOverride)
	if got := n.ModeOr("speed", ModeAdd); got != ModeOverride {
		t.Fatalf("expected stored override to win, got %v", got)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	g := New()
	n := NewNode("osc", 12, 34)
	n.SetParam("speed", Num(2.5))
	n.SetParam("offsets", Arr(1, 2, 3))
	n.SetMode("speed", ModeMultiply)
	g.AddNode(n)
	g.Connect(NewParamConnection(n.ID, "out", n.ID, "speed"))
	g.View.Zoom = 2

	b, err := Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(b)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	gn := got.NodeByID(n.ID)
	if gn == nil {
		t.Fatalf("expected node to survive round trip")
	}
	if v, _ := gn.Param("offsets"); v.Len() != 3 {
		t.Fatalf("expected 3 offsets, got %d", v.Len())
	}
	if gn.Mode("speed") != ModeMultiply {
		t.Fatalf("expected multiply mode, got %v", gn.Mode("speed"))
	}
	if got.View.Zoom != 2 {
		t.Fatalf("expected zoom 2, got %v", got.View.Zoom)
	}
}

func TestUnmarshalNormalizesZoom(t *testing.T) {
	got, err := Unmarshal([]byte("nodes: []\nview: {pan_x: 0, pan_y: 0, zoom: 0}\n"))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.View.Zoom != 1 {
		t.Fatalf("expected zoom normalized to 1, got %v", got.View.Zoom)
	}
}
