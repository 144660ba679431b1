package canvas

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/milk9111/patchbay/graph"
)

func TestMissingSpecWarnsOncePerType(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(nil, nil, nil, nil, log.New(&buf))

	r.warnMissingSpec("mystery")
	r.warnMissingSpec("mystery")
	r.warnMissingSpec("phantom")

	out := buf.String()
	if got := strings.Count(out, "mystery"); got != 1 {
		t.Fatalf("expected one warning for mystery, got %d", got)
	}
	if !strings.Contains(out, "phantom") {
		t.Fatalf("expected a warning for the second unknown type")
	}
}

func TestContentKeyStableAcrossMoves(t *testing.T) {
	mc := NewMetrics(DefaultStyle(), testMeasure)
	spec := oscSpec()
	n := graph.NewNode("osc", 0, 0)

	m1, _ := mc.For(n, spec, 1)
	k1 := contentKey(n, spec, m1, 1)

	n.X, n.Y = 300, 200
	m2, _ := mc.For(n, spec, 1)
	k2 := contentKey(n, spec, m2, 1)

	if k1 != k2 {
		t.Fatalf("expected baked content key to survive a move: %+v vs %+v", k1, k2)
	}

	// a rename changes the baked label, so the key must rotate
	n.Label = "Main LFO"
	m3, _ := mc.For(n, spec, 1)
	k3 := contentKey(n, spec, m3, 1)
	if k3 == k2 {
		t.Fatalf("expected rename to produce a fresh content key")
	}
}
