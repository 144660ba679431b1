// Package pipeline is the downstream consumer of parameter commits: a
// per-node-type preview expression, compiled once per catalog, that
// recomputes a scalar preview whenever a parameter changes. Evaluation
// runs off the UI thread and reports completion on a channel the render
// orchestrator polls before painting.
package pipeline

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/patchbay/catalog"
	"github.com/milk9111/patchbay/graph"
)

// Evaluator holds the compiled preview expressions and the last result
// per node.
type Evaluator struct {
	logger *log.Logger

	compiled map[string]*tengo.Compiled // by spec key

	mu      sync.Mutex
	results map[string]float64 // by node id
}

func NewEvaluator(logger *log.Logger) *Evaluator {
	if logger == nil {
		logger = log.Default()
	}
	return &Evaluator{
		logger:   logger,
		compiled: make(map[string]*tengo.Compiled),
		results:  make(map[string]float64),
	}
}

// SetCatalog compiles every declared preview expression. A type whose
// expression fails to compile simply has no preview; the error is
// logged once here, not per evaluation.
func (e *Evaluator) SetCatalog(cat *catalog.Catalog) {
	e.compiled = make(map[string]*tengo.Compiled)
	e.mu.Lock()
	e.results = make(map[string]float64)
	e.mu.Unlock()
	if cat == nil {
		return
	}

	for _, key := range cat.Keys() {
		spec, ok := cat.Spec(key)
		if !ok || spec.Preview == "" {
			continue
		}
		compiled, err := compilePreview(spec.Preview)
		if err != nil {
			e.logger.Error("preview expression rejected", "type", key, "err", err)
			continue
		}
		e.compiled[key] = compiled
	}
}

func compilePreview(src string) (*tengo.Compiled, error) {
	script := tengo.NewScript([]byte(src))
	_ = script.Add("params", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	return script.Compile()
}

// Apply schedules a preview recomputation for the node. The returned
// channel closes when the result has landed; nil means this node type
// has no preview and there is nothing to wait for.
func (e *Evaluator) Apply(n *graph.Node, spec *catalog.NodeSpec) <-chan struct{} {
	if n == nil || spec == nil {
		return nil
	}
	compiled, ok := e.compiled[spec.Key]
	if !ok {
		return nil
	}

	params := snapshotParams(n, spec)
	clone := compiled.Clone()
	nodeID := n.ID
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := clone.Set("params", params); err != nil {
			e.logger.Error("preview bind failed", "node", nodeID, "err", err)
			return
		}
		if err := clone.Run(); err != nil {
			e.logger.Error("preview run failed", "node", nodeID, "err", err)
			return
		}
		if !clone.IsDefined("preview") {
			return
		}
		e.mu.Lock()
		e.results[nodeID] = clone.Get("preview").Float()
		e.mu.Unlock()
	}()
	return done
}

// Preview returns the last computed preview for a node.
func (e *Evaluator) Preview(nodeID string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.results[nodeID]
	return v, ok
}

// Forget drops a removed node's result.
func (e *Evaluator) Forget(nodeID string) {
	e.mu.Lock()
	delete(e.results, nodeID)
	e.mu.Unlock()
}

// snapshotParams flattens the node's effective parameter values into a
// map tengo can consume: numbers, float slices, and strings.
func snapshotParams(n *graph.Node, spec *catalog.NodeSpec) map[string]any {
	out := make(map[string]any, len(spec.Params))
	for name, ps := range spec.Params {
		if ps == nil {
			continue
		}
		if v, ok := n.Params[name]; ok {
			switch v.Kind {
			case graph.ValueNumber:
				out[name] = v.Number
			case graph.ValueArray:
				vals := make([]any, len(v.Array))
				for i, f := range v.Array {
					vals[i] = f
				}
				out[name] = vals
			case graph.ValueString:
				out[name] = v.Str
			}
			continue
		}
		out[name] = ps.Default
	}
	return out
}

// String renders a preview for display, used by the toolbar status.
func (e *Evaluator) String(nodeID string) string {
	if v, ok := e.Preview(nodeID); ok {
		return fmt.Sprintf("%.3f", v)
	}
	return ""
}
