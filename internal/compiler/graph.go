package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rill/internal/ir"
)

// Graph is a compiled set of labeled signal descriptors.
type Graph struct {
	inputs map[string]ir.InputRef
	nodes  map[string]*ir.Node
	order  []string
}

// Node returns the descriptor for label (input or derived).
func (g *Graph) Node(label string) (*ir.Node, bool) {
	n, ok := g.nodes[label]
	return n, ok
}

// Input returns the InputRef allocated for an input label.
func (g *Graph) Input(label string) (ir.InputRef, bool) {
	ref, ok := g.inputs[label]
	return ref, ok
}

// IsInput reports whether label names an input.
func (g *Graph) IsInput(label string) bool {
	_, ok := g.inputs[label]
	return ok
}

// Labels returns every label in declaration order, inputs first.
func (g *Graph) Labels() []string {
	return slices.Clone(g.order)
}

// Len returns the number of labels.
func (g *Graph) Len() int { return len(g.order) }

type nodeDef struct {
	op    ir.Op
	left  string
	right string
	pos   token.Pos
}

// CompileGraph parses a CUE value holding "input" and "node" structs.
//
// Node operands are resolved recursively; a reference loop is reported as a
// CompileError with Field "cycle".
func CompileGraph(v cue.Value) (*Graph, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	g := &Graph{
		inputs: make(map[string]ir.InputRef),
		nodes:  make(map[string]*ir.Node),
	}

	if err := g.parseInputs(v); err != nil {
		return nil, err
	}
	if len(g.inputs) == 0 {
		return nil, &CompileError{
			Field:   "input",
			Message: "at least one input is required",
			Pos:     v.Pos(),
		}
	}

	defs, order, err := parseNodeDefs(v, g.inputs)
	if err != nil {
		return nil, err
	}

	r := &graphResolver{graph: g, defs: defs, visiting: make(map[string]bool)}
	for _, label := range order {
		if _, err := r.resolve(label, defs[label].pos); err != nil {
			return nil, err
		}
		g.order = append(g.order, label)
	}
	return g, nil
}

func (g *Graph) parseInputs(v cue.Value) error {
	inputsVal := v.LookupPath(cue.ParsePath("input"))
	if !inputsVal.Exists() {
		return nil
	}

	iter, err := inputsVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		typeVal := iter.Value().LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return &CompileError{
				Field:   "type",
				Message: fmt.Sprintf("input %q: type is required", label),
				Pos:     iter.Value().Pos(),
			}
		}
		name, err := typeVal.String()
		if err != nil {
			return formatCUEError(err)
		}
		t, err := ir.ParseType(name)
		if err != nil {
			return &CompileError{
				Field:   "type",
				Message: fmt.Sprintf("input %q: %v", label, err),
				Pos:     typeVal.Pos(),
			}
		}

		ref := ir.NewInputRef()
		g.inputs[label] = ref
		g.nodes[label] = ir.NewInput(ref, t)
		g.order = append(g.order, label)
	}
	return nil
}

func parseNodeDefs(v cue.Value, inputs map[string]ir.InputRef) (map[string]nodeDef, []string, error) {
	defs := make(map[string]nodeDef)
	var order []string

	nodesVal := v.LookupPath(cue.ParsePath("node"))
	if !nodesVal.Exists() {
		return defs, order, nil
	}

	iter, err := nodesVal.Fields()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		nv := iter.Value()
		if _, dup := inputs[label]; dup {
			return nil, nil, &CompileError{
				Field:   "label",
				Message: fmt.Sprintf("node %q: label already declared as an input", label),
				Pos:     nv.Pos(),
			}
		}

		opName, err := requiredString(nv, "op", label)
		if err != nil {
			return nil, nil, err
		}
		op, err := ir.ParseOp(opName)
		if err != nil {
			return nil, nil, &CompileError{
				Field:   "op",
				Message: fmt.Sprintf("node %q: %v", label, err),
				Pos:     nv.LookupPath(cue.ParsePath("op")).Pos(),
			}
		}
		left, err := requiredString(nv, "left", label)
		if err != nil {
			return nil, nil, err
		}
		right, err := requiredString(nv, "right", label)
		if err != nil {
			return nil, nil, err
		}

		defs[label] = nodeDef{op: op, left: left, right: right, pos: nv.Pos()}
		order = append(order, label)
	}
	return defs, order, nil
}

func requiredString(v cue.Value, field, label string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("node %q: %s is required", label, field),
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// graphResolver builds derived nodes depth-first, memoizing by label.
type graphResolver struct {
	graph    *Graph
	defs     map[string]nodeDef
	visiting map[string]bool
	path     []string
}

func (r *graphResolver) resolve(label string, from token.Pos) (*ir.Node, error) {
	if n, ok := r.graph.nodes[label]; ok {
		return n, nil
	}
	def, ok := r.defs[label]
	if !ok {
		return nil, &CompileError{
			Field:   "ref",
			Message: fmt.Sprintf("undefined reference %q", label),
			Pos:     from,
		}
	}
	if r.visiting[label] {
		loop := append(slices.Clone(r.path), label)
		return nil, &CompileError{
			Field:   "cycle",
			Message: "reference cycle: " + strings.Join(loop, " -> "),
			Pos:     def.pos,
		}
	}

	r.visiting[label] = true
	r.path = append(r.path, label)
	defer func() {
		delete(r.visiting, label)
		r.path = r.path[:len(r.path)-1]
	}()

	left, err := r.resolve(def.left, def.pos)
	if err != nil {
		return nil, err
	}
	right, err := r.resolve(def.right, def.pos)
	if err != nil {
		return nil, err
	}
	n, err := ir.Combine(def.op, left, right)
	if err != nil {
		return nil, &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("node %q: %v", label, err),
			Pos:     def.pos,
		}
	}
	r.graph.nodes[label] = n
	return n, nil
}

// LoadGraph compiles a graph from a .cue file or from every .cue file in a
// directory.
func LoadGraph(path string) (*Graph, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", path, err)
	}

	ctx := cuecontext.New()
	var v cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, fmt.Errorf("graph %s: no CUE instances loaded", path)
		}
		if err := instances[0].Err; err != nil {
			return nil, formatCUEError(err)
		}
		v = ctx.BuildInstance(instances[0])
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("graph %s: %w", path, err)
		}
		v = ctx.CompileBytes(data, cue.Filename(filepath.Clean(path)))
	}
	return CompileGraph(v)
}
