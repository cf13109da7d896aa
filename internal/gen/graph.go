package gen

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrCycle is returned when types reach themselves through their
// supertypes. Only pointer embedding can form one.
var ErrCycle = errors.New("supertype cycle")

// Hierarchy is the supertype graph of every inspected type. Edges run
// from a supertype to the types that embed it.
type Hierarchy struct {
	g     *multi.DirectedGraph
	nodes map[string]*typeNode
	byID  []*typeNode
}

type typeNode struct {
	id   int64
	key  string
	info *TypeInfo // nil for supertypes outside the configured packages
}

func (n *typeNode) ID() int64 {
	return n.id
}

// NewHierarchy builds the graph for result.
func NewHierarchy(result *InspectResult) *Hierarchy {
	h := &Hierarchy{
		g:     multi.NewDirectedGraph(),
		nodes: make(map[string]*typeNode),
	}
	for _, pkg := range result.Packages {
		for _, t := range pkg.Types {
			h.node(t.Key()).info = t
		}
	}
	for _, pkg := range result.Packages {
		for _, t := range pkg.Types {
			derived := h.node(t.Key())
			for _, s := range t.Supers {
				h.g.SetLine(h.g.NewLine(h.node(s.Key()), derived))
			}
		}
	}
	return h
}

func (h *Hierarchy) node(key string) *typeNode {
	if n, ok := h.nodes[key]; ok {
		return n
	}
	n := &typeNode{id: int64(len(h.byID)), key: key}
	h.nodes[key] = n
	h.byID = append(h.byID, n)
	h.g.AddNode(n)
	return n
}

// Order returns every type key with supertypes before the types that
// embed them. Ties are broken by first appearance. A cycle yields an
// error wrapping ErrCycle that names its members.
func (h *Hierarchy) Order() ([]string, error) {
	sorted, err := topo.SortStabilized(h.g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		var u topo.Unorderable
		if errors.As(err, &u) {
			var cycles []string
			for _, comp := range u {
				var keys []string
				for _, n := range comp {
					keys = append(keys, n.(*typeNode).key)
				}
				sort.Strings(keys)
				cycles = append(cycles, strings.Join(keys, ", "))
			}
			return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycles, "; "))
		}
		return nil, err
	}

	keys := make([]string, len(sorted))
	for i, n := range sorted {
		keys[i] = n.(*typeNode).key
	}
	return keys, nil
}

// Diamond is an ancestor reachable from a type along several paths.
type Diamond struct {
	Type     string
	Ancestor string
	Paths    int
}

func (d Diamond) String() string {
	return fmt.Sprintf("%s reaches %s along %d paths; casts to %s take the first declared", d.Type, d.Ancestor, d.Paths, d.Ancestor)
}

// Diamonds reports every repeated ancestor, ordered by type then
// ancestor. Call it only after Order succeeds.
func (h *Hierarchy) Diamonds() []Diamond {
	counts := make(map[int64]map[int64]int)
	var count func(n graph.Node) map[int64]int
	count = func(n graph.Node) map[int64]int {
		if c, ok := counts[n.ID()]; ok {
			return c
		}
		c := make(map[int64]int)
		supers := h.g.To(n.ID())
		for supers.Next() {
			s := supers.Node()
			lines := h.g.Lines(s.ID(), n.ID())
			k := lines.Len()
			c[s.ID()] += k
			for a, p := range count(s) {
				c[a] += k * p
			}
		}
		counts[n.ID()] = c
		return c
	}

	var out []Diamond
	for _, n := range h.byID {
		if n.info == nil {
			continue
		}
		for a, p := range count(n) {
			if p > 1 {
				out = append(out, Diamond{Type: n.key, Ancestor: h.byID[a].key, Paths: p})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Ancestor < out[j].Ancestor
	})
	return out
}
