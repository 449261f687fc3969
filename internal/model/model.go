// Package model holds the simulation model tree that experiments clone,
// parameterise and hand to the runner.
//
// A [Simulation] is a tree of [Node]s. Nodes are addressed by paths of the
// form "[Pendulum].length" (find the node named Pendulum anywhere, then the
// parameter) or "Plant.Leaf.area" (descend by name from the root).
package model

import (
	"fmt"
	"sort"
)

// Node kinds understood by the runner.
const (
	KindSystem     = "system"
	KindIntegrator = "integrator"
	KindClock      = "clock"
	KindInitial    = "initial"
	KindReport     = "report"
	KindFolder     = "folder"
)

type Node struct {
	Name     string             `yaml:"name"`
	Kind     string             `yaml:"kind"`
	Model    string             `yaml:"model,omitempty"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	Children []*Node            `yaml:"children,omitempty"`

	// Report nodes only.
	Variables              []string `yaml:"variables,omitempty"`
	ExperimentFactorNames  []string `yaml:"experiment_factor_names,omitempty"`
	ExperimentFactorValues []string `yaml:"experiment_factor_values,omitempty"`

	parent *Node
}

func (n *Node) Parent() *Node { return n.parent }

func (n *Node) Param(name string) (float64, bool) {
	v, ok := n.Params[name]
	return v, ok
}

// SetParam updates an existing parameter. Unknown names are an error so a
// mistyped path never silently adds a new setting.
func (n *Node) SetParam(name string, value float64) error {
	if _, ok := n.Params[name]; !ok {
		return fmt.Errorf("model: node %q has no parameter %q", n.Name, name)
	}
	n.Params[name] = value
	return nil
}

// ParamNames returns the node's parameter names in sorted order.
func (n *Node) ParamNames() []string {
	names := make([]string, 0, len(n.Params))
	for k := range n.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (n *Node) Clone() *Node {
	c := &Node{
		Name:                   n.Name,
		Kind:                   n.Kind,
		Model:                  n.Model,
		Variables:              append([]string(nil), n.Variables...),
		ExperimentFactorNames:  append([]string(nil), n.ExperimentFactorNames...),
		ExperimentFactorValues: append([]string(nil), n.ExperimentFactorValues...),
	}
	if n.Params != nil {
		c.Params = make(map[string]float64, len(n.Params))
		for k, v := range n.Params {
			c.Params[k] = v
		}
	}
	for _, child := range n.Children {
		cc := child.Clone()
		cc.parent = c
		c.Children = append(c.Children, cc)
	}
	return c
}

func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

type Simulation struct {
	Name     string  `yaml:"name"`
	FileName string  `yaml:"file_name,omitempty"`
	Children []*Node `yaml:"children,omitempty"`

	parent *Container
}

func (s *Simulation) Parent() *Container { return s.parent }

// SetParent re-parents the simulation without adding it to the container.
func (s *Simulation) SetParent(c *Container) {
	s.parent = c
	if c != nil {
		s.FileName = c.FileName
	}
}

// Walk visits every node depth first until fn returns false.
func (s *Simulation) Walk(fn func(*Node) bool) {
	for _, c := range s.Children {
		if !c.walk(fn) {
			return
		}
	}
}

// Find returns the first node named name, depth first.
func (s *Simulation) Find(name string) *Node {
	var found *Node
	s.Walk(func(n *Node) bool {
		if n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindKind returns the first node of the given kind.
func (s *Simulation) FindKind(kind string) *Node {
	var found *Node
	s.Walk(func(n *Node) bool {
		if n.Kind == kind {
			found = n
			return false
		}
		return true
	})
	return found
}

// Reports returns every report node in the tree.
func (s *Simulation) Reports() []*Node {
	var out []*Node
	s.Walk(func(n *Node) bool {
		if n.Kind == KindReport {
			out = append(out, n)
		}
		return true
	})
	return out
}

// ParentAllChildren restores parent links, e.g. after decoding.
func (s *Simulation) ParentAllChildren() {
	var link func(parent *Node, children []*Node)
	link = func(parent *Node, children []*Node) {
		for _, c := range children {
			c.parent = parent
			link(c, c.Children)
		}
	}
	link(nil, s.Children)
}

func (s *Simulation) Clone() *Simulation {
	c := &Simulation{Name: s.Name, FileName: s.FileName, parent: s.parent}
	for _, n := range s.Children {
		c.Children = append(c.Children, n.Clone())
	}
	return c
}

// Container owns the template simulations of a file and the replacement
// nodes substituted into every generated simulation.
type Container struct {
	FileName      string        `yaml:"file_name,omitempty"`
	Simulations   []*Simulation `yaml:"simulations"`
	Substitutions []*Node       `yaml:"substitutions,omitempty"`
}

func (c *Container) Add(s *Simulation) {
	s.SetParent(c)
	c.Simulations = append(c.Simulations, s)
}

func (c *Container) Simulation(name string) (*Simulation, error) {
	for _, s := range c.Simulations {
		if s.Name == name {
			s.parent = c
			return s, nil
		}
	}
	return nil, fmt.Errorf("model: no simulation named %q", name)
}

// ApplySubstitutions replaces every node of sim whose name and kind match a
// substitution with a copy of the substitution.
func (c *Container) ApplySubstitutions(sim *Simulation) int {
	replaced := 0
	for _, sub := range c.Substitutions {
		replaced += replaceIn(nil, &sim.Children, sub)
	}
	return replaced
}

func replaceIn(parent *Node, children *[]*Node, sub *Node) int {
	replaced := 0
	for i, n := range *children {
		if n.Name == sub.Name && n.Kind == sub.Kind {
			c := sub.Clone()
			c.parent = parent
			(*children)[i] = c
			replaced++
			continue
		}
		replaced += replaceIn(n, &n.Children, sub)
	}
	return replaced
}
