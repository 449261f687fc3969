package model

import (
	"fmt"
	"strings"
)

// Resolve returns the node and parameter name addressed by path.
func (s *Simulation) Resolve(path string) (*Node, string, error) {
	path = strings.TrimSpace(path)
	dot := strings.LastIndex(path, ".")
	if dot <= 0 || dot == len(path)-1 {
		return nil, "", fmt.Errorf("model: malformed path %q", path)
	}
	nodePath, param := path[:dot], path[dot+1:]

	segments := strings.Split(nodePath, ".")
	var node *Node
	first := segments[0]
	if strings.HasPrefix(first, "[") && strings.HasSuffix(first, "]") {
		node = s.Find(first[1 : len(first)-1])
	} else {
		node = childNamed(s.Children, first)
	}
	if node == nil {
		return nil, "", fmt.Errorf("model: path %q: no node %q in %s", path, first, s.Name)
	}
	for _, seg := range segments[1:] {
		next := childNamed(node.Children, seg)
		if next == nil {
			return nil, "", fmt.Errorf("model: path %q: no node %q under %q", path, seg, node.Name)
		}
		node = next
	}
	return node, param, nil
}

// Set assigns value to the parameter addressed by path.
func (s *Simulation) Set(path string, value float64) error {
	node, param, err := s.Resolve(path)
	if err != nil {
		return err
	}
	if err := node.SetParam(param, value); err != nil {
		return fmt.Errorf("path %q: %w", path, err)
	}
	return nil
}

// Get reads the parameter addressed by path.
func (s *Simulation) Get(path string) (float64, error) {
	node, param, err := s.Resolve(path)
	if err != nil {
		return 0, err
	}
	v, ok := node.Param(param)
	if !ok {
		return 0, fmt.Errorf("model: node %q has no parameter %q", node.Name, param)
	}
	return v, nil
}

func childNamed(nodes []*Node, name string) *Node {
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}
