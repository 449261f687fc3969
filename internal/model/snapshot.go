package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Snapshot serialises a simulation so it can be restored repeatedly
// without walking the live tree.
func Snapshot(s *Simulation) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("model: snapshot %s: %w", s.Name, err)
	}
	return data, nil
}

// Restore decodes a snapshot into a new, unparented simulation.
func Restore(data []byte) (*Simulation, error) {
	var s Simulation
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("model: restore snapshot: %w", err)
	}
	s.ParentAllChildren()
	return &s, nil
}

// WriteFile writes a standalone container holding only sim.
func WriteFile(path string, sim *Simulation) error {
	c := Container{FileName: path, Simulations: []*Simulation{sim}}
	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile loads a container written by WriteFile.
func ReadFile(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Container
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.FileName = path
	for _, s := range c.Simulations {
		s.ParentAllChildren()
		s.SetParent(&c)
	}
	return &c, nil
}
