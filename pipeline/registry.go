package pipeline

import (
	"fmt"
	"sort"
)

// Registry holds the static set of stages. Stage names and produced artifact
// keys are unique, and the requirement graph must be acyclic.
type Registry struct {
	stages map[string]*Stage
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]*Stage)}
}

// Register adds a stage. Duplicate names or duplicate produced artifacts are
// rejected.
func (r *Registry) Register(stage *Stage) error {
	d := stage.Descriptor()
	if d.Name == "" {
		return fmt.Errorf("pipeline: stage name is required")
	}
	if d.Produces == "" {
		return fmt.Errorf("pipeline: stage %q produces no artifact", d.Name)
	}
	if _, exists := r.stages[d.Name]; exists {
		return fmt.Errorf("pipeline: duplicate stage %q", d.Name)
	}
	for _, existing := range r.stages {
		if existing.Descriptor().Produces == d.Produces {
			return fmt.Errorf("pipeline: artifact %q produced by both %q and %q",
				d.Produces, existing.Name(), d.Name)
		}
	}
	r.stages[d.Name] = stage
	r.order = append(r.order, d.Name)
	return nil
}

// Get retrieves a stage by name.
func (r *Registry) Get(name string) (*Stage, bool) {
	s, ok := r.stages[name]
	return s, ok
}

// List returns stage names in registration order.
func (r *Registry) List() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.stages[name].Descriptor())
	}
	return out
}

// Validate checks that the requirement graph is acyclic and that every
// required artifact is produced by some registered stage or declared external.
// External artifacts (such as an uploaded file) are listed by key.
func (r *Registry) Validate(external ...string) error {
	ext := make(map[string]bool, len(external))
	for _, key := range external {
		ext[key] = true
	}

	// producer maps artifact key -> stage name
	producer := make(map[string]string, len(r.stages))
	for name, s := range r.stages {
		producer[s.Descriptor().Produces] = name
	}

	// Kahn's algorithm over stage dependency edges derived from requires/produces.
	inDegree := make(map[string]int, len(r.stages))
	dependents := make(map[string][]string)
	for name := range r.stages {
		inDegree[name] = 0
	}
	for name, s := range r.stages {
		for _, req := range s.Descriptor().Requires {
			from, ok := producer[req]
			if !ok {
				if ext[req] {
					continue
				}
				return fmt.Errorf("pipeline: stage %q requires artifact %q, which nothing produces", name, req)
			}
			inDegree[name]++
			dependents[from] = append(dependents[from], name)
		}
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	visited := 0
	for len(queue) > 0 {
		visited += len(queue)
		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(r.stages) {
		return fmt.Errorf("pipeline: requirement cycle detected, processed %d of %d stages", visited, len(r.stages))
	}
	return nil
}
