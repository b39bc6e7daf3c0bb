package model

// ValidateDependencies checks that every dependency refers to a component of
// the same set, that ids are unique and that the graph is acyclic. It returns
// a *DependencyError describing the first problem found.
func ValidateDependencies(components []*ProofComponent) error {
	index := make(map[string]*ProofComponent, len(components))
	for _, component := range components {
		if _, ok := index[component.ID]; ok {
			return &DependencyError{ComponentID: component.ID, Duplicate: true}
		}
		index[component.ID] = component
	}
	for _, component := range components {
		for _, dep := range component.Dependencies {
			if _, ok := index[dep]; !ok {
				return &DependencyError{ComponentID: component.ID, MissingID: dep}
			}
		}
	}

	const (
		white = iota
		grey
		black
	)
	state := make(map[string]int, len(components))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case grey:
			return &DependencyError{ComponentID: id, Cycle: true}
		case black:
			return nil
		}
		state[id] = grey
		for _, dep := range index[id].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[id] = black
		return nil
	}
	for _, component := range components {
		if err := visit(component.ID); err != nil {
			return err
		}
	}
	return nil
}
