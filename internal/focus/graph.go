package focus

import "fmt"

// WouldCycle reports whether adding the edge child -> parent to the parent
// map would create a cycle. A node may not be its own parent.
func WouldCycle[K comparable](parents map[K][]K, child, parent K) bool {
	if child == parent {
		return true
	}
	// The edge closes a cycle iff child is already an ancestor of parent.
	visited := make(map[K]bool)
	stack := []K{parent}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == child {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, parents[n]...)
	}
	return false
}

// CheckAcyclic verifies that the parent map contains no cycle.
func CheckAcyclic[K comparable](parents map[K][]K) error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[K]int, len(parents))

	var visit func(K) error
	visit = func(n K) error {
		switch state[n] {
		case inProgress:
			return fmt.Errorf("%w: %v", ErrCycle, n)
		case done:
			return nil
		}
		state[n] = inProgress
		for _, p := range parents[n] {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[n] = done
		return nil
	}

	for n := range parents {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}
