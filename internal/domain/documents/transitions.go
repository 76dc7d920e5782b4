package documents

import (
	"slices"

	"smartsewing/internal/core/apperror"
)

// Transitions is the closed edge table of one document's status enum.
type Transitions[S ~string] struct {
	entity string
	edges  map[S][]S
}

// NewTransitions builds a table. States absent from edges are terminal.
func NewTransitions[S ~string](entity string, edges map[S][]S) Transitions[S] {
	return Transitions[S]{entity: entity, edges: edges}
}

// Allowed reports whether from → to is a listed edge.
func (t Transitions[S]) Allowed(from, to S) bool {
	return slices.Contains(t.edges[from], to)
}

// Check guards a transition: staying put is ALREADY_IN_STATE, any unlisted
// edge is INVALID_TRANSITION naming both states.
func (t Transitions[S]) Check(from, to S) error {
	if from == to {
		return apperror.NewAlreadyInState(t.entity, string(from))
	}
	if !t.Allowed(from, to) {
		return apperror.NewInvalidTransition(t.entity, string(from), string(to))
	}
	return nil
}

// Targets lists the states reachable from one step away.
func (t Transitions[S]) Targets(from S) []S {
	return slices.Clone(t.edges[from])
}

// Known reports whether s appears anywhere in the table.
func (t Transitions[S]) Known(s S) bool {
	for from, tos := range t.edges {
		if from == s || slices.Contains(tos, s) {
			return true
		}
	}
	return false
}
