package documents

import (
	"context"
	"fmt"

	"smartsewing/internal/core/apperror"
	"smartsewing/internal/core/entity"
	"smartsewing/internal/core/id"
)

// ReferenceLabel is the human-readable side of a reference.
type ReferenceLabel struct {
	Kind   entity.DocumentKind `json:"kind"`
	ID     id.ID               `json:"id"`
	Number string              `json:"number"`
	Status string              `json:"status,omitempty"`
}

// Lookup loads the label of one document of a kind.
type Lookup func(ctx context.Context, docID id.ID) (*ReferenceLabel, error)

// ReferenceResolver turns movement and ledger references back into document
// numbers. Each document package registers a lookup for its kinds.
type ReferenceResolver struct {
	lookups map[entity.DocumentKind]Lookup
}

// NewReferenceResolver creates an empty resolver.
func NewReferenceResolver() *ReferenceResolver {
	return &ReferenceResolver{lookups: make(map[entity.DocumentKind]Lookup)}
}

// Register installs the lookup for kind.
func (r *ReferenceResolver) Register(kind entity.DocumentKind, fn Lookup) {
	r.lookups[kind] = fn
}

// Resolve returns the label for ref. The zero reference resolves to nil.
func (r *ReferenceResolver) Resolve(ctx context.Context, ref entity.Reference) (*ReferenceLabel, error) {
	if ref.IsZero() {
		return nil, nil
	}
	fn, ok := r.lookups[ref.Kind]
	if !ok {
		return nil, apperror.NewValidation("no resolver for reference type").
			WithDetail("referenceType", string(ref.Kind))
	}
	label, err := fn(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	label.Kind = ref.Kind
	label.ID = ref.ID
	return label, nil
}

// ResolveAll labels a batch of references, loading each document once.
// References whose document is gone are skipped.
func (r *ReferenceResolver) ResolveAll(ctx context.Context, refs []entity.Reference) (map[entity.Reference]*ReferenceLabel, error) {
	out := make(map[entity.Reference]*ReferenceLabel, len(refs))
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		if _, done := out[ref]; done {
			continue
		}
		label, err := r.Resolve(ctx, ref)
		if err != nil {
			if apperror.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out[ref] = label
	}
	return out, nil
}
