package crawler

import (
	"context"

	"google.golang.org/api/iterator"
)

// ChildSpec describes one parent→child edge of the resource graph: which kind the edge produces,
// whether enumeration is gated on the parent being enumerable, and the client listing operation
// that backs it.
type ChildSpec struct {
	Kind Kind

	// Conditional iterators yield nothing when the parent is not enumerable.
	Conditional bool

	List ListFunc
}

// ListFunc starts one client listing operation for the children of the given parent.
type ListFunc func(ctx context.Context, parent *Resource, client Client) (RawIterator, error)

// ResourceIterator produces a finite, single-use, lazy sequence of child resources. Next returns
// iterator.Done once the sequence is exhausted.
type ResourceIterator interface {
	Next() (*Resource, error)
}

// childIterator wraps a raw listing, routing each record through the registry to construct the
// child resource. A nil raw listing is an empty sequence.
type childIterator struct {
	kind     Kind
	registry *Registry
	raw      RawIterator
}

func (spec ChildSpec) newIterator(ctx context.Context, parent *Resource, client Client) (ResourceIterator, error) {
	it := &childIterator{
		kind:     spec.Kind,
		registry: parent.registry,
	}

	if spec.Conditional && !parent.Enumerable() {
		return it, nil
	}

	raw, err := spec.List(ctx, parent, client)
	if err != nil {
		return nil, err
	}

	it.raw = raw

	return it, nil
}

func (it *childIterator) Next() (*Resource, error) {
	if it.raw == nil {
		return nil, iterator.Done
	}

	record, err := it.raw.Next()
	if err != nil {
		return nil, err
	}

	return it.registry.Create(it.kind, record)
}
