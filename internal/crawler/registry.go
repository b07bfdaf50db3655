package crawler

import (
	"context"
	"sync"

	"github.com/gruntwork-io/cloud-inventory/internal/errors"
)

// Kind identifies a resource kind in the registry.
type Kind string

// PolicyFetch fetches one policy capability of a resource from the client. A nil PolicyFetch on
// a Spec means the kind does not support that capability.
type PolicyFetch func(ctx context.Context, client Client, res *Resource) (Policy, error)

// Spec describes how resources of one kind are constructed and crawled. Specs are registered
// once at process startup; a spec, and in particular its Contains list, is fixed for the entire
// lifetime of every resource created from it.
type Spec struct {
	Kind Kind

	// KeyField is the name of the raw record field holding the kind's primary identifier.
	KeyField string

	// DependsOn lists the kinds expected to be inventoried before this one.
	// Informational only; the traversal does not consult it.
	DependsOn []Kind

	// Contains lists the child edges to enumerate, in crawl order. A kind with an empty
	// Contains list is a leaf.
	Contains []ChildSpec

	// Enumerable gates whether children of a resource should be enumerated at all.
	// nil means always enumerable.
	Enumerable func(res *Resource) bool

	IamPolicy     PolicyFetch
	StoragePolicy PolicyFetch
	DatasetPolicy PolicyFetch
}

// Registry maps resource kinds to their construction specs. It is built once and read-only
// thereafter, so it may be read concurrently without synchronization.
type Registry struct {
	specs map[Kind]*Spec
}

// NewRegistry builds a registry from the given specs. Registering the same kind twice is a
// configuration error.
func NewRegistry(specs ...*Spec) (*Registry, error) {
	reg := &Registry{
		specs: make(map[Kind]*Spec, len(specs)),
	}

	for _, spec := range specs {
		if _, ok := reg.specs[spec.Kind]; ok {
			return nil, NewDuplicateKindError(spec.Kind)
		}

		reg.specs[spec.Kind] = spec
	}

	return reg, nil
}

// Create constructs a resource of the given kind from the given raw record. It has no side
// effects beyond allocation. Requesting an unregistered kind is a configuration error.
func (reg *Registry) Create(kind Kind, record RawRecord) (*Resource, error) {
	spec, ok := reg.specs[kind]
	if !ok {
		return nil, NewUnregisteredKindError(kind)
	}

	return &Resource{
		spec:     spec,
		registry: reg,
		data:     record,
	}, nil
}

// Kinds returns the registered kinds, for diagnostics.
func (reg *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(reg.specs))

	for kind := range reg.specs {
		kinds = append(kinds, kind)
	}

	return kinds
}

// Default returns the process-wide registry of the GCP resource kinds. It is built exactly once.
var Default = sync.OnceValue(func() *Registry {
	reg, err := NewRegistry(defaultSpecs()...)
	if err != nil {
		// The default specs are literals; a duplicate kind here cannot happen at runtime.
		panic(err)
	}

	return reg
})

// FetchOrganization fetches the organization with the given key from the client and constructs
// the root resource for a crawl.
func FetchOrganization(ctx context.Context, reg *Registry, client Client, key string) (*Resource, error) {
	record, err := client.FetchOrganization(ctx, key)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "fetching organization %q", key)
	}

	return reg.Create(KindOrganization, record)
}
