package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// ResourceKey is the logical identity of a node in the resource graph, used for diagnostics.
type ResourceKey struct {
	Kind Kind
	ID   string
}

func (key ResourceKey) String() string {
	return string(key.Kind) + "/" + key.ID
}

// Resource wraps one raw record of a given kind. It carries the record verbatim as handed over
// by the client, the ancestor chain attached by the traversal at visitation time, and memoized
// per-kind policy slots populated lazily on first successful fetch.
//
// A Resource is owned by the traversal branch that created it and is not safe for concurrent
// use; the policy slots need no cross-branch synchronization because they are never shared
// across instances.
type Resource struct {
	spec     *Spec
	registry *Registry
	data     RawRecord

	// ancestors is unset until the traversal visits the resource and is set at most once,
	// immediately before descending into children. visited distinguishes a root's empty
	// chain from an unattached one.
	ancestors []*Resource
	visited   bool

	iamPolicy     policySlot
	storagePolicy policySlot
	datasetPolicy policySlot
}

// policySlot is a lazily-populated cache for one policy capability. A failed fetch leaves the
// slot empty so that a later call may retry; a successful fetch, including one that returned
// no policy, is cached for the life of the instance.
type policySlot struct {
	policy    Policy
	populated bool
}

func (slot *policySlot) get(ctx context.Context, client Client, res *Resource, fetch PolicyFetch) (Policy, error) {
	if fetch == nil {
		return nil, nil
	}

	if slot.populated {
		return slot.policy, nil
	}

	policy, err := fetch(ctx, client, res)
	if err != nil {
		return nil, err
	}

	slot.policy = policy
	slot.populated = true

	return policy, nil
}

// Kind returns the resource kind.
func (res *Resource) Kind() Kind {
	return res.spec.Kind
}

// Data returns the raw record the resource was constructed from.
func (res *Resource) Data() RawRecord {
	return res.data
}

// Key returns the kind-specific primary identifier of the resource. It returns a
// MissingFieldError, including the raw record for diagnosis, if the field is absent or empty.
func (res *Resource) Key() (string, error) {
	value, ok := res.data[res.spec.KeyField]
	if !ok {
		return "", NewMissingFieldError(res.Kind(), res.spec.KeyField, res.data)
	}

	key := stringify(value)
	if key == "" {
		return "", NewMissingFieldError(res.Kind(), res.spec.KeyField, res.data)
	}

	return key, nil
}

// ResourceKey returns the diagnostic identity of the resource. If the primary identifier is
// missing, the ID is reported as "unknown" rather than failing, since ResourceKey is used on
// error paths.
func (res *Resource) ResourceKey() ResourceKey {
	id, err := res.Key()
	if err != nil {
		id = "unknown"
	}

	return ResourceKey{Kind: res.Kind(), ID: id}
}

// IsLeaf returns true iff the resource's kind has no registered child iterators. Leaf resources
// are traversed inline by their parent's enumeration loop rather than dispatched.
func (res *Resource) IsLeaf() bool {
	return len(res.spec.Contains) == 0
}

// Enumerable reports whether the resource's children should be enumerated at all. It is false
// for projects whose lifecycle state signals a requested deletion.
func (res *Resource) Enumerable() bool {
	if res.spec.Enumerable == nil {
		return true
	}

	return res.spec.Enumerable(res)
}

// Ancestors returns the ordered chain of resources from the root down to, and excluding, this
// resource. It returns an UninitializedAccessError if the resource has not been visited yet.
func (res *Resource) Ancestors() ([]*Resource, error) {
	if !res.visited {
		return nil, NewUninitializedAccessError(res.Kind())
	}

	return res.ancestors, nil
}

// Parent returns the last element of the ancestor chain, or nil for the root. It returns an
// UninitializedAccessError if the resource has not been visited yet.
func (res *Resource) Parent() (*Resource, error) {
	ancestors, err := res.Ancestors()
	if err != nil {
		return nil, err
	}

	if len(ancestors) == 0 {
		return nil, nil
	}

	return ancestors[len(ancestors)-1], nil
}

// IamPolicy returns the resource's IAM policy, fetching it from the client on first call and
// caching it on the instance. Kinds without the IAM policy capability return (nil, nil).
// A failed fetch is not cached, so the next call retries.
func (res *Resource) IamPolicy(ctx context.Context, client Client) (Policy, error) {
	return res.iamPolicy.get(ctx, client, res, res.spec.IamPolicy)
}

// StoragePolicy returns the resource's storage ACL, fetched and cached the same way as IamPolicy.
// Kinds without the storage policy capability return (nil, nil).
func (res *Resource) StoragePolicy(ctx context.Context, client Client) (Policy, error) {
	return res.storagePolicy.get(ctx, client, res, res.spec.StoragePolicy)
}

// DatasetPolicy returns the dataset's access policy, fetched and cached the same way as
// IamPolicy. Kinds without the dataset policy capability return (nil, nil).
func (res *Resource) DatasetPolicy(ctx context.Context, client Client) (Policy, error) {
	return res.datasetPolicy.get(ctx, client, res, res.spec.DatasetPolicy)
}

// NumericField returns the named record field as an int64, accommodating the numeric types the
// JSON decoding of a raw record may produce. Project numbers arrive this way.
func (res *Resource) NumericField(field string) (int64, error) {
	value, ok := res.data[field]
	if !ok {
		return 0, NewMissingFieldError(res.Kind(), field, res.data)
	}

	switch value := value.(type) {
	case int64:
		return value, nil
	case int:
		return int64(value), nil
	case float64:
		return int64(value), nil
	case json.Number:
		num, err := value.Int64()
		if err != nil {
			return 0, NewMissingFieldError(res.Kind(), field, res.data)
		}

		return num, nil
	case string:
		num, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, NewMissingFieldError(res.Kind(), field, res.data)
		}

		return num, nil
	default:
		return 0, NewMissingFieldError(res.Kind(), field, res.data)
	}
}

// String implements fmt.Stringer with the kind and the raw record, for diagnostics.
func (res *Resource) String() string {
	record, err := json.Marshal(res.data)
	if err != nil {
		record = fmt.Appendf(nil, "%v", res.data)
	}

	return fmt.Sprintf("%s<%s>", res.Kind(), record)
}

// attachAncestors sets the ancestor chain. The chain is set at most once, by the traversal,
// immediately before descending into children.
func (res *Resource) attachAncestors(ancestors []*Resource) error {
	if res.visited {
		return NewAlreadyVisitedError(res)
	}

	res.ancestors = ancestors
	res.visited = true

	return nil
}

func stringify(value any) string {
	switch value := value.(type) {
	case string:
		return value
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}
