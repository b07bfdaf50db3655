package crawler

import (
	"encoding/json"
	"fmt"

	"github.com/gruntwork-io/cloud-inventory/internal/errors"
)

// UnregisteredKindError is returned when a resource of a kind unknown to the registry is
// requested. This is a configuration error: it aborts setup before any crawl begins.
type UnregisteredKindError struct {
	Kind Kind
}

func (err UnregisteredKindError) Error() string {
	return fmt.Sprintf("resource kind %q is not registered", err.Kind)
}

// NewUnregisteredKindError creates a new UnregisteredKindError for the given kind.
func NewUnregisteredKindError(kind Kind) error {
	return errors.New(UnregisteredKindError{Kind: kind})
}

// DuplicateKindError is returned when two registry specs claim the same resource kind.
type DuplicateKindError struct {
	Kind Kind
}

func (err DuplicateKindError) Error() string {
	return fmt.Sprintf("resource kind %q is registered twice", err.Kind)
}

// NewDuplicateKindError creates a new DuplicateKindError for the given kind.
func NewDuplicateKindError(kind Kind) error {
	return errors.New(DuplicateKindError{Kind: kind})
}

// MissingFieldError is returned when a raw record lacks the field a resource kind requires.
// The raw record is included for diagnosis.
type MissingFieldError struct {
	Kind   Kind
	Field  string
	Record RawRecord
}

func (err MissingFieldError) Error() string {
	record, jsonErr := json.Marshal(err.Record)
	if jsonErr != nil {
		record = fmt.Appendf(nil, "%v", err.Record)
	}

	return fmt.Sprintf("resource kind %q requires field %q, record: %s", err.Kind, err.Field, record)
}

// NewMissingFieldError creates a new MissingFieldError for the given kind and field.
func NewMissingFieldError(kind Kind, field string, record RawRecord) error {
	return errors.New(MissingFieldError{Kind: kind, Field: field, Record: record})
}

// CrawlError tags a child enumeration failure with the resource being crawled and the child
// kind whose listing failed. It surfaces out of the single Traverse call it occurred in;
// subtrees already dispatched are unaffected.
type CrawlError struct {
	Key       ResourceKey
	ChildKind Kind
	Err       error
}

func (err CrawlError) Error() string {
	return fmt.Sprintf("crawling %s: listing %q children: %v", err.Key, err.ChildKind, err.Err)
}

func (err CrawlError) Unwrap() error {
	return err.Err
}

// NewCrawlError tags the given listing error with the resource's key and the child kind.
func NewCrawlError(res *Resource, childKind Kind, err error) error {
	return errors.New(CrawlError{Key: res.ResourceKey(), ChildKind: childKind, Err: err})
}

// UninitializedAccessError is returned when the ancestor chain of a resource is accessed before
// the traversal has visited it. This is a programming error.
type UninitializedAccessError struct {
	Kind Kind
}

func (err UninitializedAccessError) Error() string {
	return fmt.Sprintf("ancestor chain of %q resource accessed before visitation", err.Kind)
}

// NewUninitializedAccessError creates a new UninitializedAccessError for the given kind.
func NewUninitializedAccessError(kind Kind) error {
	return errors.New(UninitializedAccessError{Kind: kind})
}

// AlreadyVisitedError is returned when Traverse is called twice for the same resource instance.
// This is a programming error.
type AlreadyVisitedError struct {
	Key ResourceKey
}

func (err AlreadyVisitedError) Error() string {
	return fmt.Sprintf("resource %s was already visited", err.Key)
}

// NewAlreadyVisitedError creates a new AlreadyVisitedError for the given resource.
func NewAlreadyVisitedError(res *Resource) error {
	return errors.New(AlreadyVisitedError{Key: res.ResourceKey()})
}
