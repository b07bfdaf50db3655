package crawler

import (
	"context"

	"github.com/gruntwork-io/cloud-inventory/internal/errors"
	"google.golang.org/api/iterator"
)

// Task is a zero-argument unit of work handed to Visitor.Dispatch. Tasks are independent: they
// may execute out of order relative to each other and to the submitting call's continuation.
type Task func() error

// Visitor is the external collaborator driving a crawl. Visit is called exactly once per
// discovered resource, before any of that resource's children are visited. Dispatch accepts a
// unit of work for possibly-concurrent, possibly-deferred execution; the engine makes no
// assumption about whether it runs synchronously or asynchronously and never waits for it.
// Client supplies the shared client handle used by iterators and policy accessors.
type Visitor interface {
	Visit(ctx context.Context, res *Resource)
	Dispatch(task Task)
	Client() Client
}

// Traverse crawls the resource graph rooted at res depth-first, pre-order. The ancestor chain of
// the root is the empty sequence; recursive calls receive the chain extended with the resource
// being descended from.
//
// Leaf children carry no enumeration work of their own and are traversed inline. Non-leaf
// children may recursively fan out, so they are the unit of opportunistic parallelism and are
// handed to the visitor's Dispatch instead.
//
// A listing failure is returned as a CrawlError tagged with res's key and the failing child
// kind. It aborts only this Traverse call: subtrees already dispatched continue independently,
// and whether the whole crawl should be aborted is the caller's decision.
func Traverse(ctx context.Context, res *Resource, visitor Visitor, ancestors []*Resource) error {
	if err := res.attachAncestors(ancestors); err != nil {
		return err
	}

	visitor.Visit(ctx, res)

	if res.IsLeaf() {
		return nil
	}

	// The extended chain is built once per resource and shared read-only by all children.
	chain := make([]*Resource, 0, len(ancestors)+1)
	chain = append(chain, ancestors...)
	chain = append(chain, res)

	client := visitor.Client()

	for _, childSpec := range res.spec.Contains {
		it, err := childSpec.newIterator(ctx, res, client)
		if err != nil {
			return NewCrawlError(res, childSpec.Kind, err)
		}

		for {
			child, err := it.Next()
			if errors.Is(err, iterator.Done) {
				break
			}

			if err != nil {
				return NewCrawlError(res, childSpec.Kind, err)
			}

			if child.IsLeaf() {
				if err := Traverse(ctx, child, visitor, chain); err != nil {
					return err
				}

				continue
			}

			visitor.Dispatch(func() error {
				return Traverse(ctx, child, visitor, chain)
			})
		}
	}

	return nil
}
