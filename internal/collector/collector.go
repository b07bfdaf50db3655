// Package collector implements the visitor that turns a crawl into an inventory.
//
// The Collector records one Record per visited resource, enriched with whatever policies the
// resource's kind supports. Visits arrive concurrently from the worker pool, so records are
// kept in a concurrent map keyed by "kind/id". Policy reads are best effort: a failed read is
// logged and counted but never aborts the crawl, because an inventory with a missing ACL is
// more useful than no inventory at all.
package collector

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync/atomic"

	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
	"github.com/gruntwork-io/cloud-inventory/internal/worker"
	"github.com/gruntwork-io/cloud-inventory/pkg/log"
	"github.com/puzpuzpuz/xsync/v3"
)

// Record is a single inventoried resource as it is written to the output.
type Record struct {
	Kind          crawler.Kind      `json:"kind"`
	Key           string            `json:"key"`
	Parent        string            `json:"parent,omitempty"`
	Data          crawler.RawRecord `json:"data"`
	IamPolicy     crawler.Policy    `json:"iam_policy,omitempty"`
	StoragePolicy crawler.Policy    `json:"storage_policy,omitempty"`
	DatasetPolicy crawler.Policy    `json:"dataset_policy,omitempty"`
}

// Collector gathers crawl results. It satisfies crawler.Visitor and owns the worker pool that
// runs non-leaf subtrees concurrently.
type Collector struct {
	client crawler.Client
	pool   *worker.Pool
	logger log.Logger

	records        *xsync.MapOf[string, *Record]
	policyFailures atomic.Int64
}

var _ crawler.Visitor = (*Collector)(nil)

// New returns a Collector that dispatches subtree crawls to a pool of up to maxWorkers
// concurrent workers.
func New(client crawler.Client, logger log.Logger, maxWorkers int) *Collector {
	return &Collector{
		client:  client,
		pool:    worker.NewWorkerPool(maxWorkers),
		logger:  logger,
		records: xsync.NewMapOf[string, *Record](),
	}
}

// Visit stores a record for the resource, including its supported policies. Policy read
// failures are logged and counted, not propagated: the crawl must survive a revoked permission
// on a single resource.
func (c *Collector) Visit(ctx context.Context, res *crawler.Resource) {
	key := res.ResourceKey()

	record := &Record{
		Kind: res.Kind(),
		Key:  key.String(),
		Data: res.Data(),
	}

	if parent, err := res.Parent(); err == nil && parent != nil {
		record.Parent = parent.ResourceKey().String()
	}

	record.IamPolicy = c.readPolicy(ctx, res, "iam", res.IamPolicy)
	record.StoragePolicy = c.readPolicy(ctx, res, "storage", res.StoragePolicy)
	record.DatasetPolicy = c.readPolicy(ctx, res, "dataset", res.DatasetPolicy)

	c.records.Store(record.Key, record)

	c.logger.Debugf("Visited %s", record.Key)
}

func (c *Collector) readPolicy(ctx context.Context, res *crawler.Resource, name string, fetch func(context.Context, crawler.Client) (crawler.Policy, error)) crawler.Policy {
	policy, err := fetch(ctx, c.client)
	if err != nil {
		c.policyFailures.Add(1)
		c.logger.WithError(err).Warnf("Failed to read %s policy for %s", name, res.ResourceKey())

		return nil
	}

	return policy
}

// Dispatch submits a subtree crawl to the worker pool.
func (c *Collector) Dispatch(task crawler.Task) {
	c.pool.Submit(worker.Task(task))
}

// Client returns the shared client handle used by iterators and policy accessors.
func (c *Collector) Client() crawler.Client {
	return c.client
}

// Wait blocks until every dispatched subtree has finished and returns the accumulated crawl
// errors, if any.
func (c *Collector) Wait() error {
	return c.pool.Wait()
}

// Len returns the number of records collected so far.
func (c *Collector) Len() int {
	return c.records.Size()
}

// PolicyFailures returns how many policy reads failed during the crawl.
func (c *Collector) PolicyFailures() int64 {
	return c.policyFailures.Load()
}

// Records returns the collected records sorted by key.
func (c *Collector) Records() []*Record {
	records := make([]*Record, 0, c.records.Size())

	c.records.Range(func(_ string, record *Record) bool {
		records = append(records, record)
		return true
	})

	sort.Slice(records, func(i, j int) bool {
		return records[i].Key < records[j].Key
	})

	return records
}

// WriteJSON writes the collected records to w as newline-delimited JSON, sorted by key so the
// output is stable across runs.
func (c *Collector) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, record := range c.Records() {
		if err := enc.Encode(record); err != nil {
			return err
		}
	}

	return nil
}
