// Package crawlertest provides an in-memory crawler client for tests.
package crawlertest

import (
	"context"
	"sync"

	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
	"github.com/gruntwork-io/cloud-inventory/internal/errors"

	"google.golang.org/api/iterator"
)

// ErrNotFound is returned for lookups of records the fake client does not hold.
var ErrNotFound = errors.New("not found")

// SliceIterator yields the given records in order, then the injected error, then iterator.Done.
type SliceIterator struct {
	Records []crawler.RawRecord
	Err     error

	next int
}

func (it *SliceIterator) Next() (crawler.RawRecord, error) {
	if it.next < len(it.Records) {
		record := it.Records[it.next]
		it.next++

		return record, nil
	}

	if it.Err != nil {
		return nil, it.Err
	}

	return nil, iterator.Done
}

// FakeClient implements crawler.Client from in-memory listings. Unset listings yield empty
// sequences. Every call is counted by listing name so tests can assert which client operations
// were reached.
type FakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	Organizations map[string]crawler.RawRecord
	Projects      map[string][]crawler.RawRecord
	Folders       map[string][]crawler.RawRecord
	Buckets       map[int64][]crawler.RawRecord
	Objects       map[string][]crawler.RawRecord
	Datasets      map[int64][]crawler.RawRecord
	AppEngine     map[int64][]crawler.RawRecord
	Instances     map[string][]crawler.RawRecord
	Firewalls     map[string][]crawler.RawRecord
	SQLInstances  map[string][]crawler.RawRecord

	// SQLErr is returned mid-listing from IterCloudSQLInstances for SQLErrProject.
	SQLErr        error
	SQLErrProject string

	IamPolicies     map[string]crawler.Policy
	StoragePolicies map[string]crawler.Policy
	DatasetPolicies map[string]crawler.Policy

	// PolicyErr, when set, fails every IAM policy read.
	PolicyErr error
}

var _ crawler.Client = (*FakeClient)(nil)

// NewFakeClient returns an empty fake client.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		calls:           make(map[string]int),
		Organizations:   make(map[string]crawler.RawRecord),
		Projects:        make(map[string][]crawler.RawRecord),
		Folders:         make(map[string][]crawler.RawRecord),
		Buckets:         make(map[int64][]crawler.RawRecord),
		Objects:         make(map[string][]crawler.RawRecord),
		Datasets:        make(map[int64][]crawler.RawRecord),
		AppEngine:       make(map[int64][]crawler.RawRecord),
		Instances:       make(map[string][]crawler.RawRecord),
		Firewalls:       make(map[string][]crawler.RawRecord),
		SQLInstances:    make(map[string][]crawler.RawRecord),
		IamPolicies:     make(map[string]crawler.Policy),
		StoragePolicies: make(map[string]crawler.Policy),
		DatasetPolicies: make(map[string]crawler.Policy),
	}
}

func (c *FakeClient) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls[call]++
}

// CallCount returns how many times the named client operation was called.
func (c *FakeClient) CallCount(call string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[call]
}

// SetIamPolicy replaces the IAM policy the fake serves for the given key.
func (c *FakeClient) SetIamPolicy(key string, policy crawler.Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.IamPolicies[key] = policy
}

func (c *FakeClient) FetchOrganization(_ context.Context, key string) (crawler.RawRecord, error) {
	c.record("FetchOrganization/" + key)

	record, ok := c.Organizations[key]
	if !ok {
		return nil, ErrNotFound
	}

	return record, nil
}

func (c *FakeClient) IterFolders(_ context.Context, orgID string) crawler.RawIterator {
	c.record("IterFolders/" + orgID)

	return &SliceIterator{Records: c.Folders[orgID]}
}

func (c *FakeClient) IterProjects(_ context.Context, orgID string) crawler.RawIterator {
	c.record("IterProjects/" + orgID)

	return &SliceIterator{Records: c.Projects[orgID]}
}

func (c *FakeClient) IterBuckets(_ context.Context, projectNumber int64) crawler.RawIterator {
	c.record("IterBuckets")

	return &SliceIterator{Records: c.Buckets[projectNumber]}
}

func (c *FakeClient) IterObjects(_ context.Context, bucketID string) crawler.RawIterator {
	c.record("IterObjects/" + bucketID)

	return &SliceIterator{Records: c.Objects[bucketID]}
}

func (c *FakeClient) IterDatasets(_ context.Context, projectNumber int64) crawler.RawIterator {
	c.record("IterDatasets")

	return &SliceIterator{Records: c.Datasets[projectNumber]}
}

func (c *FakeClient) IterAppEngineApps(_ context.Context, projectNumber int64) crawler.RawIterator {
	c.record("IterAppEngineApps")

	return &SliceIterator{Records: c.AppEngine[projectNumber]}
}

func (c *FakeClient) IterComputeInstances(_ context.Context, projectID string) crawler.RawIterator {
	c.record("IterComputeInstances/" + projectID)

	return &SliceIterator{Records: c.Instances[projectID]}
}

func (c *FakeClient) IterComputeFirewalls(_ context.Context, projectID string) crawler.RawIterator {
	c.record("IterComputeFirewalls/" + projectID)

	return &SliceIterator{Records: c.Firewalls[projectID]}
}

func (c *FakeClient) IterCloudSQLInstances(_ context.Context, projectID string) crawler.RawIterator {
	c.record("IterCloudSQLInstances/" + projectID)

	it := &SliceIterator{Records: c.SQLInstances[projectID]}
	if c.SQLErr != nil && projectID == c.SQLErrProject {
		it.Err = c.SQLErr
	}

	return it
}

func (c *FakeClient) GetOrganizationIamPolicy(_ context.Context, key string) (crawler.Policy, error) {
	return c.iamPolicy("GetOrganizationIamPolicy/"+key, key)
}

func (c *FakeClient) GetProjectIamPolicy(_ context.Context, key string) (crawler.Policy, error) {
	return c.iamPolicy("GetProjectIamPolicy/"+key, key)
}

func (c *FakeClient) GetBucketIamPolicy(_ context.Context, key string) (crawler.Policy, error) {
	return c.iamPolicy("GetBucketIamPolicy/"+key, key)
}

func (c *FakeClient) GetObjectIamPolicy(_ context.Context, key string) (crawler.Policy, error) {
	return c.iamPolicy("GetObjectIamPolicy/"+key, key)
}

func (c *FakeClient) GetBucketStoragePolicy(_ context.Context, key string) (crawler.Policy, error) {
	c.record("GetBucketStoragePolicy/" + key)

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.StoragePolicies[key], nil
}

func (c *FakeClient) GetObjectStoragePolicy(_ context.Context, key string) (crawler.Policy, error) {
	c.record("GetObjectStoragePolicy/" + key)

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.StoragePolicies[key], nil
}

func (c *FakeClient) GetDatasetPolicy(_ context.Context, projectKey, datasetKey string) (crawler.Policy, error) {
	c.record("GetDatasetPolicy/" + projectKey + "/" + datasetKey)

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.DatasetPolicies[projectKey+"/"+datasetKey], nil
}

func (c *FakeClient) iamPolicy(call, key string) (crawler.Policy, error) {
	c.record(call)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.PolicyErr != nil {
		return nil, c.PolicyErr
	}

	return c.IamPolicies[key], nil
}
