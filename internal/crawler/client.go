package crawler

import (
	"context"
)

// RawRecord is one untyped record of a resource as returned by the cloud API, keyed by the wire
// field names. The engine imposes no schema beyond requiring that each kind's designated
// primary-id field is present.
type RawRecord map[string]any

// Policy is a per-resource access-control snapshot (IAM policy, storage ACL or dataset access
// policy) in its untyped wire form. A nil Policy means the resource has no policy.
type Policy map[string]any

// RawIterator produces a finite, single-use, lazy sequence of raw records. Next returns
// iterator.Done (from google.golang.org/api/iterator) once the sequence is exhausted.
type RawIterator interface {
	Next() (RawRecord, error)
}

// Client is the cloud API surface the engine consumes for listings and policy reads. It is
// responsible for pagination, authentication and retries. Implementations must be safe for
// concurrent use: the same client handle is shared by all concurrently executing traversal
// branches.
type Client interface {
	// FetchOrganization returns the raw record of the organization with the given key,
	// e.g. "organizations/123456789".
	FetchOrganization(ctx context.Context, key string) (RawRecord, error)

	// IterFolders lists the folders directly under the given organization.
	IterFolders(ctx context.Context, orgID string) RawIterator

	// IterProjects lists the projects directly under the given organization.
	IterProjects(ctx context.Context, orgID string) RawIterator

	// IterBuckets lists the GCS buckets of the project with the given number.
	IterBuckets(ctx context.Context, projectNumber int64) RawIterator

	// IterObjects lists the GCS objects of the given bucket.
	IterObjects(ctx context.Context, bucketID string) RawIterator

	// IterDatasets lists the BigQuery datasets of the project with the given number.
	IterDatasets(ctx context.Context, projectNumber int64) RawIterator

	// IterAppEngineApps lists the App Engine apps of the project with the given number.
	IterAppEngineApps(ctx context.Context, projectNumber int64) RawIterator

	// IterComputeInstances lists the compute instances of the given project.
	IterComputeInstances(ctx context.Context, projectID string) RawIterator

	// IterComputeFirewalls lists the compute firewall rules of the given project.
	IterComputeFirewalls(ctx context.Context, projectID string) RawIterator

	// IterCloudSQLInstances lists the Cloud SQL instances of the given project.
	IterCloudSQLInstances(ctx context.Context, projectID string) RawIterator

	// GetOrganizationIamPolicy returns the IAM policy of the given organization.
	GetOrganizationIamPolicy(ctx context.Context, key string) (Policy, error)

	// GetProjectIamPolicy returns the IAM policy of the given project.
	GetProjectIamPolicy(ctx context.Context, key string) (Policy, error)

	// GetBucketIamPolicy returns the IAM policy of the given bucket.
	GetBucketIamPolicy(ctx context.Context, key string) (Policy, error)

	// GetObjectIamPolicy returns the IAM policy of the given object.
	GetObjectIamPolicy(ctx context.Context, key string) (Policy, error)

	// GetBucketStoragePolicy returns the storage ACL of the given bucket.
	GetBucketStoragePolicy(ctx context.Context, key string) (Policy, error)

	// GetObjectStoragePolicy returns the storage ACL of the given object.
	GetObjectStoragePolicy(ctx context.Context, key string) (Policy, error)

	// GetDatasetPolicy returns the access policy of the given dataset within the given project.
	GetDatasetPolicy(ctx context.Context, projectKey, datasetKey string) (Policy, error)
}
