package crawler

import (
	"context"

	"github.com/gruntwork-io/cloud-inventory/internal/errors"
)

// The GCP resource kinds crawled by the default registry.
const (
	KindOrganization     Kind = "organization"
	KindFolder           Kind = "folder"
	KindProject          Kind = "project"
	KindBucket           Kind = "bucket"
	KindObject           Kind = "object"
	KindDataset          Kind = "dataset"
	KindAppEngineApp     Kind = "appengineapp"
	KindComputeInstance  Kind = "instance"
	KindComputeFirewall  Kind = "firewall"
	KindCloudSQLInstance Kind = "cloudsqlinstance"
)

// lifecycleStateDeleteRequested is the project lifecycle state signaling that the project is
// pending deletion and its children must not be enumerated.
const lifecycleStateDeleteRequested = "DELETE_REQUESTED"

// defaultSpecs returns the construction specs of the GCP resource kinds.
func defaultSpecs() []*Spec {
	return []*Spec{
		{
			Kind:     KindOrganization,
			KeyField: "name",
			Contains: []ChildSpec{
				{Kind: KindProject, List: listProjects},
				{Kind: KindFolder, List: listFolders},
			},
			IamPolicy: fetchOrganizationIamPolicy,
		},
		{
			Kind:      KindFolder,
			KeyField:  "id",
			DependsOn: []Kind{KindOrganization},
		},
		{
			Kind:      KindProject,
			KeyField:  "projectId",
			DependsOn: []Kind{KindOrganization, KindFolder},
			Contains: []ChildSpec{
				{Kind: KindAppEngineApp, Conditional: true, List: listAppEngineApps},
				{Kind: KindBucket, Conditional: true, List: listBuckets},
				{Kind: KindDataset, Conditional: true, List: listDatasets},
				{Kind: KindComputeInstance, Conditional: true, List: listComputeInstances},
				{Kind: KindComputeFirewall, Conditional: true, List: listComputeFirewalls},
				{Kind: KindCloudSQLInstance, Conditional: true, List: listCloudSQLInstances},
			},
			Enumerable: projectEnumerable,
			IamPolicy:  fetchProjectIamPolicy,
		},
		{
			Kind:      KindBucket,
			KeyField:  "id",
			DependsOn: []Kind{KindProject},
			Contains: []ChildSpec{
				{Kind: KindObject, List: listObjects},
			},
			IamPolicy:     fetchBucketIamPolicy,
			StoragePolicy: fetchBucketStoragePolicy,
		},
		{
			Kind:          KindObject,
			KeyField:      "id",
			DependsOn:     []Kind{KindBucket},
			IamPolicy:     fetchObjectIamPolicy,
			StoragePolicy: fetchObjectStoragePolicy,
		},
		{
			Kind:          KindDataset,
			KeyField:      "datasetId",
			DependsOn:     []Kind{KindProject},
			DatasetPolicy: fetchDatasetPolicy,
		},
		{
			Kind:      KindAppEngineApp,
			KeyField:  "id",
			DependsOn: []Kind{KindProject},
		},
		{
			Kind:      KindComputeInstance,
			KeyField:  "id",
			DependsOn: []Kind{KindProject},
		},
		{
			Kind:      KindComputeFirewall,
			KeyField:  "id",
			DependsOn: []Kind{KindProject},
		},
		{
			// Cloud SQL instances carry no "id" on the wire; their name is the identifier.
			Kind:      KindCloudSQLInstance,
			KeyField:  "name",
			DependsOn: []Kind{KindProject},
		},
	}
}

func projectEnumerable(res *Resource) bool {
	state, _ := res.data["lifecycleState"].(string)

	return state != lifecycleStateDeleteRequested
}

func listProjects(ctx context.Context, parent *Resource, client Client) (RawIterator, error) {
	key, err := parent.Key()
	if err != nil {
		return nil, err
	}

	return client.IterProjects(ctx, key), nil
}

func listFolders(ctx context.Context, parent *Resource, client Client) (RawIterator, error) {
	key, err := parent.Key()
	if err != nil {
		return nil, err
	}

	return client.IterFolders(ctx, key), nil
}

func listBuckets(ctx context.Context, parent *Resource, client Client) (RawIterator, error) {
	number, err := parent.NumericField("projectNumber")
	if err != nil {
		return nil, err
	}

	return client.IterBuckets(ctx, number), nil
}

func listObjects(ctx context.Context, parent *Resource, client Client) (RawIterator, error) {
	key, err := parent.Key()
	if err != nil {
		return nil, err
	}

	return client.IterObjects(ctx, key), nil
}

func listDatasets(ctx context.Context, parent *Resource, client Client) (RawIterator, error) {
	number, err := parent.NumericField("projectNumber")
	if err != nil {
		return nil, err
	}

	return client.IterDatasets(ctx, number), nil
}

func listAppEngineApps(ctx context.Context, parent *Resource, client Client) (RawIterator, error) {
	number, err := parent.NumericField("projectNumber")
	if err != nil {
		return nil, err
	}

	return client.IterAppEngineApps(ctx, number), nil
}

func listComputeInstances(ctx context.Context, parent *Resource, client Client) (RawIterator, error) {
	key, err := parent.Key()
	if err != nil {
		return nil, err
	}

	return client.IterComputeInstances(ctx, key), nil
}

func listComputeFirewalls(ctx context.Context, parent *Resource, client Client) (RawIterator, error) {
	key, err := parent.Key()
	if err != nil {
		return nil, err
	}

	return client.IterComputeFirewalls(ctx, key), nil
}

func listCloudSQLInstances(ctx context.Context, parent *Resource, client Client) (RawIterator, error) {
	key, err := parent.Key()
	if err != nil {
		return nil, err
	}

	return client.IterCloudSQLInstances(ctx, key), nil
}

func fetchOrganizationIamPolicy(ctx context.Context, client Client, res *Resource) (Policy, error) {
	key, err := res.Key()
	if err != nil {
		return nil, err
	}

	return client.GetOrganizationIamPolicy(ctx, key)
}

func fetchProjectIamPolicy(ctx context.Context, client Client, res *Resource) (Policy, error) {
	key, err := res.Key()
	if err != nil {
		return nil, err
	}

	return client.GetProjectIamPolicy(ctx, key)
}

func fetchBucketIamPolicy(ctx context.Context, client Client, res *Resource) (Policy, error) {
	key, err := res.Key()
	if err != nil {
		return nil, err
	}

	return client.GetBucketIamPolicy(ctx, key)
}

func fetchObjectIamPolicy(ctx context.Context, client Client, res *Resource) (Policy, error) {
	key, err := res.Key()
	if err != nil {
		return nil, err
	}

	return client.GetObjectIamPolicy(ctx, key)
}

func fetchBucketStoragePolicy(ctx context.Context, client Client, res *Resource) (Policy, error) {
	key, err := res.Key()
	if err != nil {
		return nil, err
	}

	return client.GetBucketStoragePolicy(ctx, key)
}

func fetchObjectStoragePolicy(ctx context.Context, client Client, res *Resource) (Policy, error) {
	key, err := res.Key()
	if err != nil {
		return nil, err
	}

	return client.GetObjectStoragePolicy(ctx, key)
}

// fetchDatasetPolicy needs both the dataset's key and its parent project's key, so it can only
// succeed after the dataset has been visited and its ancestor chain attached.
func fetchDatasetPolicy(ctx context.Context, client Client, res *Resource) (Policy, error) {
	parent, err := res.Parent()
	if err != nil {
		return nil, err
	}

	if parent == nil {
		return nil, errors.Errorf("dataset %s has no parent project", res.ResourceKey())
	}

	projectKey, err := parent.Key()
	if err != nil {
		return nil, err
	}

	key, err := res.Key()
	if err != nil {
		return nil, err
	}

	return client.GetDatasetPolicy(ctx, projectKey, key)
}
