package gcp

import (
	"context"

	gcs "cloud.google.com/go/storage"
	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
	"github.com/gruntwork-io/cloud-inventory/internal/errors"
	crmv1 "google.golang.org/api/cloudresourcemanager/v1"
)

// GetOrganizationIamPolicy returns the IAM policy of the given organization.
func (c *Client) GetOrganizationIamPolicy(ctx context.Context, key string) (crawler.Policy, error) {
	policy, err := c.crm.Organizations.GetIamPolicy(key, &crmv1.GetIamPolicyRequest{}).Context(ctx).Do()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return policyToRaw(policy)
}

// GetProjectIamPolicy returns the IAM policy of the given project.
func (c *Client) GetProjectIamPolicy(ctx context.Context, key string) (crawler.Policy, error) {
	policy, err := c.crm.Projects.GetIamPolicy(key, &crmv1.GetIamPolicyRequest{}).Context(ctx).Do()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return policyToRaw(policy)
}

// GetBucketIamPolicy returns the IAM policy of the given bucket.
func (c *Client) GetBucketIamPolicy(ctx context.Context, key string) (crawler.Policy, error) {
	policy, err := c.storage.Buckets.GetIamPolicy(key).Context(ctx).Do()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return policyToRaw(policy)
}

// GetObjectIamPolicy returns the IAM policy of the object with the given composite id
// ("<bucket>/<object>/<generation>").
func (c *Client) GetObjectIamPolicy(ctx context.Context, key string) (crawler.Policy, error) {
	bucket, object, err := splitObjectID(key)
	if err != nil {
		return nil, err
	}

	policy, err := c.storage.Objects.GetIamPolicy(bucket, object).Context(ctx).Do()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return policyToRaw(policy)
}

// GetBucketStoragePolicy returns the ACL rules of the given bucket.
func (c *Client) GetBucketStoragePolicy(ctx context.Context, key string) (crawler.Policy, error) {
	rules, err := c.gcs.Bucket(key).ACL().List(ctx)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return aclToPolicy(rules), nil
}

// GetObjectStoragePolicy returns the ACL rules of the object with the given composite id.
func (c *Client) GetObjectStoragePolicy(ctx context.Context, key string) (crawler.Policy, error) {
	bucket, object, err := splitObjectID(key)
	if err != nil {
		return nil, err
	}

	rules, err := c.gcs.Bucket(bucket).Object(object).ACL().List(ctx)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return aclToPolicy(rules), nil
}

// GetDatasetPolicy returns the access policy of the given dataset, which BigQuery carries on
// the dataset record itself.
func (c *Client) GetDatasetPolicy(ctx context.Context, projectKey, datasetKey string) (crawler.Policy, error) {
	dataset, err := c.bigquery.Datasets.Get(projectKey, datasetKey).Context(ctx).Do()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	access := make([]any, 0, len(dataset.Access))

	for _, entry := range dataset.Access {
		record, err := toRaw(entry)
		if err != nil {
			return nil, err
		}

		access = append(access, record)
	}

	return crawler.Policy{
		"etag":   dataset.Etag,
		"access": access,
	}, nil
}

func policyToRaw(policy any) (crawler.Policy, error) {
	record, err := toRaw(policy)
	if err != nil {
		return nil, err
	}

	return crawler.Policy(record), nil
}

func aclToPolicy(rules []gcs.ACLRule) crawler.Policy {
	items := make([]any, 0, len(rules))

	for _, rule := range rules {
		items = append(items, map[string]any{
			"entity": string(rule.Entity),
			"role":   string(rule.Role),
		})
	}

	return crawler.Policy{"acl": items}
}
