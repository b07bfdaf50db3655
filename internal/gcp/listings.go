package gcp

import (
	"context"
	"strconv"
	"strings"

	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
	"github.com/gruntwork-io/cloud-inventory/internal/errors"
	"google.golang.org/api/googleapi"
)

// FetchOrganization returns the raw record of the organization with the given key,
// e.g. "organizations/123456789".
func (c *Client) FetchOrganization(ctx context.Context, key string) (crawler.RawRecord, error) {
	c.logger.Debugf("Fetching organization %s", key)

	org, err := c.crm.Organizations.Get(key).Context(ctx).Do()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return toRaw(org)
}

// IterProjects lists the active and pending-deletion projects directly under the organization.
func (c *Client) IterProjects(ctx context.Context, orgID string) crawler.RawIterator {
	filter := "parent.type:organization parent.id:" + organizationNumber(orgID)

	return newPageIterator(func(pageToken string) ([]crawler.RawRecord, string, error) {
		resp, err := c.crm.Projects.List().Filter(filter).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, "", errors.WithStackTrace(err)
		}

		records := make([]crawler.RawRecord, 0, len(resp.Projects))

		for _, project := range resp.Projects {
			record, err := toRaw(project)
			if err != nil {
				return nil, "", err
			}

			records = append(records, record)
		}

		return records, resp.NextPageToken, nil
	})
}

// IterFolders lists the folders directly under the organization. The folders API identifies
// folders by their "name"; it is exposed under "id" as well, which is the folder key field.
func (c *Client) IterFolders(ctx context.Context, orgID string) crawler.RawIterator {
	return newPageIterator(func(pageToken string) ([]crawler.RawRecord, string, error) {
		resp, err := c.folders.Folders.List().Parent(orgID).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, "", errors.WithStackTrace(err)
		}

		records := make([]crawler.RawRecord, 0, len(resp.Folders))

		for _, folder := range resp.Folders {
			record, err := toRaw(folder)
			if err != nil {
				return nil, "", err
			}

			if _, ok := record["id"]; !ok {
				record["id"] = folder.Name
			}

			records = append(records, record)
		}

		return records, resp.NextPageToken, nil
	})
}

// IterBuckets lists the GCS buckets of the project with the given number, with full projection
// so the records carry their ACLs.
func (c *Client) IterBuckets(ctx context.Context, projectNumber int64) crawler.RawIterator {
	project := strconv.FormatInt(projectNumber, 10)

	return newPageIterator(func(pageToken string) ([]crawler.RawRecord, string, error) {
		resp, err := c.storage.Buckets.List(project).Projection("full").PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, "", errors.WithStackTrace(err)
		}

		records := make([]crawler.RawRecord, 0, len(resp.Items))

		for _, bucket := range resp.Items {
			record, err := toRaw(bucket)
			if err != nil {
				return nil, "", err
			}

			records = append(records, record)
		}

		return records, resp.NextPageToken, nil
	})
}

// IterObjects lists the GCS objects of the given bucket.
func (c *Client) IterObjects(ctx context.Context, bucketID string) crawler.RawIterator {
	return newPageIterator(func(pageToken string) ([]crawler.RawRecord, string, error) {
		resp, err := c.storage.Objects.List(bucketID).Projection("full").PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, "", errors.WithStackTrace(err)
		}

		records := make([]crawler.RawRecord, 0, len(resp.Items))

		for _, object := range resp.Items {
			record, err := toRaw(object)
			if err != nil {
				return nil, "", err
			}

			records = append(records, record)
		}

		return records, resp.NextPageToken, nil
	})
}

// IterDatasets lists the BigQuery datasets of the project with the given number. The dataset id
// is lifted out of the dataset reference so it is addressable as the kind's key field.
func (c *Client) IterDatasets(ctx context.Context, projectNumber int64) crawler.RawIterator {
	project := strconv.FormatInt(projectNumber, 10)

	return newPageIterator(func(pageToken string) ([]crawler.RawRecord, string, error) {
		resp, err := c.bigquery.Datasets.List(project).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, "", errors.WithStackTrace(err)
		}

		records := make([]crawler.RawRecord, 0, len(resp.Datasets))

		for _, dataset := range resp.Datasets {
			record, err := toRaw(dataset)
			if err != nil {
				return nil, "", err
			}

			if dataset.DatasetReference != nil {
				record["datasetId"] = dataset.DatasetReference.DatasetId
			}

			records = append(records, record)
		}

		return records, resp.NextPageToken, nil
	})
}

// IterAppEngineApps yields the App Engine app of the project, if one exists. App Engine has at
// most one app per project, addressed by the project itself rather than listed.
func (c *Client) IterAppEngineApps(ctx context.Context, projectNumber int64) crawler.RawIterator {
	project := strconv.FormatInt(projectNumber, 10)

	return newPageIterator(func(_ string) ([]crawler.RawRecord, string, error) {
		app, err := c.appengine.Apps.Get(project).Context(ctx).Do()
		if err != nil {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == 404 {
				c.logger.Debugf("Project %s has no App Engine app", project)

				return nil, "", nil
			}

			return nil, "", errors.WithStackTrace(err)
		}

		record, err := toRaw(app)
		if err != nil {
			return nil, "", err
		}

		return []crawler.RawRecord{record}, "", nil
	})
}

// IterComputeInstances lists the compute instances of the project across all zones.
func (c *Client) IterComputeInstances(ctx context.Context, projectID string) crawler.RawIterator {
	return newPageIterator(func(pageToken string) ([]crawler.RawRecord, string, error) {
		resp, err := c.compute.Instances.AggregatedList(projectID).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, "", errors.WithStackTrace(err)
		}

		var records []crawler.RawRecord

		for _, scoped := range resp.Items {
			for _, instance := range scoped.Instances {
				record, err := toRaw(instance)
				if err != nil {
					return nil, "", err
				}

				records = append(records, record)
			}
		}

		return records, resp.NextPageToken, nil
	})
}

// IterComputeFirewalls lists the compute firewall rules of the project.
func (c *Client) IterComputeFirewalls(ctx context.Context, projectID string) crawler.RawIterator {
	return newPageIterator(func(pageToken string) ([]crawler.RawRecord, string, error) {
		resp, err := c.compute.Firewalls.List(projectID).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, "", errors.WithStackTrace(err)
		}

		records := make([]crawler.RawRecord, 0, len(resp.Items))

		for _, firewall := range resp.Items {
			record, err := toRaw(firewall)
			if err != nil {
				return nil, "", err
			}

			records = append(records, record)
		}

		return records, resp.NextPageToken, nil
	})
}

// IterCloudSQLInstances lists the Cloud SQL instances of the project.
func (c *Client) IterCloudSQLInstances(ctx context.Context, projectID string) crawler.RawIterator {
	return newPageIterator(func(pageToken string) ([]crawler.RawRecord, string, error) {
		resp, err := c.sqladmin.Instances.List(projectID).PageToken(pageToken).Context(ctx).Do()
		if err != nil {
			return nil, "", errors.WithStackTrace(err)
		}

		records := make([]crawler.RawRecord, 0, len(resp.Items))

		for _, instance := range resp.Items {
			record, err := toRaw(instance)
			if err != nil {
				return nil, "", err
			}

			records = append(records, record)
		}

		return records, resp.NextPageToken, nil
	})
}

// organizationNumber extracts the numeric id from an organization key like "organizations/123".
func organizationNumber(orgID string) string {
	return strings.TrimPrefix(orgID, "organizations/")
}
