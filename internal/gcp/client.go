package gcp

import (
	"context"

	gcs "cloud.google.com/go/storage"
	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
	"github.com/gruntwork-io/cloud-inventory/internal/errors"
	"github.com/gruntwork-io/cloud-inventory/pkg/log"
	appengine "google.golang.org/api/appengine/v1"
	bigquery "google.golang.org/api/bigquery/v2"
	crmv1 "google.golang.org/api/cloudresourcemanager/v1"
	crmv2 "google.golang.org/api/cloudresourcemanager/v2"
	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/option"
	sqladmin "google.golang.org/api/sqladmin/v1beta4"
	storagev1 "google.golang.org/api/storage/v1"
)

// Client implements the crawler client over the Google Cloud APIs. It is safe for concurrent
// use: the underlying service handles are stateless wrappers around a shared HTTP client.
type Client struct {
	crm       *crmv1.Service
	folders   *crmv2.Service
	storage   *storagev1.Service
	gcs       *gcs.Client
	bigquery  *bigquery.Service
	sqladmin  *sqladmin.Service
	compute   *compute.Service
	appengine *appengine.APIService
	logger    log.Logger
}

var _ crawler.Client = (*Client)(nil)

// New creates a Client with the given client options (see ClientOptions).
func New(ctx context.Context, logger log.Logger, opts ...option.ClientOption) (*Client, error) {
	crmService, err := crmv1.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("Error creating resource manager client: %w", err)
	}

	foldersService, err := crmv2.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("Error creating folders client: %w", err)
	}

	storageService, err := storagev1.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("Error creating storage client: %w", err)
	}

	gcsClient, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("Error creating GCS client: %w", err)
	}

	bigqueryService, err := bigquery.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("Error creating BigQuery client: %w", err)
	}

	sqladminService, err := sqladmin.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("Error creating Cloud SQL admin client: %w", err)
	}

	computeService, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("Error creating compute client: %w", err)
	}

	appengineService, err := appengine.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Errorf("Error creating App Engine client: %w", err)
	}

	return &Client{
		crm:       crmService,
		folders:   foldersService,
		storage:   storageService,
		gcs:       gcsClient,
		bigquery:  bigqueryService,
		sqladmin:  sqladminService,
		compute:   computeService,
		appengine: appengineService,
		logger:    logger,
	}, nil
}

// Close releases the resources held by the client.
func (c *Client) Close() error {
	return c.gcs.Close()
}
