package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/gruntwork-io/cloud-inventory/internal/collector"
	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
	"github.com/gruntwork-io/cloud-inventory/internal/errors"
	"github.com/gruntwork-io/cloud-inventory/internal/gcp"
	"github.com/gruntwork-io/cloud-inventory/pkg/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	// CrawlCommandName is the name of the crawl command.
	CrawlCommandName = "crawl"

	flagOrg                       = "org"
	flagParallelism               = "parallelism"
	flagOutput                    = "output"
	flagCredentials               = "credentials"
	flagAccessToken               = "access-token"
	flagImpersonateServiceAccount = "impersonate-service-account"
	flagImpersonateDelegates      = "impersonate-delegates"

	defaultParallelism = 10
)

// NewCrawlCommand creates the crawl command, which walks the resource hierarchy of one or more
// organizations and writes every discovered resource as newline-delimited JSON.
func NewCrawlCommand(logger log.Logger) *cli.Command {
	return &cli.Command{
		Name:      CrawlCommandName,
		Usage:     "Crawl organizations and write the discovered resources as newline-delimited JSON.",
		UsageText: appName + " crawl --org <id> [--org <id>...] [options]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     flagOrg,
				Usage:    "Organization to crawl, as a numeric ID or an organizations/<id> name. May be repeated.",
				Required: true,
			},
			&cli.IntFlag{
				Name:    flagParallelism,
				Usage:   "Maximum number of subtrees crawled concurrently.",
				Value:   defaultParallelism,
				EnvVars: []string{"CLOUD_INVENTORY_PARALLELISM"},
			},
			&cli.StringFlag{
				Name:    flagOutput,
				Usage:   "File to write the inventory to, or - for stdout.",
				Value:   "-",
				EnvVars: []string{"CLOUD_INVENTORY_OUTPUT"},
			},
			&cli.StringFlag{
				Name:    flagCredentials,
				Usage:   "Path to a service account key file.",
				EnvVars: []string{"CLOUD_INVENTORY_CREDENTIALS"},
			},
			&cli.StringFlag{
				Name:    flagAccessToken,
				Usage:   "OAuth2 access token to authenticate with instead of credentials.",
				EnvVars: []string{"CLOUD_INVENTORY_ACCESS_TOKEN"},
			},
			&cli.StringFlag{
				Name:    flagImpersonateServiceAccount,
				Usage:   "Service account to impersonate for all API calls.",
				EnvVars: []string{"CLOUD_INVENTORY_IMPERSONATE_SERVICE_ACCOUNT"},
			},
			&cli.StringSliceFlag{
				Name:  flagImpersonateDelegates,
				Usage: "Delegation chain for service account impersonation. May be repeated.",
			},
		},
		Action: func(ctx *cli.Context) error {
			return runCrawl(ctx, logger)
		},
	}
}

func runCrawl(cliCtx *cli.Context, logger log.Logger) error {
	ctx := cliCtx.Context

	client, err := newGCPClient(ctx, cliCtx, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	col := collector.New(client, logger, cliCtx.Int(flagParallelism))

	crawlErrs := crawlOrganizations(ctx, cliCtx.StringSlice(flagOrg), client, col, logger)

	// A partial inventory is still written out: subtrees that failed are reported, the rest
	// were collected.
	if err := writeInventory(col, cliCtx.String(flagOutput)); err != nil {
		return crawlErrs.Append(err).ErrorOrNil()
	}

	logger.Infof("Collected %d resources (%d policy reads failed)", col.Len(), col.PolicyFailures())

	return crawlErrs.ErrorOrNil()
}

func newGCPClient(ctx context.Context, cliCtx *cli.Context, logger log.Logger) (*gcp.Client, error) {
	cfg := &gcp.Config{
		Credentials:                        cliCtx.String(flagCredentials),
		AccessToken:                        cliCtx.String(flagAccessToken),
		ImpersonateServiceAccount:          cliCtx.String(flagImpersonateServiceAccount),
		ImpersonateServiceAccountDelegates: cliCtx.StringSlice(flagImpersonateDelegates),
	}

	opts, err := gcp.ClientOptions(ctx, cfg, envMap(os.Environ()))
	if err != nil {
		return nil, err
	}

	return gcp.New(ctx, logger, opts...)
}

// crawlOrganizations crawls each organization on its own goroutine. One organization failing
// never stops the others, so the errors are aggregated rather than short-circuited.
func crawlOrganizations(ctx context.Context, orgs []string, client crawler.Client, col *collector.Collector, logger log.Logger) *errors.MultiError {
	registry := crawler.Default()

	var group errgroup.Group

	for _, org := range orgs {
		orgKey := normalizeOrgKey(org)

		group.Go(func() error {
			logger.Infof("Crawling %s", orgKey)

			root, err := crawler.FetchOrganization(ctx, registry, client, orgKey)
			if err != nil {
				return err
			}

			return crawler.Traverse(ctx, root, col, nil)
		})
	}

	crawlErrs := &errors.MultiError{}

	if err := group.Wait(); err != nil {
		crawlErrs = crawlErrs.Append(err)
	}

	if err := col.Wait(); err != nil {
		crawlErrs = crawlErrs.Append(err)
	}

	return crawlErrs
}

func writeInventory(col *collector.Collector, output string) error {
	var w io.Writer = os.Stdout

	if output != "-" {
		file, err := os.Create(output)
		if err != nil {
			return errors.WithStackTrace(err)
		}
		defer file.Close()

		w = file
	}

	return col.WriteJSON(w)
}

// normalizeOrgKey accepts both a bare numeric ID and the organizations/<id> resource name.
func normalizeOrgKey(org string) string {
	if strings.HasPrefix(org, "organizations/") {
		return org
	}

	return "organizations/" + org
}

func envMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))

	for _, entry := range environ {
		if key, value, ok := strings.Cut(entry, "="); ok {
			env[key] = value
		}
	}

	return env
}
