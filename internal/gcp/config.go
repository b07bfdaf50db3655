// Package gcp implements the crawler client over the Google Cloud APIs.
//
// It performs the actual network calls for listings and policy reads: resource manager for
// organizations, folders and projects, storage for buckets and objects, BigQuery for datasets,
// and the compute, App Engine and Cloud SQL admin APIs for the rest. Pagination is wrapped in
// lazy iterators so the crawl engine pulls pages on demand.
package gcp

import (
	"context"
	"encoding/json"
	"os"

	"github.com/gruntwork-io/cloud-inventory/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
)

const (
	tokenURL = "https://oauth2.googleapis.com/token"

	// cloudPlatformScope covers every API the crawl touches; read-only scopes differ per
	// service and impersonated tokens carry a single scope set.
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// Config is a representation of the configuration options for the GCP session.
type Config struct {
	Credentials                        string
	AccessToken                        string
	ImpersonateServiceAccount          string
	ImpersonateServiceAccountDelegates []string
}

// ClientOptions returns GCP client options for the given Config and environment. The precedence
// mirrors how Terraform resolves GCP credentials: explicit credentials file, explicit access
// token, GOOGLE_APPLICATION_CREDENTIALS, GOOGLE_OAUTH_ACCESS_TOKEN, then GOOGLE_CREDENTIALS as
// either a file path or the JSON contents. With none of them set, the client falls back to
// application default credentials.
func ClientOptions(ctx context.Context, cfg *Config, env map[string]string) ([]option.ClientOption, error) {
	var clientOpts []option.ClientOption

	if cfg != nil && cfg.Credentials != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.Credentials))
	} else if cfg != nil && cfg.AccessToken != "" {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
		})
		clientOpts = append(clientOpts, option.WithTokenSource(tokenSource))
	} else if credentialsFile := env["GOOGLE_APPLICATION_CREDENTIALS"]; credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
	} else if oauthAccessToken := env["GOOGLE_OAUTH_ACCESS_TOKEN"]; oauthAccessToken != "" {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: oauthAccessToken,
		})
		clientOpts = append(clientOpts, option.WithTokenSource(tokenSource))
	} else if env["GOOGLE_CREDENTIALS"] != "" {
		clientOpt, err := credentialsFromGoogleCredentialsEnv(ctx, env["GOOGLE_CREDENTIALS"])
		if err != nil {
			return nil, err
		}

		clientOpts = append(clientOpts, clientOpt)
	}

	if cfg != nil && cfg.ImpersonateServiceAccount != "" {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: cfg.ImpersonateServiceAccount,
			Scopes:          []string{cloudPlatformScope},
			Delegates:       cfg.ImpersonateServiceAccountDelegates,
		})
		if err != nil {
			return nil, errors.Errorf("Error creating impersonation token source: %w", err)
		}

		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}

	return clientOpts, nil
}

// credentialsFromGoogleCredentialsEnv creates GCP credentials from the GOOGLE_CREDENTIALS value,
// which can be either a file path or the JSON content directly (to mirror how Terraform works).
func credentialsFromGoogleCredentialsEnv(ctx context.Context, creds string) (option.ClientOption, error) {
	var account = struct {
		PrivateKeyID string `json:"private_key_id"`
		PrivateKey   string `json:"private_key"`
		ClientEmail  string `json:"client_email"`
		ClientID     string `json:"client_id"`
	}{}

	contents, err := fileOrData(creds)
	if err != nil {
		return nil, errors.Errorf("Error loading credentials: %w", err)
	}

	if err := json.Unmarshal([]byte(contents), &account); err != nil {
		return nil, errors.Errorf("Error parsing credentials: %w", err)
	}

	conf := jwt.Config{
		Email:      account.ClientEmail,
		PrivateKey: []byte(account.PrivateKey),
		Scopes:     []string{cloudPlatformScope},
		TokenURL:   tokenURL,
	}

	return option.WithHTTPClient(conf.Client(ctx)), nil
}

// fileOrData returns the contents of the file if the value is a path to an existing file,
// otherwise the value itself.
func fileOrData(value string) (string, error) {
	info, err := os.Stat(value)
	if err != nil || info.IsDir() {
		return value, nil
	}

	contents, err := os.ReadFile(value)
	if err != nil {
		return "", errors.WithStackTrace(err)
	}

	return string(contents), nil
}
