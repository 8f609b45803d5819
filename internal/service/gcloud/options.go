// Package gcloud builds client options shared by the Google Cloud REST clients.
package gcloud

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// ClientOptions authenticates with apiKey when set and with Application Default
// Credentials otherwise.
func ClientOptions(ctx context.Context, apiKey string) ([]option.ClientOption, error) {
	if apiKey != "" {
		return []option.ClientOption{option.WithAPIKey(apiKey)}, nil
	}

	client, err := google.DefaultClient(ctx, CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("find default credentials: %w", err)
	}
	return []option.ClientOption{option.WithHTTPClient(client)}, nil
}
