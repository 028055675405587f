package googlesheets

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetsService authenticates with the service account given inline as
// credentialsJSON or, when empty, read from credentialsFile.
func NewSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*sheets.Service, error) {
	raw := []byte(credentialsJSON)
	if credentialsJSON == "" {
		if credentialsFile == "" {
			return nil, fmt.Errorf("no google credentials configured")
		}
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read google credentials file: %w", err)
		}
		raw = b
	}

	credentials, err := google.CredentialsFromJSON(ctx, raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to load google credentials: %w", err)
	}

	client := oauth2.NewClient(ctx, credentials.TokenSource)
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create google sheets client: %w", err)
	}

	return svc, nil
}
