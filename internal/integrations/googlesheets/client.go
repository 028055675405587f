// Package googlesheets is the spreadsheet transport of the remote sync bridge.
package googlesheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/sheets/v4"

	"github.com/edy93762/gesto-de-epi-sub000/internal/remotesync"
)

// Client appends pushes as rows of the spreadsheet tabs and reads the
// collaborator and catalog tabs for pulls.
type Client struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           *zap.Logger
}

func NewClient(sheetsService *sheets.Service, spreadsheetID string, log *zap.Logger) *Client {
	return &Client{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log.Named("sheets"),
	}
}

func (c *Client) Name() string {
	return "sheets"
}

func (c *Client) Configured() bool {
	return c.sheetsService != nil && c.spreadsheetID != ""
}

func (c *Client) Send(ctx context.Context, env remotesync.Envelope) error {
	var (
		sheet string
		row   []interface{}
	)
	switch p := env.(type) {
	case remotesync.DeliveryPush:
		sheet, row = deliveriesSheet, deliveryRow(p)
	case remotesync.CatalogPush:
		sheet, row = catalogSheet, catalogRow(p)
	case remotesync.CollaboratorPush:
		sheet, row = collaboratorsSheet, collaboratorRow(p)
	default:
		return fmt.Errorf("unsupported push %T", env)
	}

	_, err := c.sheetsService.Spreadsheets.Values.
		Append(c.spreadsheetID, sheet+"!A1", &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", sheet, err)
	}
	return nil
}

func (c *Client) Fetch(ctx context.Context) (*remotesync.PullResponse, error) {
	var collaborators, catalog [][]interface{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		values, err := c.readSpreadsheet(ctx, collaboratorsSheet+"!A1:Z")
		collaborators = values
		return err
	})
	g.Go(func() error {
		values, err := c.readSpreadsheet(ctx, catalogSheet+"!A1:Z")
		catalog = values
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items, err := parseCatalog(catalog)
	if err != nil {
		return nil, fmt.Errorf("invalid %s sheet: %w", catalogSheet, err)
	}

	return &remotesync.PullResponse{
		Collaborators: parseCollaborators(collaborators),
		Catalog:       items,
	}, nil
}

func (c *Client) readSpreadsheet(ctx context.Context, readRange string) ([][]interface{}, error) {
	resp, err := c.sheetsService.Spreadsheets.Values.Get(c.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", readRange, err)
	}

	if len(resp.Values) == 0 {
		c.log.Debug("No data in range", zap.String("range", readRange))
		return nil, nil
	}

	return resp.Values, nil
}
