package sheets

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client reads and writes whole ranges of a spreadsheet as tables. The first
// row of a range is the header.
type Client struct {
	srv *sheets.Service
}

// NewClient builds a Sheets client over an authorized HTTP client. Extra
// options are appended, which lets tests point it at a local endpoint.
func NewClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}
	return &Client{srv: srv}, nil
}

// ReadRange returns the values in rng. An empty range reads as an empty table.
func (c *Client) ReadRange(ctx context.Context, spreadsheetID, rng string) (dataset.Table, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return dataset.Table{}, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return dataset.Table{}, nil
	}

	t := dataset.Table{Header: cells(resp.Values[0])}
	for _, row := range resp.Values[1:] {
		record := cells(row)
		if len(record) == 0 {
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// WriteRange clears rng and writes the header plus rows from its top-left cell.
func (c *Client) WriteRange(ctx context.Context, spreadsheetID, rng string, t dataset.Table) error {
	if _, err := c.srv.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}

	values := make([][]interface{}, 0, t.Len()+1)
	values = append(values, row(t.Header))
	for _, r := range t.Rows {
		values = append(values, row(r))
	}

	resp, err := c.srv.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}

	log.Info().Str("range", rng).Int64("cells", resp.UpdatedCells).Msg("sheet updated")
	return nil
}

func cells(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func row(record []string) []interface{} {
	out := make([]interface{}, len(record))
	for i, v := range record {
		out[i] = v
	}
	return out
}
