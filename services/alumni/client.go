package alumni

import (
	"context"
	"fmt"

	"alumnisync-backend/lib/scrapers/linkedin"
	"alumnisync-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// ImportClient posts batches to a remote import endpoint, for running
// the scanner on a different machine than the store. it satisfies the
// same sink contract as the local service.
type ImportClient struct {
	client *resty.Client
	apiKey string
}

func NewImportClient(baseURL, apiKey string) *ImportClient {
	client := resty.New().SetBaseURL(baseURL)
	telemetry.InstrumentResty(client, "services/alumni:import_client")
	return &ImportClient{client: client, apiKey: apiKey}
}

type importResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Errors  int    `json:"errors"`
	Error   string `json:"error"`
}

func (c *ImportClient) Reconcile(ctx context.Context, records []linkedin.Profile) (linkedin.SinkResult, error) {
	var out importResponse
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", c.apiKey).
		SetBody(map[string]any{"data": records}).
		SetResult(&out).
		SetError(&out).
		Post("/api/alumni/import")
	if err != nil {
		return linkedin.SinkResult{}, err
	}
	if res.IsError() {
		if out.Error != "" {
			return linkedin.SinkResult{}, fmt.Errorf("import endpoint: %s", out.Error)
		}
		return linkedin.SinkResult{}, fmt.Errorf("import endpoint: %s", res.Status())
	}
	return linkedin.SinkResult{
		Succeeded: out.Count,
		Failed:    out.Errors,
	}, nil
}
