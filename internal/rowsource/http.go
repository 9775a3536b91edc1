package rowsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gridDashboard/internal/models"
)

// FetchError is a non-2xx answer from the grid endpoint
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("rowsource: status %d: %s", e.Status, e.Message)
}

// HTTPFetcher posts row requests to /api/grid/{table}
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPFetcher creates a fetcher for the dashboard at baseURL. A nil
// client gets a default one.
func NewHTTPFetcher(baseURL string, httpClient *http.Client) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPFetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (f *HTTPFetcher) FetchRows(ctx context.Context, table string, req models.RowRequest) (models.RowPage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.RowPage{}, fmt.Errorf("rowsource: encode request: %w", err)
	}

	endpoint := f.baseURL + "/api/grid/" + url.PathEscape(table)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.RowPage{}, fmt.Errorf("rowsource: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return models.RowPage{}, fmt.Errorf("rowsource: fetch rows: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.RowPage{}, fmt.Errorf("rowsource: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		message := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			message = payload.Error
		}
		return models.RowPage{}, &FetchError{Status: resp.StatusCode, Message: message}
	}

	var page models.RowPage
	if err := json.Unmarshal(data, &page); err != nil {
		return models.RowPage{}, fmt.Errorf("rowsource: decode response: %w", err)
	}
	if page.Rows == nil {
		page.Rows = []models.Row{}
	}
	return page, nil
}
