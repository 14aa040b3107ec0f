package chatbot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SearchPath is the path of the search endpoint, relative to the backend base URL
const SearchPath = "/search"

// Searcher sends a SearchRequest to a search backend.
// All failures are returned as *TransportError.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
}

// SearchClient is a Searcher for the HTTP search endpoint
type SearchClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewSearchClient creates a new SearchClient for the backend at baseURL
func NewSearchClient(baseURL string) *SearchClient {
	return NewSearchClientWithHTTP(baseURL, &http.Client{})
}

// NewSearchClientWithHTTP creates a new SearchClient using the given http.Client
func NewSearchClientWithHTTP(baseURL string, httpClient *http.Client) *SearchClient {
	return &SearchClient{
		endpoint:   strings.TrimRight(baseURL, "/") + SearchPath,
		httpClient: httpClient,
	}
}

// Endpoint returns the full URL requests are posted to
func (c *SearchClient) Endpoint() string {
	return c.endpoint
}

// Search posts the query form-encoded and decodes the JSON response.
// A non-2xx status fails without reading the body.
func (c *SearchClient) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	form := url.Values{"query": {req.Query}}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{Description: "Could not create request", Kind: TransportNetwork, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Description: "Could not reach search endpoint", Kind: TransportNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{Description: "Search endpoint returned an error", Kind: TransportStatus, StatusCode: resp.StatusCode}
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, &TransportError{Description: "Could not decode response", Kind: TransportDecode, Err: err}
	}

	return &searchResp, nil
}
