package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"PriceSentinel/internal/model"
)

// HTTPSource implements Source against a JSON listings endpoint.
type HTTPSource struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPSource creates a source with optional proxy support.
func NewHTTPSource(baseURL, apiKey, proxyURL string) *HTTPSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPSource{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (s *HTTPSource) Name() string { return "http" }

// remoteListing is the expected JSON shape. Price may be a number or display text.
type remoteListing struct {
	Seller string          `json:"seller"`
	Title  string          `json:"title"`
	Price  json.RawMessage `json:"price"`
	URL    string          `json:"url"`
}

func (s *HTTPSource) FetchListings(ctx context.Context, productID, query string) ([]model.Listing, error) {
	q := url.Values{}
	q.Set("product", productID)
	if query != "" {
		q.Set("q", query)
	}
	endpoint := fmt.Sprintf("%s/api/v1/listings?%s", s.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch listings")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Errorf("fetch listings: status %d, body: %s", resp.StatusCode, string(body))
	}

	var remote []remoteListing
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return nil, errors.Wrap(err, "decode listings")
	}

	listings := make([]model.Listing, 0, len(remote))
	for _, r := range remote {
		price, rawText := decodePrice(r.Price)
		listings = append(listings, model.Listing{
			Seller:   r.Seller,
			Title:    r.Title,
			Price:    price,
			RawPrice: rawText,
			URL:      r.URL,
		})
	}
	return listings, nil
}

// decodePrice accepts either a JSON number or a display string.
// Unparsable values decode to 0 and are filtered out later.
func decodePrice(raw json.RawMessage) (float64, string) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		p, _ := ParsePriceText(text)
		return p, text
	}
	return 0, string(raw)
}
