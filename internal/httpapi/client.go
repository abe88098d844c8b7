package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/order"
)

// SubmissionError reports a failed order submission: a non-2xx response
// or a transport failure with a response attached.
type SubmissionError struct {
	Status  int
	Message string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("order submission failed: status %d: %s", e.Status, e.Message)
}

// Client talks to the upstream shop API. It implements
// catalog.ProductSource and order.Submitter.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client for the given base URL. A nil httpClient
// gets a sane default timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// FetchProducts loads the product list from GET /product.
func (c *Client) FetchProducts(ctx context.Context) ([]catalog.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/product", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch products: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Items []catalog.Product `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("fetch products: decode: %w", err)
	}
	return body.Items, nil
}

// SubmitOrder posts the order payload to POST /order and returns the
// confirmation receipt. Non-2xx responses surface as *SubmissionError.
func (c *Client) SubmitOrder(ctx context.Context, p order.Payload) (order.Receipt, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return order.Receipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/order", bytes.NewReader(raw))
	if err != nil {
		return order.Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return order.Receipt{}, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return order.Receipt{}, &SubmissionError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}
	}

	var receipt order.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return order.Receipt{}, fmt.Errorf("submit order: decode: %w", err)
	}
	return receipt, nil
}
