package fulfillment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient talks to the print partner's REST API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	shopID  string
}

// NewHTTPClient creates a partner client for the given API base URL,
// key and shop id.
func NewHTTPClient(baseURL, apiKey, shopID string) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		shopID:  shopID,
	}
}

// Variants fetches the shop's catalog.
func (c *HTTPClient) Variants(ctx context.Context) ([]Variant, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/shops/%s/variants", c.baseURL, c.shopID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fulfillment partner unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fulfillment partner returned status %d", resp.StatusCode)
	}

	var body struct {
		Result []Variant `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return body.Result, nil
}

// ShippingRates quotes shipping for the recipient and lines.
func (c *HTTPClient) ShippingRates(ctx context.Context, recipient Recipient, items []LineItem) (*ShippingRates, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"recipient": recipient,
		"items":     items,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode shipping request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/shipping/rates", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build shipping request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fulfillment partner unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fulfillment partner returned status %d", resp.StatusCode)
	}

	var body struct {
		Result ShippingRates `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode shipping response: %w", err)
	}
	return &body.Result, nil
}

// SubmitOrder sends a paid order to production. Artwork PNGs are inlined
// base64, following the partner's file upload contract.
func (c *HTTPClient) SubmitOrder(ctx context.Context, order PrintOrder) (*Receipt, error) {
	files := make([]map[string]string, 0, len(order.Files))
	for _, f := range order.Files {
		files = append(files, map[string]string{
			"file_name": f.Name,
			"contents":  base64.StdEncoding.EncodeToString(f.Contents),
		})
	}

	payload, err := json.Marshal(map[string]interface{}{
		"external_id": order.ExternalID,
		"recipient":   order.Recipient,
		"items":       order.Items,
		"files":       files,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode print order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/shops/%s/orders", c.baseURL, c.shopID), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build print order request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fulfillment partner unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("fulfillment partner returned status %d", resp.StatusCode)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("failed to decode print order response: %w", err)
	}
	return &receipt, nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}
