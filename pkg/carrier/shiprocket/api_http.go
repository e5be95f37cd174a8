package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/trovecart/shipping/pkg/carrier"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
// All privileged calls bear an Authorization header with a token obtained
// from the client's session.
type HTTPAPIClient struct {
	baseURL    string
	email      string
	password   string
	httpClient *http.Client
	session    *Session
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &HTTPAPIClient{
		baseURL:  cfg.BaseURL,
		email:    cfg.Email,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	c.session = NewSession(c.Login)
	return c
}

// Session exposes the client's token session so it can be shared with any
// component that needs authenticated calls.
func (c *HTTPAPIClient) Session() *Session {
	return c.session
}

// Login performs a raw login call. POST /auth/login.
func (c *HTTPAPIClient) Login(ctx context.Context) (*LoginResponse, error) {
	payload := map[string]string{
		"email":    c.email,
		"password": c.password,
	}

	resp, err := c.doUnauthenticated(ctx, http.MethodPost, "/auth/login", payload)
	if err != nil {
		return nil, carrier.NewAuthenticationError("carrier login call failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := c.parseError(resp)
		return nil, carrier.NewAuthenticationError(apiErr.Message).WithStatusCode(resp.StatusCode)
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, carrier.NewAuthenticationError("failed to decode login response").WithCause(err)
	}
	return &result, nil
}

// CheckServiceability queries courier availability.
// GET /courier/serviceability/.
func (c *HTTPAPIClient) CheckServiceability(ctx context.Context, req *ServiceabilityRequest) (*ServiceabilityResponse, error) {
	cod := "0"
	if req.COD {
		cod = "1"
	}
	q := url.Values{}
	q.Set("pickup_postcode", req.PickupPostcode)
	q.Set("delivery_postcode", req.DeliveryPostcode)
	q.Set("weight", strconv.FormatFloat(req.Weight, 'f', -1, 64))
	q.Set("cod", cod)

	var result ServiceabilityResponse
	if err := c.call(ctx, http.MethodGet, "/courier/serviceability/?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateOrder creates an adhoc order. POST /orders/create/adhoc.
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	var result CreateOrderResponse
	if err := c.call(ctx, http.MethodPost, "/orders/create/adhoc", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AssignAWB requests a waybill. POST /courier/assign/awb.
func (c *HTTPAPIClient) AssignAWB(ctx context.Context, shipmentID int64) (*AssignAWBResponse, error) {
	payload := map[string]int64{"shipment_id": shipmentID}

	var result AssignAWBResponse
	if err := c.call(ctx, http.MethodPost, "/courier/assign/awb", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GeneratePickup schedules pickups. POST /courier/generate/pickup.
func (c *HTTPAPIClient) GeneratePickup(ctx context.Context, shipmentIDs []int64) (*GeneratePickupResponse, error) {
	payload := map[string][]int64{"shipment_id": shipmentIDs}

	var result GeneratePickupResponse
	if err := c.call(ctx, http.MethodPost, "/courier/generate/pickup", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateManifest generates a manifest. POST /manifests/generate.
func (c *HTTPAPIClient) GenerateManifest(ctx context.Context, shipmentIDs []int64) (*GenerateManifestResponse, error) {
	payload := map[string][]int64{"shipment_id": shipmentIDs}

	var result GenerateManifestResponse
	if err := c.call(ctx, http.MethodPost, "/manifests/generate", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PrintManifest produces a printable manifest. POST /manifests/print.
func (c *HTTPAPIClient) PrintManifest(ctx context.Context, shipmentIDs []int64) (*PrintManifestResponse, error) {
	payload := map[string][]int64{"shipment_id": shipmentIDs}

	var result PrintManifestResponse
	if err := c.call(ctx, http.MethodPost, "/manifests/print", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateLabel generates labels. POST /courier/generate/label.
func (c *HTTPAPIClient) GenerateLabel(ctx context.Context, shipmentIDs []int64) (*GenerateLabelResponse, error) {
	payload := map[string][]int64{"shipment_id": shipmentIDs}

	var result GenerateLabelResponse
	if err := c.call(ctx, http.MethodPost, "/courier/generate/label", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateInvoice generates invoices. POST /orders/print/invoice.
// Note the id field differs from the shipment document calls.
func (c *HTTPAPIClient) GenerateInvoice(ctx context.Context, orderIDs []int64) (*GenerateInvoiceResponse, error) {
	payload := map[string][]int64{"ids": orderIDs}

	var result GenerateInvoiceResponse
	if err := c.call(ctx, http.MethodPost, "/orders/print/invoice", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelOrders cancels carrier-side orders. POST /orders/cancel.
func (c *HTTPAPIClient) CancelOrders(ctx context.Context, orderIDs []int64) (*CancelOrdersResponse, error) {
	payload := map[string][]int64{"ids": orderIDs}

	var result CancelOrdersResponse
	if err := c.call(ctx, http.MethodPost, "/orders/cancel", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TrackByAWB retrieves tracking data. GET /courier/track/awb/{awb}.
func (c *HTTPAPIClient) TrackByAWB(ctx context.Context, awb string) (*TrackingResponse, error) {
	var result TrackingResponse
	if err := c.call(ctx, http.MethodGet, "/courier/track/awb/"+url.PathEscape(awb), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPickupLocations lists registered pickup addresses.
// GET /settings/company/pickup.
func (c *HTTPAPIClient) ListPickupLocations(ctx context.Context) (*PickupLocationsResponse, error) {
	var result PickupLocationsResponse
	if err := c.call(ctx, http.MethodGet, "/settings/company/pickup", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddPickupLocation registers a pickup address.
// POST /settings/company/addpickup.
func (c *HTTPAPIClient) AddPickupLocation(ctx context.Context, req *AddPickupLocationRequest) (*AddPickupLocationResponse, error) {
	var result AddPickupLocationResponse
	if err := c.call(ctx, http.MethodPost, "/settings/company/addpickup", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// call performs an authenticated request and decodes the response into out.
func (c *HTTPAPIClient) call(ctx context.Context, method, path string, body, out any) error {
	token, err := c.session.Token(ctx)
	if err != nil {
		return err
	}

	resp, err := c.doRequest(ctx, method, path, body, token)
	if err != nil {
		return carrier.NewCarrierError("carrier request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// The carrier revoked the token before its reported expiry. Drop
		// the cache; the caller decides whether to retry.
		c.session.Invalidate()
		apiErr := c.parseError(resp)
		return carrier.NewAuthenticationError(apiErr.Message).WithStatusCode(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.parseError(resp)
		return carrier.NewCarrierError(apiErr.Message).WithStatusCode(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return carrier.NewCarrierError("failed to decode carrier response").WithCause(err)
	}
	return nil
}

// doRequest performs an HTTP request with proper headers and bearer auth.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body any, token string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.httpClient.Do(req)
}

// doUnauthenticated performs an HTTP request without bearer auth.
func (c *HTTPAPIClient) doUnauthenticated(ctx context.Context, method, path string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func (c *HTTPAPIClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "trovecart-shipping/1.0")
	return req, nil
}

// parseError extracts the carrier's error message from a response. The
// message is preserved verbatim so operators can diagnose against the
// carrier's own dashboards.
func (c *HTTPAPIClient) parseError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(resp.Body)

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return &apiErr
	}

	return &APIError{
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		StatusCode: resp.StatusCode,
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
