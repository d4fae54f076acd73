// Package upstream is the HTTP client for the store backend — the system of
// record for products, bills, parties, batches and shifts. There is no retry
// policy anywhere in this package: queries surface their error once and
// mutations are fire-once, because a blind retry of POST /bill could sell
// the same cart twice.
package upstream

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

	"github.com/shopspring/decimal"

	"posagent/internal/model"
	"posagent/internal/pricing"
)

// BillRequest carries everything POST /bill needs. Routing metadata travels
// as query parameters and the cart body as JSON, matching the backend's API.
type BillRequest struct {
	MoveType            pricing.MoveType
	PartyID             *int64
	Paid                decimal.Decimal
	Installments        int
	InstallmentInterval int

	Time     time.Time
	Discount decimal.Decimal
	Total    decimal.Decimal
	Lines    []model.CartLine
}

type billBody struct {
	Time         string           `json:"time"`
	Discount     decimal.Decimal  `json:"discount"`
	Total        decimal.Decimal  `json:"total"`
	ProductsFlow []model.CartLine `json:"products_flow"`
}

type Client struct {
	baseURL    string
	storeID    int64
	token      string
	httpClient *http.Client
	breaker    *Breaker
}

func NewClient(baseURL string, storeID int64, breaker *Breaker) *Client {
	return &Client{
		baseURL:    baseURL,
		storeID:    storeID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker:    breaker,
	}
}

// SetToken installs the bearer session token used on every call.
func (c *Client) SetToken(token string) { c.token = token }

// Breaker exposes breaker state for the health endpoint.
func (c *Client) Breaker() *Breaker { return c.breaker }

// do runs one request through the breaker and decodes a JSON response into
// out (when non-nil). Non-2xx statuses are errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.breaker.Execute(func() error {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("upstream: marshal body: %w", err)
			}
			reader = bytes.NewReader(data)
		}

		u := c.baseURL + path
		if query == nil {
			query = url.Values{}
		}
		query.Set("store_id", strconv.FormatInt(c.storeID, 10))
		u += "?" + query.Encode()

		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return fmt.Errorf("upstream: create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("upstream: %s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("upstream: %s %s returned %d", method, path, resp.StatusCode)
		}
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("upstream: decode %s response: %w", path, err)
		}
		return nil
	})
}

// FetchProducts pulls the full product list for the catalog snapshot.
func (c *Client) FetchProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SubmitBill posts the cart and returns the backend's authoritative bill.
func (c *Client) SubmitBill(ctx context.Context, req BillRequest) (*model.Bill, error) {
	query := url.Values{}
	query.Set("move_type", string(req.MoveType))
	query.Set("paid", req.Paid.String())
	if req.PartyID != nil {
		query.Set("party_id", strconv.FormatInt(*req.PartyID, 10))
	}
	if req.Installments > 0 {
		query.Set("installments", strconv.Itoa(req.Installments))
		query.Set("installment_interval", strconv.Itoa(req.InstallmentInterval))
	}

	body := billBody{
		Time:         req.Time.Format(time.RFC3339),
		Discount:     req.Discount,
		Total:        req.Total,
		ProductsFlow: req.Lines,
	}

	var resp struct {
		Bill model.Bill `json:"bill"`
	}
	if err := c.do(ctx, http.MethodPost, "/bill", query, body, &resp); err != nil {
		return nil, err
	}
	return &resp.Bill, nil
}

// CurrentShift queries the open shift. Any error means "no open shift" to
// the caller — the backend responds with an error status when none exists.
func (c *Client) CurrentShift(ctx context.Context) (*model.Shift, error) {
	var shift model.Shift
	if err := c.do(ctx, http.MethodGet, "/current-shift", nil, nil, &shift); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Logout ends the operator session, which also closes the open shift.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil, nil)
}

// ProductBatches lists the expiry lots of one product.
func (c *Client) ProductBatches(ctx context.Context, productID int64) ([]model.ProductBatch, error) {
	var batches []model.ProductBatch
	path := fmt.Sprintf("/product/%d/batches", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// UpdateProductBatches rewrites a product's lots (manual stocktake edits).
func (c *Client) UpdateProductBatches(ctx context.Context, productID int64, batches []model.ProductBatch) error {
	path := fmt.Sprintf("/product/%d/batches", productID)
	return c.do(ctx, http.MethodPut, path, nil, batches, nil)
}

// CreateParty persists a new customer/supplier and returns it with its id.
func (c *Client) CreateParty(ctx context.Context, p model.Party) (*model.Party, error) {
	var created model.Party
	if err := c.do(ctx, http.MethodPost, "/party", nil, p, &created); err != nil {
		return nil, err
	}
	if created.ID == nil {
		return nil, fmt.Errorf("upstream: party created without an id")
	}
	return &created, nil
}

// UpdateParty rewrites an existing party.
func (c *Client) UpdateParty(ctx context.Context, p model.Party) error {
	if p.ID == nil {
		return fmt.Errorf("upstream: update requires a persisted party")
	}
	return c.do(ctx, http.MethodPut, "/party", nil, p, nil)
}

// DeleteParty removes a party by id.
func (c *Client) DeleteParty(ctx context.Context, id int64) error {
	query := url.Values{}
	query.Set("party_id", strconv.FormatInt(id, 10))
	return c.do(ctx, http.MethodDelete, "/party", query, nil, nil)
}
