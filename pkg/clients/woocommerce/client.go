// Package woocommerce is a thin client for the WooCommerce REST API (wc/v3).
// Plain CRUD plumbing: store business rules live with the caller.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"shopbot/config"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	clientNameWoo = "woocommerce"

	apiBasePath = "/wp-json/wc/v3"

	connectionRefusedTag = "connection refused"

	defaultTimeout = 15 * time.Second
)

var (
	instance *Client
	once     sync.Once
)

type Client struct {
	hc             http.Client
	baseAddr       string
	consumerKey    string
	consumerSecret string
	requestLog     bool
}

func GetInstance() *Client {
	once.Do(func() {
		cfg := config.GetInstance()
		instance = NewClient(
			cfg.GetString(config.WooCommerceAddr),
			cfg.GetString(config.WooCommerceConsumerKey),
			cfg.GetString(config.WooCommerceConsumerSecret),
			cfg.GetBoolOrDefault(config.ClientsCommonRequestLog, false),
		)
	})
	return instance
}

func NewClient(baseAddr, consumerKey, consumerSecret string, requestLog bool) *Client {
	if !strings.HasPrefix(baseAddr, "http://") && !strings.HasPrefix(baseAddr, "https://") {
		baseAddr = "https://" + baseAddr
	}
	return &Client{
		hc:             http.Client{Timeout: defaultTimeout},
		baseAddr:       strings.TrimRight(baseAddr, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		requestLog:     requestLog,
	}
}

// Product is the subset of the WooCommerce product resource the assistant uses.
type Product struct {
	ID            int64  `json:"id,omitempty"`
	Name          string `json:"name"`
	Status        string `json:"status,omitempty"`
	RegularPrice  string `json:"regular_price,omitempty"`
	Price         string `json:"price,omitempty"`
	StockQuantity *int   `json:"stock_quantity,omitempty"`
}

// Order is the subset of the WooCommerce order resource the assistant uses.
type Order struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	Total       string `json:"total"`
	DateCreated string `json:"date_created"`
	Billing     struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"billing"`
}

// SalesReport is one row of the wc/v3 sales report.
type SalesReport struct {
	TotalSales  string `json:"total_sales"`
	TotalOrders int    `json:"total_orders"`
	TotalItems  int    `json:"total_items"`
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) SearchProducts(ctx context.Context, search string) ([]Product, error) {
	query := url.Values{}
	query.Set("search", search)

	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products", query, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) CreateProduct(ctx context.Context, product *Product) (*Product, error) {
	var created Product
	if err := c.do(ctx, http.MethodPost, "/products", nil, product, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, fields map[string]interface{}) (*Product, error) {
	var updated Product
	if err := c.do(ctx, http.MethodPut, "/products/"+strconv.FormatInt(id, 10), nil, fields, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	query := url.Values{}
	query.Set("force", "true")
	return c.do(ctx, http.MethodDelete, "/products/"+strconv.FormatInt(id, 10), query, nil, nil)
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+strconv.FormatInt(id, 10), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context, status string) ([]Order, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}

	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetSalesReport fetches the sales report. period is one of the wc/v3 values
// (week, month, last_month, year).
func (c *Client) GetSalesReport(ctx context.Context, period string) (*SalesReport, error) {
	query := url.Values{}
	if period != "" {
		query.Set("period", period)
	}

	var reports []SalesReport
	if err := c.do(ctx, http.MethodGet, "/reports/sales", query, nil, &reports); err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, errors.New("empty sales report response")
	}
	return &reports[0], nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", c.consumerKey)
	query.Set("consumer_secret", c.consumerSecret)

	fullURL := c.baseAddr + apiBasePath + path + "?" + query.Encode()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s marshal request body", clientNameWoo)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return errors.Wrapf(err, "%s build request", clientNameWoo)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if strings.Contains(err.Error(), connectionRefusedTag) {
			return errors.Wrapf(err, "%s store unreachable", clientNameWoo)
		}
		return errors.Wrapf(err, "%s request failed", clientNameWoo)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warnf("%s close response body error: %v", clientNameWoo, closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s read response", clientNameWoo)
	}

	if c.requestLog {
		log.Infof("%s| %s %s| %d| %s", clientNameWoo, method, path, resp.StatusCode, time.Since(start))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet := string(raw)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return fmt.Errorf("%s %s %s: status %d: %s", clientNameWoo, method, path, resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "%s decode response", clientNameWoo)
	}
	return nil
}
