package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"activation_fulfiller/internal/apperr"
	"activation_fulfiller/internal/config"
	"activation_fulfiller/internal/logbus"
	"activation_fulfiller/internal/model"
	"activation_fulfiller/internal/provider"
)

const shopPlaceholder = "{shop}"

var shopLabel = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,62}$`)

// Client creates fulfillments through the Shopify Admin REST API.
type Client struct {
	cfg     config.ShopifyConfig
	bus     *logbus.Bus
	http    *resty.Client
	limiter *rate.Limiter
}

func New(cfg config.ShopifyConfig, bus *logbus.Bus) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2021-01"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://" + shopPlaceholder + ".myshopify.com"
	}
	qps := cfg.QPS
	if qps <= 0 {
		qps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		cfg:     cfg,
		bus:     bus,
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
	}
	c.http = resty.New().
		SetTimeout(cfg.Timeout()).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if c.bus != nil {
			c.bus.Log("debug", "http request", map[string]any{
				"method": req.Method,
				"url":    req.URL,
			})
		}
		return nil
	})
	return c
}

func (c *Client) Name() string { return "shopify" }

type fulfillmentEnvelope struct {
	Fulfillment fulfillmentReq `json:"fulfillment"`
}

type fulfillmentReq struct {
	OrderID      string             `json:"order_id"`
	TrackingInfo model.TrackingInfo `json:"tracking_info"`
	LineItems    []model.LineItem   `json:"line_items"`
}

func (c *Client) Fulfill(ctx context.Context, creds model.PlatformCredentials, in provider.FulfillmentInput) (model.FulfillmentOutcome, error) {
	endpoint, err := c.endpoint(creds)
	if err != nil {
		return model.FulfillmentOutcome{}, err
	}

	tracking := in.Tracking
	if tracking.TrackingCompany == "" {
		tracking.TrackingCompany = model.DefaultTrackingCompany
	}
	lineItems := in.LineItems
	if lineItems == nil {
		lineItems = []model.LineItem{}
	}
	body := fulfillmentEnvelope{Fulfillment: fulfillmentReq{
		OrderID:      in.OrderID,
		TrackingInfo: tracking,
		LineItems:    lineItems,
	}}

	if err := c.limiter.Wait(ctx); err != nil {
		return c.failed(in.OrderID, 0, err.Error()), nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(creds.APIKey, creds.APISecret).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return c.failed(in.OrderID, 0, err.Error()), nil
	}
	if resp.StatusCode() != http.StatusCreated {
		return c.failed(in.OrderID, resp.StatusCode(), resp.String()), nil
	}

	raw := json.RawMessage(resp.Body())
	if !json.Valid(raw) {
		raw, _ = json.Marshal(resp.String())
	}
	if c.bus != nil {
		c.bus.Log("info", "shopify fulfillment created", map[string]any{
			"orderId": in.OrderID,
			"status":  resp.StatusCode(),
		})
	}
	return model.Succeeded(resp.StatusCode(), raw), nil
}

func (c *Client) failed(orderID string, status int, msg string) model.FulfillmentOutcome {
	if c.bus != nil {
		c.bus.Log("warn", "shopify fulfillment failed", map[string]any{
			"orderId": orderID,
			"status":  status,
			"error":   msg,
		})
	}
	return model.Failed(status, msg)
}

// endpoint builds the versioned, shop-scoped fulfillments URL.
func (c *Client) endpoint(creds model.PlatformCredentials) (string, error) {
	if creds.APIKey == "" || creds.APISecret == "" {
		return "", apperr.Configuration("shopify api key and secret are required")
	}
	base := strings.TrimRight(strings.TrimSpace(c.cfg.BaseURL), "/")
	if strings.Contains(base, shopPlaceholder) {
		shop := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(creds.ShopIdentifier)), ".myshopify.com")
		if !shopLabel.MatchString(shop) {
			return "", apperr.Configurationf("invalid shopify shop identifier %q", creds.ShopIdentifier)
		}
		base = strings.ReplaceAll(base, shopPlaceholder, shop)
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", apperr.Configurationf("invalid shopify base url %q", c.cfg.BaseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/admin/api/" + url.PathEscape(c.cfg.APIVersion) + "/fulfillments.json"
	return u.String(), nil
}
