package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activation_fulfiller/internal/apperr"
	"activation_fulfiller/internal/config"
	"activation_fulfiller/internal/fulfillment"
	"activation_fulfiller/internal/logbus"
	"activation_fulfiller/internal/model"
	"activation_fulfiller/internal/notify"
)

type stubOrders struct {
	got model.FulfillmentRequest
	res model.Result
	err error
}

func (s *stubOrders) Handle(_ context.Context, req model.FulfillmentRequest) (model.Result, error) {
	s.got = req
	return s.res, s.err
}

type stubTransport struct {
	to  string
	p   notify.Payload
	err error
}

func (s *stubTransport) Send(_ context.Context, _ model.MailSender, to string, p notify.Payload) error {
	s.to, s.p = to, p
	return s.err
}

var testSender = model.MailSender{Address: "shop@gmail.com", Secret: "x"}

func newTestServer(orders OrderHandler, tr notify.Transport) http.Handler {
	cfg := config.Config{Server: config.ServerConfig{Cors: config.CorsConfig{AllowOrigins: []string{"https://shop.example.com"}}}}
	return New(Options{
		Cfg:       cfg,
		Bus:       logbus.Discard(),
		Orders:    orders,
		Transport: tr,
		Sender:    testSender,
	}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

const samplePayload = `{
	"order_number": "ORDER123",
	"customer_email": "customer@example.com",
	"customer_name": "Alice",
	"items": [
		{"Product": "Product A", "ActivationCode": "ABC123"},
		{"Product": "Product B", "ActivationCode": "XYZ789"}
	],
	"fulfill_shopify": true,
	"shopify_order_id": "123456789",
	"line_items_for_shopify": [{"id": 111, "quantity": 1}, {"id": 222, "quantity": 2}],
	"tracking_info": {"tracking_number": "TRACK123", "tracking_company": "UPS"}
}`

func TestFulfillOrder_DecodesPayload(t *testing.T) {
	orders := &stubOrders{res: model.Result{Status: "success", RequestID: "r1", Fulfillment: model.NotSent()}}
	rec, out := do(t, newTestServer(orders, nil), http.MethodPost, "/fulfill-order", samplePayload)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Order fulfilled and email sent.", out["message"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "success", data["status"])
	assert.Equal(t, "not_sent", data["fulfillment"].(map[string]any)["status"])

	got := orders.got
	assert.Equal(t, "ORDER123", got.OrderNumber)
	assert.Equal(t, "customer@example.com", got.CustomerEmail)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, "XYZ789", got.Items[1].ActivationCode)
	assert.True(t, got.FulfillShopify)
	assert.Equal(t, "123456789", got.ShopifyOrderID)
	assert.Equal(t, []model.LineItem{{ExternalID: 111, Quantity: 1}, {ExternalID: 222, Quantity: 2}}, got.LineItems)
	assert.Equal(t, "UPS", got.Tracking().TrackingCompany)
}

func TestFulfillOrder_ErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.Validation("missing required fields", map[string]string{"items": "items is a required field"}), http.StatusBadRequest, "validation_error"},
		{apperr.Configuration("email configuration not set"), http.StatusInternalServerError, "configuration_error"},
		{apperr.Notification(errors.New("dial tcp: timeout")), http.StatusBadGateway, "notification_error"},
	}
	for _, c := range cases {
		rec, out := do(t, newTestServer(&stubOrders{err: c.err}, nil), http.MethodPost, "/api/v1/fulfillments", samplePayload)
		assert.Equal(t, c.status, rec.Code, c.code)
		assert.Equal(t, c.code, out["code"])
		assert.Equal(t, c.err.Error(), out["error"])
	}
}

func TestFulfillOrder_BadBodies(t *testing.T) {
	orders := &stubOrders{}
	h := newTestServer(orders, nil)

	rec, out := do(t, h, http.MethodPost, "/fulfill-order", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing JSON payload", out["error"])

	rec, out = do(t, h, http.MethodPost, "/fulfill-order", `{"items": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", out["code"])
	assert.Empty(t, orders.got.CustomerEmail)
}

func TestFulfillOrder_WithRealOrchestrator(t *testing.T) {
	tr := &stubTransport{}
	o := fulfillment.New(fulfillment.Options{Transport: tr, Sender: testSender, Bus: logbus.Discard()})
	h := newTestServer(o, tr)

	rec, out := do(t, h, http.MethodPost, "/fulfill-order", `{"customer_email":"a@b.com","customer_name":"Alice","items":[{"Product":"X","ActivationCode":"C1"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.com", tr.to)
	assert.Contains(t, tr.p.HTML, "C1")
	assert.Equal(t, "not_sent", out["data"].(map[string]any)["fulfillment"].(map[string]any)["status"])

	rec, out = do(t, h, http.MethodPost, "/fulfill-order", `{"customer_email":"","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["fields"], "customer_email")
}

func TestRouting(t *testing.T) {
	h := newTestServer(&stubOrders{}, nil)

	rec, out := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])

	rec, _ = do(t, h, http.MethodGet, "/fulfill-order", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/fulfill-order", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre := httptest.NewRecorder()
	h.ServeHTTP(pre, req)
	assert.Equal(t, "https://shop.example.com", pre.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotificationTest(t *testing.T) {
	tr := &stubTransport{}
	h := newTestServer(&stubOrders{}, tr)

	rec, out := do(t, h, http.MethodPost, "/api/v1/notifications/test", `{"email":"ops@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "ops@example.com", tr.to)
	assert.Equal(t, notify.ActivationSubject, tr.p.Subject)
	assert.Contains(t, tr.p.HTML, "Dear Customer,")

	rec, _ = do(t, h, http.MethodPost, "/api/v1/notifications/test", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tr.err = errors.New("535 bad credentials")
	rec, out = do(t, h, http.MethodPost, "/api/v1/notifications/test", `{"email":"ops@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "535 bad credentials", out["error"])
}

func TestNotificationTest_NoTransport(t *testing.T) {
	rec, out := do(t, newTestServer(&stubOrders{}, nil), http.MethodPost, "/api/v1/notifications/test", `{"email":"ops@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "configuration_error", out["code"])
}
