package shopify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activation_fulfiller/internal/apperr"
	"activation_fulfiller/internal/config"
	"activation_fulfiller/internal/logbus"
	"activation_fulfiller/internal/model"
	"activation_fulfiller/internal/provider"
)

var testCreds = model.PlatformCredentials{APIKey: "key", APISecret: "secret", ShopIdentifier: "demo-shop"}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return New(config.ShopifyConfig{
		BaseURL:    baseURL,
		APIVersion: "2021-01",
		TimeoutMs:  2000,
		QPS:        100,
		Burst:      10,
	}, logbus.Discard())
}

func TestFulfill_Created(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]any
		gotUser string
		gotPass string
		calls   int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"fulfillment":{"id":255858046,"status":"success"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	out, err := c.Fulfill(context.Background(), testCreds, provider.FulfillmentInput{
		OrderID:   "450789469",
		LineItems: []model.LineItem{{ExternalID: 111, Quantity: 1}, {ExternalID: 222, Quantity: 2}},
		Tracking:  model.TrackingInfo{TrackingNumber: "TRACK123", TrackingCompany: "UPS"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, model.OutcomeSucceeded, out.Status)
	assert.Equal(t, http.StatusCreated, out.StatusCode)
	assert.JSONEq(t, `{"fulfillment":{"id":255858046,"status":"success"}}`, string(out.PlatformResponse))

	assert.Equal(t, "/admin/api/2021-01/fulfillments.json", gotPath)
	assert.Equal(t, "key", gotUser)
	assert.Equal(t, "secret", gotPass)

	f := gotBody["fulfillment"].(map[string]any)
	assert.Equal(t, "450789469", f["order_id"])
	assert.Equal(t, map[string]any{"tracking_number": "TRACK123", "tracking_company": "UPS"}, f["tracking_info"])
	assert.Len(t, f["line_items"], 2)
}

func TestFulfill_DefaultTrackingCompany(t *testing.T) {
	var gotBody struct {
		Fulfillment struct {
			TrackingInfo model.TrackingInfo `json:"tracking_info"`
			LineItems    []model.LineItem   `json:"line_items"`
		} `json:"fulfillment"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL).Fulfill(context.Background(), testCreds, provider.FulfillmentInput{OrderID: "1"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeSucceeded, out.Status)
	assert.Equal(t, "Default Company", gotBody.Fulfillment.TrackingInfo.TrackingCompany)
	assert.Equal(t, "", gotBody.Fulfillment.TrackingInfo.TrackingNumber)
	assert.NotNil(t, gotBody.Fulfillment.LineItems)
}

func TestFulfill_RejectedIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"base":["Line items are already fulfilled"]}}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL).Fulfill(context.Background(), testCreds, provider.FulfillmentInput{OrderID: "1"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailed, out.Status)
	assert.Equal(t, http.StatusUnprocessableEntity, out.StatusCode)
	assert.Equal(t, `{"errors":{"base":["Line items are already fulfilled"]}}`, out.Message)
}

func TestFulfill_OKIsNotCreated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv.URL).Fulfill(context.Background(), testCreds, provider.FulfillmentInput{OrderID: "1"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailed, out.Status)
	assert.Equal(t, http.StatusOK, out.StatusCode)
}

func TestFulfill_NetworkErrorIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	out, err := newTestClient(t, url).Fulfill(context.Background(), testCreds, provider.FulfillmentInput{OrderID: "1"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailed, out.Status)
	assert.Equal(t, 0, out.StatusCode)
	assert.NotEmpty(t, out.Message)
}

func TestFulfill_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(config.ShopifyConfig{BaseURL: srv.URL, TimeoutMs: 50}, logbus.Discard())
	start := time.Now()
	out, err := c.Fulfill(context.Background(), testCreds, provider.FulfillmentInput{OrderID: "1"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeFailed, out.Status)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFulfill_ConfigurationFaults(t *testing.T) {
	c := newTestClient(t, "https://{shop}.myshopify.com")
	cases := []model.PlatformCredentials{
		{APISecret: "s", ShopIdentifier: "shop"},
		{APIKey: "k", ShopIdentifier: "shop"},
		{APIKey: "k", APISecret: "s", ShopIdentifier: "bad shop/../x"},
		{APIKey: "k", APISecret: "s", ShopIdentifier: ""},
	}
	for _, creds := range cases {
		_, err := c.Fulfill(context.Background(), creds, provider.FulfillmentInput{OrderID: "1"})
		require.Error(t, err)
		assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
	}

	_, err := newTestClient(t, "::not a url").Fulfill(context.Background(), testCreds, provider.FulfillmentInput{OrderID: "1"})
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestEndpoint(t *testing.T) {
	c := newTestClient(t, "https://{shop}.myshopify.com")

	got, err := c.endpoint(testCreds)
	require.NoError(t, err)
	assert.Equal(t, "https://demo-shop.myshopify.com/admin/api/2021-01/fulfillments.json", got)

	creds := testCreds
	creds.ShopIdentifier = "Demo-Shop.myshopify.com"
	got, err = c.endpoint(creds)
	require.NoError(t, err)
	assert.Equal(t, "https://demo-shop.myshopify.com/admin/api/2021-01/fulfillments.json", got)
}
