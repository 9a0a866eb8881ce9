// Command mock serves a local stand-in for the Shopify fulfillment endpoint.
// Point shopify.baseURL at it (no {shop} placeholder). Orders whose id starts with
// "fail" are rejected with 422, everything else is created.
package main

import (
	"encoding/json"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"activation_fulfiller/internal/logger"
	"activation_fulfiller/internal/model"
)

type fulfillmentBody struct {
	Fulfillment struct {
		OrderID      string             `json:"order_id"`
		TrackingInfo model.TrackingInfo `json:"tracking_info"`
		LineItems    []model.LineItem   `json:"line_items"`
	} `json:"fulfillment"`
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	log := logger.New(logger.Options{Level: "debug", Format: "console", Service: "shopify-mock"})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Post("/admin/api/{version}/fulfillments.json", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user == "" || pass == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"errors": "[API] Invalid API key or access token (unrecognized login or wrong password)",
			})
			return
		}
		var body fulfillmentBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": err.Error()})
			return
		}
		f := body.Fulfillment
		log.Info().
			Str("version", chi.URLParam(r, "version")).
			Str("orderId", f.OrderID).
			Int("lineItems", len(f.LineItems)).
			Str("trackingCompany", f.TrackingInfo.TrackingCompany).
			Msg("fulfillment request")

		if f.OrderID == "" || strings.HasPrefix(f.OrderID, "fail") {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"errors": map[string]any{"base": []string{"Line items are already fulfilled"}},
			})
			return
		}

		lineItems := make([]map[string]any, 0, len(f.LineItems))
		for _, li := range f.LineItems {
			lineItems = append(lineItems, map[string]any{
				"id":                   li.ExternalID,
				"quantity":             li.Quantity,
				"fulfillment_status":   "fulfilled",
				"fulfillable_quantity": 0,
			})
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"fulfillment": map[string]any{
				"id":               rand.Int63n(900000000) + 100000000,
				"order_id":         f.OrderID,
				"status":           "success",
				"created_at":       time.Now().Format(time.RFC3339),
				"tracking_company": f.TrackingInfo.TrackingCompany,
				"tracking_number":  f.TrackingInfo.TrackingNumber,
				"line_items":       lineItems,
			},
		})
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", *addr).Msg("mock listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Error().Err(err).Msg("mock stopped")
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
