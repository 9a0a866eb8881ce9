package model

const (
	DefaultCustomerName    = "Customer"
	DefaultTrackingCompany = "Default Company"
)

type ActivationItem struct {
	Product        string `json:"Product" validate:"required"`
	ActivationCode string `json:"ActivationCode" validate:"required"`
}

// LineItem is passed to the commerce platform as-is; the platform validates ids and quantities.
type LineItem struct {
	ExternalID int64 `json:"id"`
	Quantity   int   `json:"quantity"`
}

type TrackingInfo struct {
	TrackingNumber  string `json:"tracking_number"`
	TrackingCompany string `json:"tracking_company"`
}

type FulfillmentRequest struct {
	OrderNumber    string           `json:"order_number,omitempty"`
	CustomerEmail  string           `json:"customer_email" validate:"required,email"`
	CustomerName   string           `json:"customer_name,omitempty"`
	Items          []ActivationItem `json:"items" validate:"required,min=1,dive"`
	FulfillShopify bool             `json:"fulfill_shopify,omitempty"`
	ShopifyOrderID string           `json:"shopify_order_id,omitempty"`
	LineItems      []LineItem       `json:"line_items_for_shopify,omitempty"`
	TrackingInfo   *TrackingInfo    `json:"tracking_info,omitempty"`
}

// Normalize fills the defaults the inbound payload may omit.
func (r FulfillmentRequest) Normalize() FulfillmentRequest {
	out := r
	if out.CustomerName == "" {
		out.CustomerName = DefaultCustomerName
	}
	return out
}

// Tracking returns the tracking block with the company default applied.
// The tracking number has no default and stays empty when absent.
func (r FulfillmentRequest) Tracking() TrackingInfo {
	var t TrackingInfo
	if r.TrackingInfo != nil {
		t = *r.TrackingInfo
	}
	if t.TrackingCompany == "" {
		t.TrackingCompany = DefaultTrackingCompany
	}
	return t
}
