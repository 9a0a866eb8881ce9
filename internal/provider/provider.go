package provider

import (
	"context"

	"activation_fulfiller/internal/model"
)

type FulfillmentInput struct {
	OrderID   string
	LineItems []model.LineItem
	Tracking  model.TrackingInfo
}

// Fulfiller marks an order's line items as shipped on a commerce platform.
//
// Platform rejections and network failures come back as a Failed outcome with a nil error.
// An error is returned only when the request cannot be built, and is an apperr configuration fault.
type Fulfiller interface {
	Name() string
	Fulfill(ctx context.Context, creds model.PlatformCredentials, in FulfillmentInput) (model.FulfillmentOutcome, error)
}
