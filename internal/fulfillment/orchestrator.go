// Package fulfillment runs the fulfill-order workflow: validate, email the activation codes,
// then optionally mark the order fulfilled on the commerce platform.
//
// Delivering the email is the primary guarantee. If it fails the request fails and the platform
// is never called. A platform rejection after a successful email is recorded in the result
// and does not fail the request.
package fulfillment

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"activation_fulfiller/internal/apperr"
	"activation_fulfiller/internal/logbus"
	"activation_fulfiller/internal/model"
	"activation_fulfiller/internal/notify"
	"activation_fulfiller/internal/provider"
)

type State string

const (
	StateValidating State = "validating"
	StateNotifying  State = "notifying"
	StateFulfilling State = "fulfilling"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
)

const StatusSuccess = "success"

type Options struct {
	Transport notify.Transport
	Sender    model.MailSender
	Fulfiller provider.Fulfiller
	// Credentials is nil when the platform is not configured.
	Credentials *model.PlatformCredentials
	Bus         *logbus.Bus
}

// Orchestrator holds only read-only collaborators and is safe for concurrent requests.
type Orchestrator struct {
	transport notify.Transport
	sender    model.MailSender
	fulfiller provider.Fulfiller
	creds     *model.PlatformCredentials
	bus       *logbus.Bus
	newID     func() string
}

func New(opts Options) *Orchestrator {
	var creds *model.PlatformCredentials
	if opts.Credentials != nil {
		c := *opts.Credentials
		creds = &c
	}
	return &Orchestrator{
		transport: opts.Transport,
		sender:    opts.Sender,
		fulfiller: opts.Fulfiller,
		creds:     creds,
		bus:       opts.Bus,
		newID:     uuid.NewString,
	}
}

// Handle processes one request end to end. Errors are *apperr.Error values of kind
// Validation, Configuration or Notification.
func (o *Orchestrator) Handle(ctx context.Context, req model.FulfillmentRequest) (model.Result, error) {
	run := &requestRun{o: o, id: o.newID(), order: req.OrderNumber, state: StateValidating}

	if err := Validate(req); err != nil {
		return run.abort(err)
	}
	req = req.Normalize()

	payload := notify.Compose(req.CustomerName, req.Items)

	run.to(StateNotifying)
	if o.transport == nil || !o.sender.Complete() {
		return run.abort(apperr.Configuration("email configuration not set"))
	}
	if err := o.transport.Send(ctx, o.sender, strings.TrimSpace(req.CustomerEmail), payload); err != nil {
		return run.abort(apperr.Notification(err))
	}
	o.log("info", "activation email sent", run.fields(map[string]any{
		"items": len(req.Items),
	}))

	outcome := model.NotSent()
	if req.FulfillShopify {
		run.to(StateFulfilling)
		if strings.TrimSpace(req.ShopifyOrderID) == "" || o.creds == nil || o.fulfiller == nil {
			return run.abort(apperr.Configuration("shopify configuration missing"))
		}
		var err error
		outcome, err = o.fulfiller.Fulfill(ctx, *o.creds, provider.FulfillmentInput{
			OrderID:   strings.TrimSpace(req.ShopifyOrderID),
			LineItems: req.LineItems,
			Tracking:  req.Tracking(),
		})
		if err != nil {
			return run.abort(err)
		}
		o.log("info", "shopify fulfillment recorded", run.fields(map[string]any{
			"outcome":    outcome.Status,
			"statusCode": outcome.StatusCode,
		}))
	}

	run.to(StateCompleted)
	return model.Result{
		Status:      StatusSuccess,
		RequestID:   run.id,
		OrderNumber: req.OrderNumber,
		Fulfillment: outcome,
	}, nil
}

func (o *Orchestrator) log(level, msg string, fields map[string]any) {
	if o.bus != nil {
		o.bus.Log(level, msg, fields)
	}
}

// requestRun tracks one request through the states.
type requestRun struct {
	o     *Orchestrator
	id    string
	order string
	state State
}

func (r *requestRun) fields(extra map[string]any) map[string]any {
	out := map[string]any{"requestId": r.id, "state": string(r.state)}
	if r.order != "" {
		out["orderNumber"] = r.order
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (r *requestRun) to(next State) {
	r.o.log("debug", "fulfillment state", r.fields(map[string]any{"from": string(r.state), "to": string(next)}))
	r.state = next
}

func (r *requestRun) abort(err error) (model.Result, error) {
	level := "warn"
	if apperr.KindOf(err) != apperr.KindValidation {
		level = "error"
	}
	r.o.log(level, "fulfillment aborted", r.fields(map[string]any{
		"error": err.Error(),
		"kind":  apperr.KindOf(err).String(),
	}))
	r.state = StateAborted
	return model.Result{}, err
}
