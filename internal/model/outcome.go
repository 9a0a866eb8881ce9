package model

import "encoding/json"

type OutcomeStatus string

const (
	OutcomeNotSent   OutcomeStatus = "not_sent"
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// FulfillmentOutcome records what happened to the optional platform call.
// StatusCode is 0 when the call never reached the platform.
type FulfillmentOutcome struct {
	Status           OutcomeStatus   `json:"status"`
	StatusCode       int             `json:"statusCode,omitempty"`
	Message          string          `json:"message,omitempty"`
	PlatformResponse json.RawMessage `json:"platformResponse,omitempty"`
}

func NotSent() FulfillmentOutcome {
	return FulfillmentOutcome{Status: OutcomeNotSent}
}

func Succeeded(statusCode int, body json.RawMessage) FulfillmentOutcome {
	return FulfillmentOutcome{Status: OutcomeSucceeded, StatusCode: statusCode, PlatformResponse: body}
}

func Failed(statusCode int, message string) FulfillmentOutcome {
	return FulfillmentOutcome{Status: OutcomeFailed, StatusCode: statusCode, Message: message}
}

// Result is returned to the caller when the workflow completes.
type Result struct {
	Status      string             `json:"status"`
	RequestID   string             `json:"requestId"`
	OrderNumber string             `json:"orderNumber,omitempty"`
	Fulfillment FulfillmentOutcome `json:"fulfillment"`
}
