package transfer

import "strings"

// PaymentEvent is the shape we accept from the payment gateway's webhook.
// Providers disagree on where they put the outcome, so both a status field
// and an event name are read.
type PaymentEvent struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Event     string `json:"event"`
}

// IsSuccessSignal reports whether the event describes a completed payment.
// Gateways disagree on casing and on whether the outcome lives in the status
// or the event name, so both are checked against their known token sets.
func (e PaymentEvent) IsSuccessSignal() bool {
	switch strings.ToLower(e.Status) {
	case "paid", "success", "successful":
		return true
	}
	switch strings.ToLower(e.Event) {
	case "payment.success", "payment.paid":
		return true
	}
	return false
}

// WebhookResult is what the webhook handler reports back to the gateway.
type WebhookResult struct {
	OK        bool   `json:"ok"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Ignored   bool   `json:"ignored,omitempty"`
	Message   string `json:"message,omitempty"`
}
