package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentEventIsSuccessSignal(t *testing.T) {
	tests := []struct {
		name  string
		event PaymentEvent
		want  bool
	}{
		{
			name:  "paid status",
			event: PaymentEvent{Status: "paid"},
			want:  true,
		},
		{
			name:  "uppercase status",
			event: PaymentEvent{Status: "PAID"},
			want:  true,
		},
		{
			name:  "success status",
			event: PaymentEvent{Status: "success"},
			want:  true,
		},
		{
			name:  "successful status",
			event: PaymentEvent{Status: "Successful"},
			want:  true,
		},
		{
			name:  "payment.success event",
			event: PaymentEvent{Event: "payment.success"},
			want:  true,
		},
		{
			name:  "payment.paid event",
			event: PaymentEvent{Event: "payment.paid"},
			want:  true,
		},
		{
			name:  "uppercase event",
			event: PaymentEvent{Event: "PAYMENT.PAID"},
			want:  true,
		},
		{
			name:  "pending status",
			event: PaymentEvent{Status: "pending"},
			want:  false,
		},
		{
			name:  "unknown status outside the token set",
			event: PaymentEvent{Status: "completed"},
			want:  false,
		},
		{
			name:  "event merely containing success",
			event: PaymentEvent{Event: "payment.unsuccessful"},
			want:  false,
		},
		{
			name:  "empty",
			event: PaymentEvent{},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.IsSuccessSignal())
		})
	}
}
