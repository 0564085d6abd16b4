package platform

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{
			name: "media validation is treated as success",
			err:  ErrMediaValidation,
			want: TreatAsSuccess,
		},
		{
			name: "wrapped media validation is treated as success",
			err:  fmt.Errorf("publish reel: %w", ErrMediaValidation),
			want: TreatAsSuccess,
		},
		{
			name: "missing credentials is fatal for the account",
			err:  fmt.Errorf("resolve account 3: %w", ErrMissingCredentials),
			want: FatalForAccount,
		},
		{
			name: "anything else is retryable",
			err:  errors.New("connection reset by peer"),
			want: Retryable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
