package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestBillingType(t *testing.T) {
	tests := []struct {
		origin string
		want   BillingType
	}{
		{"FR", BillingTypeMargin},
		{"de", BillingTypeMargin},
		{" Allemagne ", BillingTypeMargin},
		{"", BillingTypeMargin},
		{"CH", BillingTypeVAT},
		{"GB", BillingTypeVAT},
		{"JP", BillingTypeVAT},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestBillingType(tt.origin))
		})
	}
}
