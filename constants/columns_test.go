package constants_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saikiran76/SwipeAI/constants"
)

func TestLettersOnly(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"QTY:", "qty"},
		{"Pri-ce", "price"},
		{"Tax per item", "taxperitem"},
		{"GST 18%", "gst"},
		{"123", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, constants.LettersOnly(tt.in))
		})
	}
}

func TestCanonicalizeHeader(t *testing.T) {
	tests := []struct {
		in     string
		want   constants.Column
		wantOK bool
	}{
		{"Qty", constants.ColQuantity, true},
		{"  QTY: ", constants.ColQuantity, true},
		{"Invoice-Number", constants.ColInvoiceNumber, true},
		{"Tax %", constants.ColTaxRate, true},
		{"", "", false},
		{"???", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := constants.CanonicalizeHeader(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
