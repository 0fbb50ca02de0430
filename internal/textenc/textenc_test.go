package textenc_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/SwipeAI/internal/textenc"
)

func TestDecodeString(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"utf8", []byte("Crème brûlée 2 250.00\n"), "Crème brûlée 2 250.00\n"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Total ₹ 1,180.00")...), "Total ₹ 1,180.00"},
		{"utf16 le bom", []byte{0xFF, 0xFE, 'Q', 0, 't', 0, 'y', 0}, "Qty"},
		// "Café 12,50" in Windows-1252
		{"windows-1252", []byte{'C', 'a', 'f', 0xE9, ' ', '1', '2', ',', '5', '0'}, "Café 12,50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := textenc.DecodeString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewUTF8Reader_LongInputSplitRune(t *testing.T) {
	// a two-byte rune straddles the sniff window
	input := strings.Repeat("a", 4095) + "é tail"
	r, err := textenc.NewUTF8Reader(bytes.NewReader([]byte(input)))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
}

func TestDecodeString_Empty(t *testing.T) {
	got, err := textenc.DecodeString(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
