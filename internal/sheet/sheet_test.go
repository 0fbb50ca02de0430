package sheet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/sheet"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for r, cells := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &cells))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestToRows_XLSX(t *testing.T) {
	data := workbook(t, [][]any{
		{"Customer Name", "Product", "Qty", "Price"},
		{"Acme", "Bolt", 10, "2.50"},
		{},
		{"Acme", "Nut", 5, "1.00"},
	})

	rows, err := sheet.ToRows(data, "orders.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entity.Row{"Customer Name": "Acme", "Product": "Bolt", "Qty": "10", "Price": "2.50"}, rows[0])
	assert.Equal(t, "Nut", rows[1]["Product"])
}

func TestToRows_CSV(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"comma", "Customer Name,Total\nAcme,\"1,180.00\"\n"},
		{"semicolon", "Customer Name;Total\nAcme;1,180.00\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := sheet.ToRows([]byte(tt.data), "orders.CSV")
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "Acme", rows[0]["Customer Name"])
			assert.Equal(t, "1,180.00", rows[0]["Total"])
		})
	}
}

func TestToRows_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
		target   error
	}{
		{"header only", []byte("Customer Name,Total\n"), "a.csv", common.ErrInvalidInput},
		{"blank data rows", []byte("Customer Name,Total\n,\n"), "a.csv", common.ErrInvalidInput},
		{"not a workbook", []byte("plain text"), "a.xlsx", common.ErrInvalidInput},
		{"unknown extension", []byte("x"), "a.ods", common.ErrUnsupportedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sheet.ToRows(tt.data, tt.filename)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}
