// Package sheet decodes spreadsheets into header-keyed rows.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/textenc"
)

// ToRows decodes the first sheet of an XLSX workbook, or a CSV file, into rows
// keyed by the header text of the first row. Blank rows are skipped.
func ToRows(data []byte, filename string) ([]entity.Row, error) {
	var (
		grid [][]string
		err  error
	)
	switch ext := constants.NormalizeExt(filepath.Ext(filename)); ext {
	case "xlsx", "xlsm":
		grid, err = readXLSX(data)
	case "csv":
		grid, err = readCSV(data)
	default:
		return nil, common.NewAppError(common.CodeUnsupportedInput,
			fmt.Sprintf("unsupported spreadsheet extension %q", ext), common.ErrUnsupportedInput)
	}
	if err != nil {
		return nil, err
	}
	return toRows(grid)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "open workbook", errors.Join(common.ErrInvalidInput, err))
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, common.NewAppError(common.CodeInvalidInput, "workbook has no sheets", common.ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	text, err := textenc.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffComma(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "read csv", errors.Join(common.ErrInvalidInput, err))
	}
	return rows, nil
}

// sniffComma picks ';' when the header line has more semicolons than commas.
func sniffComma(text string) rune {
	header, _, _ := strings.Cut(text, "\n")
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

func toRows(grid [][]string) ([]entity.Row, error) {
	if len(grid) < 2 {
		return nil, common.NewAppError(common.CodeInvalidInput,
			"spreadsheet needs a header row and at least one data row", common.ErrInvalidInput)
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(h)
	}

	out := make([]entity.Row, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := entity.Row{}
		for i, cell := range cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				row[headers[i]] = v
			}
		}
		if len(row) == 0 {
			continue
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, common.NewAppError(common.CodeInvalidInput, "spreadsheet has no data rows", common.ErrInvalidInput)
	}
	return out, nil
}
