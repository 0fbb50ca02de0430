package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/saikiran76/SwipeAI/internal/entity"
)

// Sheet names in the exported workbook, in tab order.
const (
	SheetInvoices  = "Invoices"
	SheetProducts  = "Products"
	SheetCustomers = "Customers"
)

// Service renders extraction results as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

type column struct {
	header string
	width  float64
}

type table struct {
	name    string
	columns []column
	rows    [][]any
}

// WorkbookXLSX returns the three sections of data as one workbook.
func (s *Service) WorkbookXLSX(data entity.ExtractedData) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	tables := []table{invoiceTable(data.Invoices), productTable(data.Products), customerTable(data.Customers)}
	for i, t := range tables {
		if i == 0 {
			// the default sheet becomes the first tab
			if err := f.SetSheetName("Sheet1", t.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return nil, err
		}
		if err := writeTable(f, t); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", t.name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"invoices", len(data.Invoices),
		"products", len(data.Products),
		"customers", len(data.Customers),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, t table) error {
	for i, c := range t.columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(t.name, cell, c.header); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(t.name, col, col, c.width)
	}
	for r, values := range t.rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(t.name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func invoiceTable(invoices []entity.Invoice) table {
	t := table{name: SheetInvoices, columns: []column{
		{"Serial Number", 18}, {"Customer Name", 28}, {"Product Name", 32}, {"Quantity", 10},
		{"Tax", 18}, {"Total Amount", 14}, {"Date", 14},
	}}
	for _, inv := range invoices {
		t.rows = append(t.rows, []any{
			inv.SerialNumber, inv.CustomerName, inv.ProductName, inv.Quantity,
			taxCell(inv.TaxRate, inv.TaxAmount), number(inv.TotalAmount), inv.Date,
		})
	}
	return t
}

func productTable(products []entity.Product) table {
	t := table{name: SheetProducts, columns: []column{
		{"Name", 32}, {"Quantity", 10}, {"Unit Price", 14}, {"Discount", 18}, {"Tax", 18}, {"Price with Tax", 16},
	}}
	for _, p := range products {
		t.rows = append(t.rows, []any{
			p.Name, p.Quantity, number(p.UnitPrice), p.DiscountDisplay, p.TaxDisplay, number(p.PriceWithTax),
		})
	}
	return t
}

func customerTable(customers []entity.Customer) table {
	t := table{name: SheetCustomers, columns: []column{
		{"Customer Name", 28}, {"Phone Number", 16}, {"Email", 28}, {"Address", 40}, {"Total Purchase Amount", 22},
	}}
	for _, c := range customers {
		t.rows = append(t.rows, []any{c.Name, c.PhoneNumber, c.Email, c.Address, number(c.TotalPurchaseAmount)})
	}
	return t
}

// number writes money as a numeric cell, falling back to the text as given.
func number(s string) any {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	f, _ := d.Float64()
	return f
}

func taxCell(rate, amount string) string {
	switch {
	case rate != "" && amount != "":
		return fmt.Sprintf("%s%% (%s)", rate, amount)
	case rate != "":
		return rate + "%"
	default:
		return amount
	}
}
