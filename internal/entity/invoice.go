package entity

// Customer is a party that bought products on one or more invoices.
type Customer struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	PhoneNumber         string `json:"phoneNumber"`
	Email               string `json:"email"`
	Address             string `json:"address"`
	TotalPurchaseAmount string `json:"totalPurchaseAmount"`
}

// Product is one line item. Monetary fields are fixed 2-decimal strings.
type Product struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       string  `json:"unitPrice"`
	DiscountRate    string  `json:"discountRate"`
	DiscountAmount  string  `json:"discountAmount"`
	DiscountDisplay string  `json:"discountDisplay"`
	TaxRate         string  `json:"taxRate"`
	TaxAmount       string  `json:"taxAmount"`
	TaxDisplay      string  `json:"taxDisplay"`
	PriceWithTax    string  `json:"priceWithTax"`
}

// Invoice maps one line item to one customer and one product.
// CustomerName and ProductName are a display cache only.
type Invoice struct {
	ID           string  `json:"id"`
	SerialNumber string  `json:"serialNumber"`
	CustomerID   string  `json:"customerId"`
	ProductID    string  `json:"productId"`
	Quantity     float64 `json:"quantity"`
	TaxRate      string  `json:"taxRate"`
	TaxAmount    string  `json:"taxAmount"`
	TotalAmount  string  `json:"totalAmount"`
	Date         string  `json:"date"`
	CustomerName string  `json:"customerName"`
	ProductName  string  `json:"productName"`
}

// ExtractedData is the aggregate handed to the presentation layer.
// The three slices are never nil once validated.
type ExtractedData struct {
	Invoices  []Invoice  `json:"invoices"`
	Products  []Product  `json:"products"`
	Customers []Customer `json:"customers"`
}

// Empty returns an ExtractedData with non-nil empty slices.
func Empty() ExtractedData {
	return ExtractedData{
		Invoices:  []Invoice{},
		Products:  []Product{},
		Customers: []Customer{},
	}
}
