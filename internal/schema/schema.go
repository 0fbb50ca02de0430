package schema

import "github.com/saikiran76/SwipeAI/internal/idgen"

const moneyPattern = `^-?\d+\.\d{2}$`

// required lists, per section, the string fields that must be non-empty.
var required = map[string][]string{
	sectionInvoices:  {"id", "serialNumber", "customerId", "productId", "date"},
	sectionProducts:  {"id", "name", "unitPrice", "taxAmount", "priceWithTax"},
	sectionCustomers: {"id", "name", "totalPurchaseAmount"},
}

const (
	sectionInvoices  = "invoices"
	sectionProducts  = "products"
	sectionCustomers = "customers"
)

// BuildExtractedDataSchema returns the JSON Schema (draft 2020-12 subset) of
// the strict output contract.
func BuildExtractedDataSchema() map[string]any {
	invoice := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":           idProp(idgen.InvoicePrefix),
			"serialNumber": nonEmpty(),
			"customerId":   idProp(idgen.CustomerPrefix),
			"productId":    idProp(idgen.ProductPrefix),
			"quantity":     map[string]any{"type": "number", "minimum": 0},
			"taxRate":      moneyProp(),
			"taxAmount":    moneyProp(),
			"totalAmount":  moneyProp(),
			"date":         nonEmpty(),
			"customerName": map[string]any{"type": "string"},
			"productName":  map[string]any{"type": "string"},
		},
		"required": []string{"id", "serialNumber", "customerId", "productId", "quantity", "totalAmount", "date"},
	}
	product := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":              idProp(idgen.ProductPrefix),
			"name":            nonEmpty(),
			"quantity":        map[string]any{"type": "number", "minimum": 0},
			"unitPrice":       moneyProp(),
			"discountRate":    moneyProp(),
			"discountAmount":  moneyProp(),
			"discountDisplay": map[string]any{"type": "string"},
			"taxRate":         moneyProp(),
			"taxAmount":       moneyProp(),
			"taxDisplay":      map[string]any{"type": "string"},
			"priceWithTax":    moneyProp(),
		},
		"required": []string{"id", "name", "quantity", "unitPrice", "taxAmount", "priceWithTax"},
	}
	customer := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":                  idProp(idgen.CustomerPrefix),
			"name":                nonEmpty(),
			"phoneNumber":         map[string]any{"type": "string"},
			"email":               map[string]any{"type": "string"},
			"address":             map[string]any{"type": "string"},
			"totalPurchaseAmount": moneyProp(),
		},
		"required": []string{"id", "name", "totalPurchaseAmount"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			sectionInvoices:  map[string]any{"type": "array", "items": invoice},
			sectionProducts:  map[string]any{"type": "array", "items": product},
			sectionCustomers: map[string]any{"type": "array", "items": customer},
		},
		"required": []string{sectionInvoices, sectionProducts, sectionCustomers},
	}
}

func idProp(prefix string) map[string]any {
	return map[string]any{"type": "string", "pattern": "^" + prefix}
}

func nonEmpty() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

func moneyProp() map[string]any {
	return map[string]any{"type": "string", "pattern": moneyPattern}
}

// typesOnly copies a schema keeping only its type and structure keywords.
// Every type also admits null, which decodes to the zero value.
func typesOnly(s map[string]any) map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		switch k {
		case "required", "pattern", "minLength", "minimum":
			continue
		case "properties":
			props := v.(map[string]any)
			relaxed := make(map[string]any, len(props))
			for name, p := range props {
				relaxed[name] = typesOnly(p.(map[string]any))
			}
			out[k] = relaxed
		case "items":
			out[k] = typesOnly(v.(map[string]any))
		case "type":
			out[k] = []any{v, "null"}
		default:
			out[k] = v
		}
	}
	return out
}
