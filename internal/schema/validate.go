// Package schema is the last gate before an ExtractedData leaves the core.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/entity"
)

type Validator struct {
	schema *jsonschema.Schema
	types  *jsonschema.Schema
}

// New compiles the strict output schema and its types-only relaxation.
func New() (*Validator, error) {
	strict := BuildExtractedDataSchema()
	s, err := compile("extracted_data.json", strict)
	if err != nil {
		return nil, err
	}
	t, err := compile("extracted_data_types.json", typesOnly(strict))
	if err != nil {
		return nil, err
	}
	return &Validator{schema: s, types: t}, nil
}

func compile(name string, doc map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
}

// Types checks a decoded JSON document against the field types of the output
// contract only. Required fields, id prefixes and money formats are left to
// Strict. A mistyped field is a *common.SchemaViolationError.
func (v *Validator) Types(doc map[string]any) error {
	if err := v.types.Validate(doc); err != nil {
		return violationFrom(err)
	}
	return nil
}

// Lenient replaces nil sections with empty ones and checks that every
// invoice reference resolves.
func (v *Validator) Lenient(data *entity.ExtractedData) error {
	coerce(data)
	return checkRelationships(data)
}

// Strict additionally requires every item to carry its required fields with
// the expected types, money as fixed 2-decimal strings and section-prefixed ids.
func (v *Validator) Strict(data *entity.ExtractedData) error {
	coerce(data)
	if err := checkRequired(data); err != nil {
		return err
	}

	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("unmarshal extracted data: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return violationFrom(err)
	}
	return checkRelationships(data)
}

func coerce(data *entity.ExtractedData) {
	if data.Invoices == nil {
		data.Invoices = []entity.Invoice{}
	}
	if data.Products == nil {
		data.Products = []entity.Product{}
	}
	if data.Customers == nil {
		data.Customers = []entity.Customer{}
	}
}

func checkRequired(data *entity.ExtractedData) error {
	for i, inv := range data.Invoices {
		vals := map[string]string{
			"id": inv.ID, "serialNumber": inv.SerialNumber, "customerId": inv.CustomerID,
			"productId": inv.ProductID, "date": inv.Date,
		}
		if err := missing(sectionInvoices, i, vals); err != nil {
			return err
		}
	}
	for i, p := range data.Products {
		vals := map[string]string{
			"id": p.ID, "name": p.Name, "unitPrice": p.UnitPrice, "taxAmount": p.TaxAmount, "priceWithTax": p.PriceWithTax,
		}
		if err := missing(sectionProducts, i, vals); err != nil {
			return err
		}
	}
	for i, c := range data.Customers {
		vals := map[string]string{"id": c.ID, "name": c.Name, "totalPurchaseAmount": c.TotalPurchaseAmount}
		if err := missing(sectionCustomers, i, vals); err != nil {
			return err
		}
	}
	return nil
}

// missing reports the first empty field in the section's declared order.
func missing(section string, index int, vals map[string]string) error {
	for _, f := range required[section] {
		if strings.TrimSpace(vals[f]) == "" {
			return &common.SchemaViolationError{Section: section, Field: f, Index: index, Reason: "missing"}
		}
	}
	return nil
}

func checkRelationships(data *entity.ExtractedData) error {
	customers := make(map[string]struct{}, len(data.Customers))
	for _, c := range data.Customers {
		customers[c.ID] = struct{}{}
	}
	products := make(map[string]struct{}, len(data.Products))
	for _, p := range data.Products {
		products[p.ID] = struct{}{}
	}
	for _, inv := range data.Invoices {
		if _, ok := customers[inv.CustomerID]; !ok {
			return &common.RelationshipViolationError{InvoiceID: inv.ID, Section: sectionCustomers, MissingID: inv.CustomerID}
		}
		if _, ok := products[inv.ProductID]; !ok {
			return &common.RelationshipViolationError{InvoiceID: inv.ID, Section: sectionProducts, MissingID: inv.ProductID}
		}
	}
	return nil
}

// violationFrom maps the deepest schema failure to a SchemaViolationError.
func violationFrom(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", common.ErrSchemaViolation, err)
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	out := &common.SchemaViolationError{Index: -1, Reason: leaf.Message}
	parts := strings.Split(strings.TrimPrefix(leaf.InstanceLocation, "/"), "/")
	if len(parts) > 0 {
		out.Section = parts[0]
	}
	if len(parts) > 1 {
		if i, err := strconv.Atoi(parts[1]); err == nil {
			out.Index = i
		}
	}
	if len(parts) > 2 {
		out.Field = parts[2]
	}
	return out
}
