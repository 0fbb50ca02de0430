package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/idgen"
	"github.com/saikiran76/SwipeAI/internal/relations"
	"github.com/saikiran76/SwipeAI/internal/schema"
)

func validGraph() entity.ExtractedData {
	lines := []entity.PricedLine{
		{Name: "Widget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500), PriceWithTax: decimal.NewFromInt(1000)},
	}
	doc := entity.DocumentFields{InvoiceNumber: "INV-1", Date: "2024-01-01", PartyName: "Acme"}
	return relations.New(idgen.New(nil)).BuildDocument(doc, lines)
}

func newValidator(t *testing.T) *schema.Validator {
	t.Helper()
	v, err := schema.New()
	require.NoError(t, err)
	return v
}

func TestStrict_AcceptsBuilderOutput(t *testing.T) {
	data := validGraph()
	assert.NoError(t, newValidator(t).Strict(&data))
}

func TestStrict_MissingFieldNamesSectionAndIndex(t *testing.T) {
	data := validGraph()
	data.Products[0].Name = ""

	err := newValidator(t).Strict(&data)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSchemaViolation)
	assert.EqualError(t, err, "Missing required field 'name' in products at index 0")
}

func TestStrict_RejectsUnprefixedIDs(t *testing.T) {
	data := validGraph()
	data.Invoices[0].ID = "42"

	err := newValidator(t).Strict(&data)
	var sv *common.SchemaViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, "invoices", sv.Section)
	assert.Equal(t, 0, sv.Index)
	assert.Equal(t, "id", sv.Field)
}

func TestStrict_RejectsNonFixedMoney(t *testing.T) {
	data := validGraph()
	data.Customers[0].TotalPurchaseAmount = "1000"

	err := newValidator(t).Strict(&data)
	var sv *common.SchemaViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, "customers", sv.Section)
	assert.Equal(t, "totalPurchaseAmount", sv.Field)
}

func TestValidate_DanglingReference(t *testing.T) {
	v := newValidator(t)
	for name, check := range map[string]func(*entity.ExtractedData) error{"lenient": v.Lenient, "strict": v.Strict} {
		t.Run(name, func(t *testing.T) {
			data := validGraph()
			data.Invoices[0].ProductID = "PROD_missing"

			err := check(&data)
			assert.ErrorIs(t, err, common.ErrRelationshipViolation)
			var rv *common.RelationshipViolationError
			require.ErrorAs(t, err, &rv)
			assert.Equal(t, "products", rv.Section)
			assert.Equal(t, "PROD_missing", rv.MissingID)
		})
	}
}

func TestLenient_CoercesNilSections(t *testing.T) {
	var data entity.ExtractedData
	require.NoError(t, newValidator(t).Lenient(&data))
	assert.NotNil(t, data.Invoices)
	assert.NotNil(t, data.Products)
	assert.NotNil(t, data.Customers)
}

func TestStrict_EmptyGraphIsValid(t *testing.T) {
	var data entity.ExtractedData
	assert.NoError(t, newValidator(t).Strict(&data))
}

func TestTypes_MistypedFieldNamesSectionAndIndex(t *testing.T) {
	doc := map[string]any{
		"invoices": []any{
			map[string]any{"id": "INV_1", "quantity": json.Number("1")},
			map[string]any{"id": "INV_2", "quantity": "2"},
		},
	}

	err := newValidator(t).Types(doc)
	assert.ErrorIs(t, err, common.ErrSchemaViolation)
	var sv *common.SchemaViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, "invoices", sv.Section)
	assert.Equal(t, 1, sv.Index)
	assert.Equal(t, "quantity", sv.Field)
}

func TestTypes_IgnoresMissingFieldsAndNulls(t *testing.T) {
	doc := map[string]any{
		"invoices": []any{map[string]any{"id": "42", "taxRate": nil}},
		"products": []any{map[string]any{"name": "Widget"}},
	}
	assert.NoError(t, newValidator(t).Types(doc))
}
