package extractor

import (
	"testing"

	"shopbot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIntents(t *testing.T) {
	e := NewRegexExtractor()

	cases := []struct {
		message string
		intent  string
	}{
		{`תוסיף מוצר חדש לחנות`, "create_product"},
		{`מחק את המוצר הישן`, "delete_product"},
		{`עדכן את המחיר ל-50 שח`, "update_price"},
		{`מה המחיר של החולצה?`, "product_query"},
		{`מה הסטטוס של הזמנה 17?`, "order_status"},
		{`תן לי דוח מכירות לחודש`, "sales_report"},
	}

	for _, tc := range cases {
		ex := e.Extract(tc.message)
		assert.Contains(t, ex.Intents, tc.intent, "message: %s", tc.message)
	}
}

func TestExtractEntities(t *testing.T) {
	e := NewRegexExtractor()

	ex := e.Extract(`הלקוח דוד כהן הזמין מוצר "חולצה כחולה" בהזמנה מספר 42 תמורת 99.90 ש"ח`)

	assert.Equal(t, []string{"חולצה כחולה"}, ex.Entities[model.CategoryProducts])
	assert.Equal(t, []string{"42"}, ex.Entities[model.CategoryOrders])
	assert.Equal(t, []string{"99.90"}, ex.Entities[model.CategoryPrices])
	require.NotEmpty(t, ex.Entities[model.CategoryCustomers])
}

func TestExtractEmptyMessage(t *testing.T) {
	e := NewRegexExtractor()
	ex := e.Extract("")
	assert.Empty(t, ex.Intents)
	assert.Empty(t, ex.Entities)
}

func TestSanitizeDropsUnknownCategories(t *testing.T) {
	dirty := Extraction{
		Intents: []string{"product_query"},
		Entities: map[model.EntityCategory][]string{
			model.CategoryProducts:        {"חולצה"},
			model.EntityCategory("moods"): {"happy"},
		},
	}

	clean := Sanitize(dirty)
	assert.Equal(t, []string{"product_query"}, clean.Intents)
	assert.Equal(t, []string{"חולצה"}, clean.Entities[model.CategoryProducts])
	_, ok := clean.Entities[model.EntityCategory("moods")]
	assert.False(t, ok)
}
