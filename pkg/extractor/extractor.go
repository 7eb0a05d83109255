package extractor

import (
	"regexp"

	"shopbot/model"
)

// Extraction is the shape every extractor must produce. The core validates
// only the shape: entity categories outside the closed set are dropped.
type Extraction struct {
	Intents  []string
	Entities map[model.EntityCategory][]string
}

// Extractor turns a raw user message into intents and entities.
type Extractor interface {
	Extract(message string) Extraction
}

// regexExtractor matches Hebrew store-talk with fixed pattern tables. Each
// entity pattern captures the value in group 1.
type regexExtractor struct {
	intents  []intentPattern
	entities []entityPattern
}

type intentPattern struct {
	intent  string
	pattern *regexp.Regexp
}

type entityPattern struct {
	category model.EntityCategory
	pattern  *regexp.Regexp
}

// NewRegexExtractor builds the default Hebrew extractor.
func NewRegexExtractor() Extractor {
	return &regexExtractor{
		intents: []intentPattern{
			// Hebrew glues prefixes onto nouns (המחיר, להזמנה), so the
			// connector matches anything inside the sentence rather than
			// whole space-separated words.
			{"create_product", regexp.MustCompile(`(?:צור|הוסף|תוסיף)[^.?!\n]*?מוצר`)},
			{"delete_product", regexp.MustCompile(`(?:מחק|הסר)[^.?!\n]*?מוצר`)},
			{"update_price", regexp.MustCompile(`(?:עדכן|שנה)[^.?!\n]*?מחיר`)},
			{"product_query", regexp.MustCompile(`(?:מה|כמה|איזה)[^.?!\n]*?(?:מוצר|מחיר|מלאי)`)},
			{"order_status", regexp.MustCompile(`(?:סטטוס|מה|איפה)[^.?!\n]*?הזמנה`)},
			{"sales_report", regexp.MustCompile(`(?:דו"ח|דוח|סיכום)[^.?!\n]*?מכירות`)},
			{"add_document", regexp.MustCompile(`(?:הוסף|העלה)[^.?!\n]*?מסמך`)},
		},
		entities: []entityPattern{
			{model.CategoryProducts, regexp.MustCompile(`(?:מוצר|פריט)\s+"([^"]+)"`)},
			{model.CategoryProducts, regexp.MustCompile(`(?:מוצר|פריט)\s+בשם\s+([\p{Hebrew}\d]+(?:\s+[\p{Hebrew}\d]+)?)`)},
			{model.CategoryOrders, regexp.MustCompile(`הזמנה\s*(?:מספר\s*)?#?(\d+)`)},
			{model.CategoryCustomers, regexp.MustCompile(`לקוחה?\s+([\p{Hebrew}]+(?:\s+[\p{Hebrew}]+)?)`)},
			{model.CategoryCategories, regexp.MustCompile(`קטגוריי?ה\s+"([^"]+)"`)},
			{model.CategoryPrices, regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:ש"ח|שח|שקלים|שקל|₪)`)},
			{model.CategoryQuantities, regexp.MustCompile(`(\d+)\s*(?:יחידות|פריטים|מוצרים)`)},
			{model.CategoryDates, regexp.MustCompile(`(\d{1,2}[./]\d{1,2}[./]\d{2,4})`)},
			{model.CategoryDates, regexp.MustCompile(`(?:^|\s)(היום|מחר|אתמול|שלשום)(?:\s|[,.?!]|$)`)},
			{model.CategoryDocuments, regexp.MustCompile(`מסמך\s+"([^"]+)"`)},
		},
	}
}

func (e *regexExtractor) Extract(message string) Extraction {
	out := Extraction{Entities: make(map[model.EntityCategory][]string)}
	if message == "" {
		return out
	}

	for _, ip := range e.intents {
		if ip.pattern.MatchString(message) {
			out.Intents = append(out.Intents, ip.intent)
		}
	}

	for _, ep := range e.entities {
		for _, m := range ep.pattern.FindAllStringSubmatch(message, -1) {
			if len(m) > 1 && m[1] != "" {
				out.Entities[ep.category] = append(out.Entities[ep.category], m[1])
			}
		}
	}

	return out
}

// Sanitize drops entities outside the closed category set. Used on
// extractions supplied by external callers.
func Sanitize(ex Extraction) Extraction {
	clean := Extraction{
		Intents:  ex.Intents,
		Entities: make(map[model.EntityCategory][]string, len(ex.Entities)),
	}
	for category, values := range ex.Entities {
		if !model.ValidEntityCategory(category) {
			continue
		}
		clean.Entities[category] = values
	}
	return clean
}
