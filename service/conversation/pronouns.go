package conversation

import (
	"strings"
	"unicode"

	"shopbot/model"
)

// pronounBinding ties one Hebrew pronoun token to the entity category its
// grammatical gender/number refers to in store talk: masculine forms point at
// the last product (מוצר), feminine forms at the last order (הזמנה).
type pronounBinding struct {
	category   model.EntityCategory
	possessive bool
}

var pronounBindings = map[string]pronounBinding{
	// masculine singular -> product
	"הוא":  {category: model.CategoryProducts},
	"אותו": {category: model.CategoryProducts},
	"שלו":  {category: model.CategoryProducts, possessive: true},
	// feminine singular -> order
	"היא":  {category: model.CategoryOrders},
	"אותה": {category: model.CategoryOrders},
	"שלה":  {category: model.CategoryOrders, possessive: true},
	// masculine plural -> products
	"הם":    {category: model.CategoryProducts},
	"אותם":  {category: model.CategoryProducts},
	"שלהם":  {category: model.CategoryProducts, possessive: true},
	// feminine plural -> orders
	"הן":    {category: model.CategoryOrders},
	"אותן":  {category: model.CategoryOrders},
	"שלהן":  {category: model.CategoryOrders, possessive: true},
}

// ResolvePronouns replaces pronoun tokens in text with the bound category's
// last-mentioned value. Distinct pronoun classes may resolve against different
// categories within the same text. Tokens with no prior referent stay as they
// are; this never fails.
func (c *Context) ResolvePronouns(text string) string {
	if text == "" {
		return text
	}

	c.mu.Lock()
	last := make(map[model.EntityCategory]string, len(c.lastMentioned))
	for k, v := range c.lastMentioned {
		last[k] = v
	}
	c.mu.Unlock()

	if len(last) == 0 {
		return text
	}

	// walk the text token by token, copying whitespace through untouched so
	// spacing and line breaks survive resolution
	var out strings.Builder
	changed := false
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		word := text[start:end]
		resolved, ok := resolveWord(word, last)
		if ok {
			changed = true
			out.WriteString(resolved)
		} else {
			out.WriteString(word)
		}
		start = -1
	}

	for i, r := range text {
		if unicode.IsSpace(r) {
			flush(i)
			out.WriteRune(r)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(text))

	if !changed {
		return text
	}
	return out.String()
}

// resolveWord maps one whitespace-delimited token through the pronoun table,
// keeping any leading/trailing punctuation in place.
func resolveWord(word string, last map[model.EntityCategory]string) (string, bool) {
	core := strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if core == "" {
		return word, false
	}

	binding, ok := pronounBindings[core]
	if !ok {
		return word, false
	}
	value := last[binding.category]
	if value == "" {
		return word, false
	}

	replacement := value
	if binding.possessive {
		replacement = "של " + value
	}
	return strings.Replace(word, core, replacement, 1), true
}
