// Package vehiclenlp answers two small questions about free-form vehicle
// queries: which catalog make the question mentions, and which record
// attributes it asks about. The analyzer is built from the catalog itself,
// so it only recognizes makes the catalog can actually answer for.
package vehiclenlp

import (
	"regexp"
	"sort"
	"strings"
)

// Attribute is a record field a question can ask about.
type Attribute string

const (
	AttrMake  Attribute = "make"
	AttrType  Attribute = "type"
	AttrSeats Attribute = "seats"
	AttrFuel  Attribute = "fuel"
)

// attrKeywords maps each attribute to the phrases that signal it.
var attrKeywords = map[Attribute][]string{
	AttrMake:  {"who makes", "made by", "manufacturer", "brand", "maker"},
	AttrType:  {"type", "kind of car", "body style", "suv", "sedan", "hatchback", "minivan", "pickup", "coupe"},
	AttrSeats: {"seat", "seater", "how many people", "passengers", "capacity"},
	AttrFuel:  {"fuel", "petrol", "diesel", "gasoline", "electric", "hybrid"},
}

// attrOrder fixes the order Attributes reports in.
var attrOrder = []Attribute{AttrMake, AttrType, AttrSeats, AttrFuel}

// Analyzer recognizes catalog makes and question intent.
type Analyzer struct {
	makeRe    *regexp.Regexp
	canonical map[string]string // lowercased make -> catalog spelling
}

// New builds an Analyzer from the catalog's make names. Empty and duplicate
// names are ignored; an Analyzer built from no makes recognizes none.
func New(makes []string) *Analyzer {
	a := &Analyzer{canonical: make(map[string]string)}

	var quoted []string
	for _, m := range makes {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		lower := strings.ToLower(m)
		if _, ok := a.canonical[lower]; ok {
			continue
		}
		a.canonical[lower] = m
		quoted = append(quoted, regexp.QuoteMeta(lower))
	}
	if len(quoted) == 0 {
		return a
	}

	// Longest alternative first so "Alfa Romeo" wins over "Alfa".
	sort.Slice(quoted, func(i, j int) bool {
		if len(quoted[i]) != len(quoted[j]) {
			return len(quoted[i]) > len(quoted[j])
		}
		return quoted[i] < quoted[j]
	})
	a.makeRe = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)(?:'s)?\b`)
	return a
}

// Make returns the catalog make the question mentions, if any.
func (a *Analyzer) Make(question string) (string, bool) {
	if a.makeRe == nil {
		return "", false
	}
	m := a.makeRe.FindStringSubmatch(question)
	if m == nil {
		return "", false
	}
	return a.canonical[strings.ToLower(m[1])], true
}

// Attributes returns the record attributes the question asks about, in a
// stable order.
func (a *Analyzer) Attributes(question string) []Attribute {
	lower := strings.ToLower(question)
	var out []Attribute
	for _, attr := range attrOrder {
		for _, kw := range attrKeywords[attr] {
			if strings.Contains(lower, kw) {
				out = append(out, attr)
				break
			}
		}
	}
	return out
}
