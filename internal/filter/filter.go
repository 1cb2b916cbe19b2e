package filter

import (
	"strings"

	"golang.org/x/text/cases"
)

// KeywordFilter matches job titles that contain any configured keyword.
// Both sides are Unicode case-folded, so ASCII tokens match regardless of case
// and CJK tokens match verbatim. There is no word-boundary logic.
type KeywordFilter struct {
	keywords []string
}

// NewKeywordFilter returns a filter over the given keywords. Blank keywords are
// dropped since they would match every title.
func NewKeywordFilter(keywords []string) *KeywordFilter {
	fold := cases.Fold()
	folded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		folded = append(folded, fold.String(kw))
	}
	return &KeywordFilter{keywords: folded}
}

// Match reports whether title contains at least one keyword. A blank title
// never matches, and neither does any title when the keyword set is empty.
func (f *KeywordFilter) Match(title string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	// A Caser carries state and must not be shared across goroutines.
	folded := cases.Fold().String(title)
	for _, kw := range f.keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// Keywords returns the folded keyword set.
func (f *KeywordFilter) Keywords() []string {
	return append([]string(nil), f.keywords...)
}
