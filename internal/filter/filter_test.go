package filter

import "testing"

var qaKeywords = []string{
	"qa", "測試", "test", "testing", "sdet", "quality", "品質",
	"quality assurance", "軟體測試", "軟體測試工程師", "set",
}

func TestKeywordFilter_Match(t *testing.T) {
	tests := []struct {
		name      string
		keywords  []string
		title     string
		wantMatch bool
	}{
		{
			name:      "ascii keyword case insensitive",
			keywords:  qaKeywords,
			title:     "Senior QA Engineer",
			wantMatch: true,
		},
		{
			name:      "uppercase keyword matches lowercase title",
			keywords:  []string{"SDET"},
			title:     "sdet (automation)",
			wantMatch: true,
		},
		{
			name:      "cjk keyword matches verbatim",
			keywords:  qaKeywords,
			title:     "軟體測試工程師（台北）",
			wantMatch: true,
		},
		{
			name:      "substring without word boundary",
			keywords:  []string{"set"},
			title:     "Asset Manager",
			wantMatch: true,
		},
		{
			name:      "no keyword present",
			keywords:  qaKeywords,
			title:     "Frontend Developer",
			wantMatch: false,
		},
		{
			name:      "empty title never matches",
			keywords:  qaKeywords,
			title:     "",
			wantMatch: false,
		},
		{
			name:      "whitespace title never matches",
			keywords:  qaKeywords,
			title:     "   \n",
			wantMatch: false,
		},
		{
			name:      "empty keyword set matches nothing",
			keywords:  nil,
			title:     "QA Engineer",
			wantMatch: false,
		},
		{
			name:      "blank keyword is ignored",
			keywords:  []string{"", "  "},
			title:     "QA Engineer",
			wantMatch: false,
		},
		{
			name:      "unicode folding beyond ascii",
			keywords:  []string{"ingénieur"},
			title:     "INGÉNIEUR Logiciel",
			wantMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewKeywordFilter(tt.keywords)
			if got := f.Match(tt.title); got != tt.wantMatch {
				t.Errorf("Match(%q) = %v, want %v", tt.title, got, tt.wantMatch)
			}
		})
	}
}

func TestKeywordFilter_KeywordsFolded(t *testing.T) {
	f := NewKeywordFilter([]string{"QA", " Test ", ""})
	got := f.Keywords()
	if len(got) != 2 || got[0] != "qa" || got[1] != "test" {
		t.Errorf("Keywords() = %v, want [qa test]", got)
	}
}
