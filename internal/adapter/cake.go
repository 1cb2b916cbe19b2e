package adapter

import (
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobdigest/internal/model"
)

const (
	CakePageURL = "https://www.cake.me/jobs/qa%20engineer"
	CakeBaseURL = "https://www.cake.me"
)

// CakeDefaultParams narrows the search to full-time roles around Taipei.
var CakeDefaultParams = map[string][]string{
	"location_list[0]":   {"Taipei City, Taiwan"},
	"location_list[1]":   {"New Taipei City, Taiwan"},
	"job_type[0]":        {"full_time"},
	"seniority_level[0]": {"entry_level"},
	"seniority_level[1]": {"mid_senior_level"},
}

var cakeLayout = markupLayout{
	EntrySelector: ".JobSearchItem_container__oKoBL",
	PageParam:     "page",
	Extract:       extractCake,
}

func extractCake(s *goquery.Selection, baseURL string) (model.JobRecord, error) {
	titleSel := s.Find(".JobSearchItem_jobTitle__bu6yO").First()
	title := cleanText(titleSel.Text())
	if title == "" {
		return model.JobRecord{}, model.Reject("missing title")
	}
	company := cleanText(s.Find(".JobSearchItem_companyName__bY7JI").First().Text())
	if company == "" {
		return model.JobRecord{}, model.Reject("missing company for %q", title)
	}

	href, _ := titleSel.Attr("href")
	if strings.TrimSpace(href) == "" {
		return model.JobRecord{}, model.Reject("missing link for %q", title)
	}
	link, err := absoluteURL(baseURL, href)
	if err != nil {
		return model.JobRecord{}, model.Reject("link for %q: %v", title, err)
	}

	salary := cleanText(s.Find(`.InlineMessage_label__LJGjW:contains("TWD")`).First().Text())
	return model.JobRecord{
		Title:   title,
		Company: company,
		Salary:  orDefault(salary, model.SalaryPlaceholder),
		URL:     link,
	}, nil
}

// NewCakeAdapter creates the server-rendered cake.me source. Empty pageURL
// and baseURL fall back to the public site.
func NewCakeAdapter(name, pageURL, baseURL string, params map[string][]string, headers map[string]string, client *http.Client) *MarkupAdapter {
	if pageURL == "" {
		pageURL = CakePageURL
	}
	if baseURL == "" {
		baseURL = CakeBaseURL
	}
	return &MarkupAdapter{
		name:    name,
		pageURL: pageURL,
		baseURL: baseURL,
		params:  mergeParams(CakeDefaultParams, params),
		loader:  &httpLoader{client: client, headers: headers},
		layout:  cakeLayout,
	}
}
