package adapter

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/jobdigest/internal/browser"
	"github.com/amishk599/jobdigest/internal/model"
)

const (
	YouratorPageURL = "https://www.yourator.co/jobs"
	YouratorBaseURL = "https://www.yourator.co"

	// youratorCardSelector is present once the client-side listing rendered.
	youratorCardSelector = "div.flex.min-w-0.flex-auto.flex-col.flex-nowrap.py-3.pl-4.pr-5"
)

// YouratorDefaultParams searches full-time QA roles around Taipei.
var YouratorDefaultParams = map[string][]string{
	"area[]":       {"TPE", "NWT"},
	"position[]":   {"full_time"},
	"remoteWork[]": {"none", "full", "partial"},
	"sort":         {"most_related"},
	"term[]":       {"QA Engineer"},
}

var youratorLayout = markupLayout{
	EntrySelector: youratorCardSelector,
	PageParam:     "page",
	Extract:       extractYourator,
}

func extractYourator(s *goquery.Selection, baseURL string) (model.JobRecord, error) {
	title := cleanText(s.Find("p.truncate.text-general.font-bold.text-lightest-navy").First().Text())
	if title == "" {
		return model.JobRecord{}, model.Reject("missing title")
	}
	company := cleanText(s.Find("p.flex-initial.truncate.text-sub.text-main-blue").First().Text())
	if company == "" {
		return model.JobRecord{}, model.Reject("missing company for %q", title)
	}

	rec := model.JobRecord{
		Title:    title,
		Company:  company,
		Salary:   model.SalaryPlaceholder,
		Location: model.LocationPlaceholder,
	}

	// First info span is the location, the last one the salary.
	info := s.Find(`div.text-hint span.truncate`)
	if info.Length() > 0 {
		rec.Location = orDefault(cleanText(info.First().Text()), model.LocationPlaceholder)
		rec.Salary = orDefault(cleanText(info.Last().Text()), model.SalaryPlaceholder)
	}

	anchor := s.Closest("a[href]")
	if anchor.Length() == 0 {
		anchor = s.Find("a[href]").First()
	}
	if href, ok := anchor.Attr("href"); ok {
		if link, err := absoluteURL(baseURL, href); err == nil {
			rec.URL = link
		}
	}
	return rec, nil
}

// NewYouratorAdapter creates the browser-rendered yourator source. launch is
// called at most once per run, on the first page fetch.
func NewYouratorAdapter(name, pageURL, baseURL string, params map[string][]string, launch func() (browser.Renderer, error), waitTimeout time.Duration) *MarkupAdapter {
	if pageURL == "" {
		pageURL = YouratorPageURL
	}
	if baseURL == "" {
		baseURL = YouratorBaseURL
	}
	return &MarkupAdapter{
		name:    name,
		pageURL: pageURL,
		baseURL: baseURL,
		params:  mergeParams(YouratorDefaultParams, params),
		loader: &browserLoader{
			launch:       launch,
			waitSelector: youratorCardSelector,
			waitTimeout:  waitTimeout,
		},
		layout: youratorLayout,
	}
}
