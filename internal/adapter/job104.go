package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amishk599/jobdigest/internal/model"
)

const (
	Job104APIURL  = "https://www.104.com.tw/jobs/search/list"
	job104BaseURL = "https://www.104.com.tw"
)

// Job104DefaultParams is the search template sent with every 104 request.
// Config params replace individual keys.
var Job104DefaultParams = map[string][]string{
	"area":               {"6001001000,6001002000"},
	"jobsource":          {"joblist_search"},
	"keyword":            {"軟體測試工程師"},
	"mode":               {"s"},
	"order":              {"3"},
	"asc":                {"0"},
	"searchTempExclude":  {"2"},
	"excludeIndustryCat": {"1009001000"},
	"jobexp":             {"10,5,3"},
	"ro":                 {"1"},
	"rows":               {"20"},
}

// Job104DefaultHeaders makes the request look like the site's own XHR.
var Job104DefaultHeaders = map[string]string{
	"Accept":           "application/json, text/plain, */*",
	"Accept-Language":  "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7",
	"Referer":          "https://www.104.com.tw/jobs/search/",
	"X-Requested-With": "XMLHttpRequest",
}

// job104Response is the subset of the search list response we read. List
// stays raw so one malformed entry cannot fail the whole page.
type job104Response struct {
	Data *struct {
		List []json.RawMessage `json:"list"`
	} `json:"data"`
}

type job104Entry struct {
	JobName       string `json:"jobName"`
	CustName      string `json:"custName"`
	SalaryDesc    string `json:"salaryDesc"`
	JobAddrNoDesc string `json:"jobAddrNoDesc"`
	Link          struct {
		Job string `json:"job"`
	} `json:"link"`
}

// Job104Adapter reads the 104 job search JSON API.
type Job104Adapter struct {
	name    string
	apiURL  string
	params  url.Values
	headers map[string]string
	client  *http.Client
}

// NewJob104Adapter creates an adapter for the 104 search API. An empty apiURL
// uses Job104APIURL. The client should come from NewSessionClient and belong
// to this source run only.
func NewJob104Adapter(name, apiURL string, params map[string][]string, headers map[string]string, client *http.Client) *Job104Adapter {
	if apiURL == "" {
		apiURL = Job104APIURL
	}
	return &Job104Adapter{
		name:    name,
		apiURL:  apiURL,
		params:  mergeParams(Job104DefaultParams, params),
		headers: mergeHeaders(Job104DefaultHeaders, headers),
		client:  client,
	}
}

func (a *Job104Adapter) Name() string { return a.name }

// Close drops the session's idle connections.
func (a *Job104Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// FetchPage retrieves one page of the search list. A well-formed body without
// data.list is an empty page.
func (a *Job104Adapter) FetchPage(ctx context.Context, page int) ([]model.RawEntry, error) {
	pageURL, err := withQuery(a.apiURL, a.params, "page", page)
	if err != nil {
		return nil, &model.FetchError{Source: a.name, Page: page, Err: err}
	}

	body, err := getBody(ctx, a.client, pageURL, a.headers)
	if err != nil {
		return nil, &model.FetchError{Source: a.name, Page: page, Err: err}
	}

	var resp job104Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &model.FetchError{Source: a.name, Page: page, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if resp.Data == nil {
		return nil, nil
	}

	entries := make([]model.RawEntry, len(resp.Data.List))
	for i, raw := range resp.Data.List {
		entries[i] = raw
	}
	return entries, nil
}

// Normalize maps one data.list element to a JobRecord.
func (a *Job104Adapter) Normalize(entry model.RawEntry) (model.JobRecord, error) {
	raw, ok := entry.(json.RawMessage)
	if !ok {
		return model.JobRecord{}, model.Reject("unexpected entry type %T", entry)
	}
	var e job104Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return model.JobRecord{}, model.Reject("decoding entry: %v", err)
	}

	title := cleanText(e.JobName)
	if title == "" {
		return model.JobRecord{}, model.Reject("missing title")
	}
	company := cleanText(e.CustName)
	if company == "" {
		return model.JobRecord{}, model.Reject("missing company for %q", title)
	}

	rec := model.JobRecord{
		Title:    title,
		Company:  company,
		Salary:   orDefault(e.SalaryDesc, model.SalaryPlaceholder),
		Location: orDefault(e.JobAddrNoDesc, model.LocationPlaceholder),
	}
	// The link is informational for 104; a bad one is dropped, not rejected.
	if e.Link.Job != "" {
		if link, err := absoluteURL(job104BaseURL, e.Link.Job); err == nil {
			rec.URL = link
		}
	}
	return rec, nil
}
