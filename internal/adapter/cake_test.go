package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

const cakeFixture = `<!doctype html>
<html><body>
<div class="JobSearchItem_container__oKoBL">
  <a class="JobSearchItem_jobTitle__bu6yO" href="/companies/acme/jobs/qa-1">Senior QA
  Engineer</a>
  <a class="JobSearchItem_companyName__bY7JI">Acme</a>
  <div class="InlineMessage_label__LJGjW">Full-time</div>
  <div class="InlineMessage_label__LJGjW">60K ~ 80K TWD / month</div>
</div>
<div class="JobSearchItem_container__oKoBL">
  <a class="JobSearchItem_jobTitle__bu6yO" href="https://jobs.example.com/sdet">SDET</a>
  <a class="JobSearchItem_companyName__bY7JI">Beta &amp; Co</a>
  <div class="InlineMessage_label__LJGjW">Full-time</div>
</div>
<div class="JobSearchItem_container__oKoBL">
  <a class="JobSearchItem_jobTitle__bu6yO">Test Lead</a>
  <a class="JobSearchItem_companyName__bY7JI">Gamma</a>
</div>
<div class="JobSearchItem_container__oKoBL">
  <a class="JobSearchItem_jobTitle__bu6yO" href="/jobs/orphan">QA Intern</a>
</div>
</body></html>`

func newCakeServer(t *testing.T, status int, body string, gotQuery *map[string][]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotQuery != nil {
			*gotQuery = r.URL.Query()
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCake_FetchAndNormalize(t *testing.T) {
	var gotQuery map[string][]string
	srv := newCakeServer(t, http.StatusOK, cakeFixture, &gotQuery)

	a := NewCakeAdapter("cake", srv.URL+"/jobs/qa%20engineer", "", nil, nil, NewSessionClient(5*time.Second))
	defer a.Close()

	entries, err := a.FetchPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entry blocks, got %d", len(entries))
	}
	if got := gotQuery["page"]; len(got) != 1 || got[0] != "2" {
		t.Errorf("expected page=2, got %v", got)
	}
	if got := gotQuery["job_type[0]"]; len(got) != 1 || got[0] != "full_time" {
		t.Errorf("expected default job_type[0], got %v", got)
	}

	rec, err := a.Normalize(entries[0])
	if err != nil {
		t.Fatalf("entry 0: unexpected error: %v", err)
	}
	want := model.JobRecord{
		Title:   "Senior QA Engineer",
		Company: "Acme",
		Salary:  "60K ~ 80K TWD / month",
		URL:     "https://www.cake.me/companies/acme/jobs/qa-1",
	}
	if rec != want {
		t.Errorf("entry 0: got %+v, want %+v", rec, want)
	}

	rec, err = a.Normalize(entries[1])
	if err != nil {
		t.Fatalf("entry 1: unexpected error: %v", err)
	}
	if rec.Company != "Beta & Co" {
		t.Errorf("expected unescaped company, got %q", rec.Company)
	}
	if rec.Salary != model.SalaryPlaceholder {
		t.Errorf("expected salary placeholder, got %q", rec.Salary)
	}
	if rec.URL != "https://jobs.example.com/sdet" {
		t.Errorf("expected absolute link kept, got %q", rec.URL)
	}

	for _, i := range []int{2, 3} {
		if _, err := a.Normalize(entries[i]); !errors.Is(err, model.ErrEntryRejected) {
			t.Errorf("entry %d: expected rejection, got %v", i, err)
		}
	}
}

func TestCake_CustomBaseURL(t *testing.T) {
	srv := newCakeServer(t, http.StatusOK, cakeFixture, nil)

	a := NewCakeAdapter("cake", srv.URL, "https://mirror.example.com", nil, nil, srv.Client())
	entries, err := a.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := a.Normalize(entries[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.URL != "https://mirror.example.com/companies/acme/jobs/qa-1" {
		t.Errorf("expected link on custom base, got %q", rec.URL)
	}
}

func TestCake_EmptyPage(t *testing.T) {
	srv := newCakeServer(t, http.StatusOK, `<html><body><p>沒有符合的職缺</p></body></html>`, nil)

	a := NewCakeAdapter("cake", srv.URL, "", nil, nil, srv.Client())
	entries, err := a.FetchPage(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestCake_NonSuccessStatus(t *testing.T) {
	srv := newCakeServer(t, http.StatusNotFound, "gone", nil)

	a := NewCakeAdapter("cake", srv.URL, "", nil, nil, srv.Client())
	_, err := a.FetchPage(context.Background(), 1)

	var fe *model.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *model.FetchError, got %v", err)
	}
	var he *model.HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusNotFound {
		t.Errorf("expected HTTP 404, got %v", err)
	}
}

func TestMarkupAdapter_RejectsForeignEntry(t *testing.T) {
	a := NewCakeAdapter("cake", "", "", nil, nil, http.DefaultClient)
	if _, err := a.Normalize(42); !errors.Is(err, model.ErrEntryRejected) {
		t.Errorf("expected rejection, got %v", err)
	}
}
