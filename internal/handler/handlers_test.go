package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mpmail/internal/compose"
	"github.com/mpmail/internal/directory"
	"github.com/mpmail/internal/web"
)

const testCSV = `Contact,Electorate,Party,Job Title,Parliament Email
Jane Doe,Districtville,PartyX,Electorate MP,jane@parl.gov
Lee Kim,,PartyZ,List Member,lee@parl.gov
`

const testTemplate = "Dear {mp.Contact}, regarding {Issue?}."

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDirectory(t *testing.T, loaded bool) *directory.Directory {
	t.Helper()
	d := directory.New(newTestLogger())
	if !loaded {
		return d
	}
	res, err := directory.Parse(strings.NewReader(testCSV), newTestLogger())
	if err != nil {
		t.Fatalf("parse directory: %v", err)
	}
	d.Publish(directory.NewIndex(res.Records))
	return d
}

func newTestComposeHandler(t *testing.T, loaded, preserve bool) *ComposeHandler {
	dir := newTestDirectory(t, loaded)
	svc := compose.NewService(dir, "Test subject")
	return NewComposeHandler(newTestLogger(), dir, svc, web.Templates, testTemplate, preserve)
}

func postForm(h http.HandlerFunc, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestPage(t *testing.T) {
	h := newTestComposeHandler(t, true, false)
	rr := httptest.NewRecorder()
	h.Page(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`<option value="jane@parl.gov">Jane Doe (Districtville - PartyX)</option>`,
		`id="input-Issue"`,
		`name="answers.0.placeholder" value="{Issue?}"`,
		"Test subject",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in page", want)
		}
	}
	if strings.Contains(body, "lee@parl.gov") {
		t.Error("list member should not be selectable")
	}
}

func TestPageDirectoryUnavailable(t *testing.T) {
	h := newTestComposeHandler(t, false, false)
	rr := httptest.NewRecorder()
	h.Page(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "unavailable") {
		t.Error("expected unavailable selection list")
	}
}

func TestComposeRedirectsToMailto(t *testing.T) {
	h := newTestComposeHandler(t, true, false)
	rr := postForm(h.Compose, "/compose", url.Values{
		"mp":                    {"jane@parl.gov"},
		"template":              {testTemplate},
		"answers.0.placeholder": {"{Issue?}"},
		"answers.0.value":       {"housing"},
	}, nil)

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d: %s", http.StatusSeeOther, rr.Code, rr.Body.String())
	}

	u, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if u.Scheme != "mailto" || u.Opaque != "jane@parl.gov" {
		t.Errorf("unexpected Location %q", rr.Header().Get("Location"))
	}
	if got := u.Query().Get("body"); got != "Dear Jane Doe, regarding housing." {
		t.Errorf("body = %q", got)
	}
	if got := u.Query().Get("subject"); got != "Test subject" {
		t.Errorf("subject = %q", got)
	}
}

func TestComposeRejections(t *testing.T) {
	cases := []struct {
		name   string
		loaded bool
		form   url.Values
		status int
		want   string
	}{
		{
			name:   "empty field",
			loaded: true,
			form: url.Values{
				"mp":                    {"jane@parl.gov"},
				"template":              {testTemplate},
				"answers.0.placeholder": {"{Issue?}"},
				"answers.0.value":       {""},
			},
			status: http.StatusUnprocessableEntity,
			want:   "Please fill out the &#34;Issue&#34; field.",
		},
		{
			name:   "no selection",
			loaded: true,
			form: url.Values{
				"template":              {testTemplate},
				"answers.0.placeholder": {"{Issue?}"},
				"answers.0.value":       {"housing"},
			},
			status: http.StatusUnprocessableEntity,
			want:   "Please select an MP.",
		},
		{
			name:   "directory unavailable",
			loaded: false,
			form:   url.Values{"mp": {"jane@parl.gov"}, "template": {"hi"}},
			status: http.StatusServiceUnavailable,
			want:   "unavailable",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestComposeHandler(t, tc.loaded, false)
			rr := postForm(h.Compose, "/compose", tc.form, nil)

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
			if loc := rr.Header().Get("Location"); loc != "" {
				t.Errorf("expected no navigation, got Location %q", loc)
			}
			if !strings.Contains(rr.Body.String(), tc.want) {
				t.Errorf("expected %q in body", tc.want)
			}
		})
	}
}

func TestFieldsPartial(t *testing.T) {
	h := newTestComposeHandler(t, true, false)
	rr := postForm(h.Fields, "/fields", url.Values{
		"template":              {"{Name?} and {Your suburb?}"},
		"answers.0.placeholder": {"{Name?}"},
		"answers.0.value":       {"Sam"},
	}, map[string]string{"X-Partial": "fields"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<html") {
		t.Error("expected a fragment, got a full page")
	}
	for _, want := range []string{`id="input-Name"`, `id="input-Your-suburb"`, `name="answers.1.value"`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in fragment:\n%s", want, body)
		}
	}
	if strings.Contains(body, `value="Sam"`) {
		t.Error("answers must not survive a rebuild unless preservation is enabled")
	}
}

func TestFieldsPreserveAnswers(t *testing.T) {
	h := newTestComposeHandler(t, true, true)
	rr := postForm(h.Fields, "/fields", url.Values{
		"template":              {"{Name?} and {New?}"},
		"answers.0.placeholder": {"{Name?}"},
		"answers.0.value":       {"Sam"},
	}, map[string]string{"X-Partial": "fields"})

	if !strings.Contains(rr.Body.String(), `value="Sam"`) {
		t.Errorf("expected preserved answer in fragment:\n%s", rr.Body.String())
	}
}

func TestFieldsFullPageWithoutScript(t *testing.T) {
	h := newTestComposeHandler(t, true, false)
	rr := postForm(h.Fields, "/fields", url.Values{
		"mp":       {"jane@parl.gov"},
		"template": {"{Topic?}"},
	}, nil)

	body := rr.Body.String()
	if !strings.Contains(body, "<html") || !strings.Contains(body, `id="input-Topic"`) {
		t.Errorf("expected full page with new fields")
	}
	if !strings.Contains(body, `<option value="jane@parl.gov" selected>`) {
		t.Errorf("expected selection to be kept")
	}
}

func newTestAPIHandler(t *testing.T, loaded bool) *APIHandler {
	dir := newTestDirectory(t, loaded)
	return NewAPIHandler(newTestLogger(), dir, compose.NewService(dir, "Test subject"))
}

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestAPIRepresentatives(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestAPIHandler(t, true).Representatives(rr, httptest.NewRequest(http.MethodGet, "/api/representatives", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	reps, _ := decodeBody(t, rr)["representatives"].([]any)
	if len(reps) != 1 {
		t.Fatalf("expected 1 representative, got %d", len(reps))
	}
	if rep := reps[0].(map[string]any); rep["email"] != "jane@parl.gov" {
		t.Errorf("unexpected representative %v", rep)
	}

	rr = httptest.NewRecorder()
	newTestAPIHandler(t, false).Representatives(rr, httptest.NewRequest(http.MethodGet, "/api/representatives", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

func TestAPIFields(t *testing.T) {
	rr := postJSON(newTestAPIHandler(t, true).Fields, `{"template":"Dear {mp.Contact}, {Issue?}"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	body := decodeBody(t, rr)
	fields, _ := body["fields"].([]any)
	if len(fields) != 1 || fields[0].(map[string]any)["placeholder"] != "{Issue?}" {
		t.Errorf("unexpected fields %v", body["fields"])
	}
	attrs, _ := body["attributes"].([]any)
	if len(attrs) != 1 || attrs[0] != "Contact" {
		t.Errorf("unexpected attributes %v", body["attributes"])
	}
}

func TestAPICompose(t *testing.T) {
	cases := []struct {
		name   string
		loaded bool
		body   string
		status int
		check  func(t *testing.T, body map[string]any)
	}{
		{
			name:   "success",
			loaded: true,
			body:   `{"email":"jane@parl.gov","template":"Dear {mp.Contact}, regarding {Issue?}.","answers":{"{Issue?}":"housing"}}`,
			status: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["body"] != "Dear Jane Doe, regarding housing." || body["to"] != "jane@parl.gov" {
					t.Errorf("unexpected response %v", body)
				}
				if s, _ := body["mailto"].(string); !strings.HasPrefix(s, "mailto:jane@parl.gov?subject=Test%20subject&body=") {
					t.Errorf("unexpected mailto %q", s)
				}
			},
		},
		{
			name:   "empty field",
			loaded: true,
			body:   `{"email":"jane@parl.gov","template":"{Reason?}","answers":{"{Reason?}":""}}`,
			status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				if body["field"] != "Reason" {
					t.Errorf("expected offending field Reason, got %v", body)
				}
				if _, ok := body["mailto"]; ok {
					t.Error("unexpected mailto in error response")
				}
			},
		},
		{
			name:   "no selection",
			loaded: true,
			body:   `{"template":"hi"}`,
			status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				if body["error"] != compose.SelectionPrompt {
					t.Errorf("unexpected error %v", body["error"])
				}
			},
		},
		{
			name:   "unavailable",
			loaded: false,
			body:   `{"email":"jane@parl.gov","template":"hi"}`,
			status: http.StatusServiceUnavailable,
			check:  func(t *testing.T, body map[string]any) {},
		},
		{
			name:   "unknown field",
			loaded: true,
			body:   `{"email":"jane@parl.gov","tmpl":"hi"}`,
			status: http.StatusBadRequest,
			check:  func(t *testing.T, body map[string]any) {},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(newTestAPIHandler(t, tc.loaded).Compose, tc.body)
			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
			tc.check(t, decodeBody(t, rr))
		})
	}
}

func TestHealth(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name   string
		loaded bool
		ctx    context.Context
		status int
		want   string
		count  float64
	}{
		{"ok", true, context.Background(), http.StatusOK, "ok", 1},
		{"not loaded", false, context.Background(), http.StatusServiceUnavailable, "degraded", 0},
		{"request gone", true, canceled, http.StatusServiceUnavailable, "degraded", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequestWithContext(tc.ctx, http.MethodGet, "/api/health", nil)
			Health(newTestDirectory(t, tc.loaded))(rr, req)
			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
			body := decodeBody(t, rr)
			if got := body["status"]; got != tc.want {
				t.Errorf("status = %v, want %s", got, tc.want)
			}
			if got := body["representatives"]; got != tc.count {
				t.Errorf("representatives = %v, want %v", got, tc.count)
			}
		})
	}
}
