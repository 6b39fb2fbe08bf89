package transifex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "contao", "secret")
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func checkAuth(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	if !ok || user != "api" || pass != "secret" {
		t.Errorf("basic auth = %q/%q (%v), want api/secret", user, pass, ok)
	}
}

func TestListResources(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkAuth(t, r)
		if r.Method != http.MethodGet || r.URL.Path != "/api/2/project/contao/resources/" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `[{"slug":"core-default","name":"default","i18n_type":"XLIFF","source_language_code":"en"}]`)
	})

	got, err := c.ListResources(context.Background())
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	want := []Resource{{Slug: "core-default", Name: "default", I18nType: "XLIFF", SourceLanguage: "en"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListResources mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateResource(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/2/project/contao/resources/" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var body createBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		want := createBody{Slug: "core-tl_page", Name: "tl_page", I18nType: "XLIFF", Content: "<xliff/>"}
		if diff := cmp.Diff(want, body); diff != "" {
			t.Errorf("body mismatch (-want +got):\n%s", diff)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `[1, 0, 0]`)
	})

	if err := c.CreateResource(context.Background(), "core-tl_page", "tl_page", []byte("<xliff/>")); err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}
}

func TestUploadSource(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkAuth(t, r)
		if r.Method != http.MethodPut || r.URL.Path != "/api/2/project/contao/resource/core-default/content/" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body contentBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
			return
		}
		if body.Content != "<xliff>source</xliff>" {
			t.Errorf("content = %q", body.Content)
		}
		io.WriteString(w, `{"strings_added":2,"strings_updated":1,"strings_delete":3}`)
	})

	got, err := c.UploadSource(context.Background(), "core-default", []byte("<xliff>source</xliff>"))
	if err != nil {
		t.Fatalf("UploadSource failed: %v", err)
	}
	if diff := cmp.Diff(&UploadResult{Added: 2, Updated: 1, Deleted: 3}, got); diff != "" {
		t.Errorf("UploadResult mismatch (-want +got):\n%s", diff)
	}
}

func TestDownloadTranslation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/2/project/contao/resource/core-default/translation/pt_BR/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if mode := r.URL.Query().Get("mode"); mode != "default" {
			t.Errorf("mode = %q, want default", mode)
		}
		io.WriteString(w, `{"content":"<xliff>übersetzt</xliff>","mimetype":"text/x-xliff"}`)
	})

	got, err := c.DownloadTranslation(context.Background(), "core-default", "pt_BR")
	if err != nil {
		t.Fatalf("DownloadTranslation failed: %v", err)
	}
	if string(got) != "<xliff>übersetzt</xliff>" {
		t.Errorf("content = %q", got)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, `[]`)
	})

	got, err := c.ListResources(context.Background())
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListResources = %v, want empty", got)
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, want 3", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such resource", http.StatusNotFound)
	})

	_, err := c.DownloadTranslation(context.Background(), "missing", "de")
	if !IsNotFound(err) {
		t.Fatalf("error = %v, want a 404 APIError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1", calls.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	_, err := c.ListResources(context.Background())
	if err == nil {
		t.Fatal("ListResources should fail")
	}
	if IsNotFound(err) {
		t.Error("a 502 must not be reported as not found")
	}
}
