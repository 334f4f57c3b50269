package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skillsenselab/drivescribe/auth"
	apperrors "github.com/skillsenselab/drivescribe/errors"
	"github.com/skillsenselab/drivescribe/feed"
	"github.com/skillsenselab/drivescribe/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, MaxAttempts: 1}
	client := NewClient(cfg, auth.StaticSource("test-token"), logger.NewDefault("graph-test"))
	return client, srv
}

func TestLatestToken(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://api.example.com/v1.0/"},
		auth.StaticSource("t"), logger.NewDefault("graph-test"))

	got := client.LatestToken("drv-1")
	want := "https://api.example.com/v1.0/drives/drv-1/root/delta?token=latest"
	if got != want {
		t.Fatalf("LatestToken = %q, want %q", got, want)
	}
}

func TestFetchPage_DecodesDelta(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		io.WriteString(w, `{
			"value": [
				{"id": "f1", "name": "Audio.en-us.wav", "size": 2048,
				 "file": {}, "audio": {},
				 "parentReference": {"driveId": "drv-1"}},
				{"id": "f2", "name": "gone.wav", "file": {}, "deleted": {},
				 "parentReference": {"driveId": "drv-1"}},
				{"id": "d1", "name": "folder"}
			],
			"@odata.deltaLink": "https://next/delta?token=abc"
		}`)
	}))

	page, err := client.FetchPage(context.Background(), srv.URL+"/drives/drv-1/root/delta?token=t0")
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if page.DeltaToken != "https://next/delta?token=abc" {
		t.Fatalf("unexpected delta token %q", page.DeltaToken)
	}
	if page.NextToken != "" {
		t.Fatalf("unexpected next token %q", page.NextToken)
	}
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Items))
	}

	first := page.Items[0]
	if !first.IsFile || !first.HasAudio || first.IsDeleted {
		t.Fatalf("unexpected facets on %+v", first)
	}
	if first.ParentID != "drv-1" || first.Size != 2048 {
		t.Fatalf("unexpected fields on %+v", first)
	}
	if !page.Items[1].IsDeleted {
		t.Fatal("expected deleted facet on second item")
	}
	if page.Items[2].IsFile {
		t.Fatal("expected folder to carry no file facet")
	}
}

func TestFetchPage_GoneMeansCursorInvalid(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))

	_, err := client.FetchPage(context.Background(), srv.URL+"/delta?token=stale")
	if !errors.Is(err, feed.ErrCursorInvalid) {
		t.Fatalf("expected ErrCursorInvalid, got %v", err)
	}
}

func TestItemFields_StringValuesOnly(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/drives/drv-1/items/item-1/listItem/fields"
		if r.URL.Path != wantPath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"Title":                 "Recording",
			"TranscriptionLanguage": "English",
			"id":                    42,
		})
	}))

	fields, err := client.ItemFields(context.Background(), "drv-1", "item-1")
	if err != nil {
		t.Fatalf("ItemFields failed: %v", err)
	}
	if fields["TranscriptionLanguage"] != "English" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["id"]; ok {
		t.Fatal("non-string values must be dropped")
	}
}

func TestItemFields_TimeoutMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, MaxAttempts: 1, Timeout: 50 * time.Millisecond}
	client := NewClient(cfg, auth.StaticSource("t"), logger.NewDefault("graph-test"))

	_, err := client.ItemFields(context.Background(), "drv-1", "item-1")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != apperrors.ErrCodeTimeout {
		t.Fatalf("expected timeout code, got %s", appErr.Code)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline cause preserved, got %v", err)
	}
}

func TestItemFields_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.ItemFields(context.Background(), "drv-1", "nope")
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestDownloadContent_SizeCap(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("x", 100))
	}))

	data, err := client.DownloadContent(context.Background(), "drv-1", "item-1", 200)
	if err != nil {
		t.Fatalf("DownloadContent failed: %v", err)
	}
	if len(data) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(data))
	}

	if _, err := client.DownloadContent(context.Background(), "drv-1", "item-1", 50); err == nil {
		t.Fatal("expected error when content exceeds the cap")
	}
}

func TestPatchItemFields(t *testing.T) {
	var gotMethod string
	var gotBody map[string]string

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.PatchItemFields(context.Background(), "drv-1", "item-1", map[string]string{
		"TranscriptionLanguage": "English",
		"Transcription":         "hello",
	})
	if err != nil {
		t.Fatalf("PatchItemFields failed: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("expected PATCH, got %s", gotMethod)
	}
	if gotBody["Transcription"] != "hello" || gotBody["TranscriptionLanguage"] != "English" {
		t.Fatalf("unexpected patch body %v", gotBody)
	}
}
