package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/demograph-dev/demograph/pkg/record"
)

// apiServer fakes the search and parse actions of the MediaWiki API. Search
// matches titles by substring in declared order; pages maps title to
// rendered HTML.
func apiServer(t *testing.T, titles []string, pages map[string]string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Query().Get("action") {
		case "query":
			type hit struct {
				Title string `json:"title"`
			}
			var hits []hit
			query := strings.ToLower(r.URL.Query().Get("srsearch"))
			for _, title := range titles {
				if strings.Contains(strings.ToLower(title), query) {
					hits = append(hits, hit{Title: title})
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"query": map[string]any{"search": hits},
			})
		case "parse":
			html, ok := pages[r.URL.Query().Get("page")]
			if !ok {
				_ = json.NewEncoder(w).Encode(map[string]any{"parse": map[string]any{}})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"parse": map[string]any{"text": map[string]string{"*": html}},
			})
		default:
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
		}
	}))
}

func TestSearch(t *testing.T) {
	server := apiServer(t, []string{"Frida Kahlo", "Frida Kahlo Museum"}, nil)
	defer server.Close()

	client, err := New(context.Background(), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	title, err := client.Search(context.Background(), "frida")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if title != "Frida Kahlo" {
		t.Errorf("Search = %q, want first hit %q", title, "Frida Kahlo")
	}
}

func TestSearchNoResults(t *testing.T) {
	server := apiServer(t, nil, nil)
	defer server.Close()

	client, err := New(context.Background(), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.Search(context.Background(), "nobody at all")
	if !errors.Is(err, record.ErrNoResults) {
		t.Errorf("Search error = %v, want ErrNoResults", err)
	}
}

func TestPageTextStripsHTML(t *testing.T) {
	pages := map[string]string{
		"Frida Kahlo": `<div><p>She was a <b>painter</b>.</p><p>Her work is celebrated.</p></div>`,
	}
	server := apiServer(t, []string{"Frida Kahlo"}, pages)
	defer server.Close()

	client, err := New(context.Background(), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text, err := client.PageText(context.Background(), "Frida Kahlo")
	if err != nil {
		t.Fatalf("PageText: %v", err)
	}

	if strings.Contains(text, "<") {
		t.Errorf("PageText left markup in output: %q", text)
	}
	for _, fragment := range []string{"She was a painter.", "Her work is celebrated."} {
		if !strings.Contains(text, fragment) {
			t.Errorf("PageText missing %q in %q", fragment, text)
		}
	}
}

func TestPageTextMissingPage(t *testing.T) {
	server := apiServer(t, nil, map[string]string{})
	defer server.Close()

	client, err := New(context.Background(), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = client.PageText(context.Background(), "Ghost Page")
	if !errors.Is(err, record.ErrNoResults) {
		t.Errorf("PageText error = %v, want ErrNoResults", err)
	}
}

func TestContent(t *testing.T) {
	pages := map[string]string{
		"Frida Kahlo": `<p>She was a painter born to a German father and a mestiza mother.</p>`,
	}
	server := apiServer(t, []string{"Frida Kahlo"}, pages)
	defer server.Close()

	client, err := New(context.Background(), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text := client.Content(context.Background(), "frida")
	if !strings.Contains(text, "painter") {
		t.Errorf("Content = %q, want page text", text)
	}
}

func TestContentDegradesToPlaceholders(t *testing.T) {
	server := apiServer(t, nil, nil)
	defer server.Close()

	client, err := New(context.Background(), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := client.Content(context.Background(), "Nobody Knownhere")
	want := "No Wikipedia information found for Nobody Knownhere"
	if got != want {
		t.Errorf("Content = %q, want %q", got, want)
	}
}

func TestContentErrorPlaceholder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(context.Background(), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := client.Content(context.Background(), "Anyone")
	want := "Error fetching information for Anyone"
	if got != want {
		t.Errorf("Content = %q, want %q", got, want)
	}
}
