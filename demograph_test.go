package demograph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/demograph-dev/demograph/pkg/instagram"
	"github.com/demograph-dev/demograph/pkg/namefilter"
	"github.com/demograph-dev/demograph/pkg/record"
)

// wikiServer fakes just enough of the MediaWiki API for Analyze: every search
// returns one title and every parse returns the given HTML body.
func wikiServer(html string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("action") {
		case "query":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"query": map[string]any{
					"search": []map[string]any{{"title": "Subject Page"}},
				},
			})
		case "parse":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"parse": map[string]any{"text": map[string]string{"*": html}},
			})
		}
	}))
}

func TestAnalyze(t *testing.T) {
	server := wikiServer(`<p>She was a Mexican painter. Her self-portraits made her famous.</p>`)
	defer server.Close()

	subject := Analyze(context.Background(), "Frida Kahlo", WithWikipediaBaseURL(server.URL))

	want := Subject{Name: "Frida Kahlo", Sex: "Female", Race: "Hispanic/Latino"}
	if diff := cmp.Diff(want, subject); diff != "" {
		t.Errorf("Analyze mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeNoPageFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"query": map[string]any{"search": []any{}},
		})
	}))
	defer server.Close()

	subject := Analyze(context.Background(), "Nobody Knownhere", WithWikipediaBaseURL(server.URL))

	if subject.Sex != "Unknown" {
		t.Errorf("Sex = %q, want Unknown", subject.Sex)
	}
	if subject.Race != "Information not available" {
		t.Errorf("Race = %q, want the unavailable placeholder", subject.Race)
	}
}

func TestClassifyBatchNoAPIKey(t *testing.T) {
	profiles := []Profile{{Username: "ana", FullName: "Ana Silva"}}

	err := ClassifyBatch(context.Background(), profiles, "")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("ClassifyBatch error = %v, want ErrNoAPIKey", err)
	}
	if profiles[0].Classified() {
		t.Errorf("records should stay unannotated without a key: %+v", profiles[0])
	}
}

// Export parse, human filter, and bulk classification chained end to end.
func TestExportPipeline(t *testing.T) {
	export := `{
	  "node": {
	    "edge_related_profiles": {
	      "edges": [
	        {"node": {"username": "ucla.bruins", "full_name": "UCLA Bruins", "profile_pic_url": ""}},
	        {"node": {"username": "maria.lopez", "full_name": "Maria Lopez", "profile_pic_url": ""}}
	      ]
	    }
	  }
	}`

	all, err := instagram.ParseExport([]byte(export))
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}

	blocklist := namefilter.DefaultBlocklist()
	var humans []Profile
	for _, p := range all {
		if namefilter.IsHuman(p.FullName, blocklist) {
			humans = append(humans, p)
		}
	}

	if len(humans) != 1 || humans[0].Username != "maria.lopez" {
		t.Fatalf("human filter kept %+v, want only maria.lopez", humans)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{
					"role":    "assistant",
					"content": `[{"id":0,"gender":"female","ethnicity":"hispanic","confidence":"high"}]`,
				}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	if err := ClassifyBatch(context.Background(), humans, "test-key", WithPerplexityBaseURL(server.URL)); err != nil {
		t.Fatalf("ClassifyBatch: %v", err)
	}

	got := humans[0]
	if got.PredictedGender != record.GenderFemale || got.PredictedRace != record.EthnicityHispanic {
		t.Errorf("classification = %+v, want female/hispanic", got)
	}
	if got.AnalysisSource != record.SourceModel {
		t.Errorf("AnalysisSource = %q, want model", got.AnalysisSource)
	}
}
