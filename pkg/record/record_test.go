package record

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProfileRoundTrip(t *testing.T) {
	in := []Profile{
		{
			Username:        "maria.lopez",
			FullName:        "Maria Lopez",
			ProfilePicURL:   "https://cdn.example/maria.jpg",
			PredictedGender: GenderFemale,
			PredictedRace:   EthnicityHispanic,
			Confidence:      ConfidenceHigh,
			AnalysisSource:  SourceModel,
		},
		{
			Username:      "ghost",
			FullName:      "Ghost Account",
			ProfilePicURL: "https://cdn.example/ghost.jpg",
		},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out []Profile
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileOmitsUnsetAnnotations(t *testing.T) {
	data, err := json.Marshal(Profile{Username: "ghost", FullName: "Ghost Account"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	for _, field := range []string{"predicted_gender", "predicted_race", "confidence", "analysis_source"} {
		if strings.Contains(string(data), field) {
			t.Errorf("unannotated profile should omit %q, got %s", field, data)
		}
	}
}

func TestClassified(t *testing.T) {
	if (Profile{}).Classified() {
		t.Error("zero profile should not report as classified")
	}
	if !(Profile{AnalysisSource: SourceError}).Classified() {
		t.Error("error-annotated profile should report as classified")
	}
}

func TestSubjectJSONNames(t *testing.T) {
	data, err := json.Marshal(Subject{Name: "Frida Kahlo", Sex: "Female", Race: "Hispanic/Latino"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"name":"Frida Kahlo","sex":"Female","race":"Hispanic/Latino"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}
