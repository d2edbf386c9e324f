// Package record holds the data types shared by both analysis pipelines and
// the sentinel errors they report.
package record

import "errors"

var (
	// ErrNoResults indicates a lookup that returned no usable content.
	ErrNoResults = errors.New("no results found")

	// ErrNoAPIKey indicates a classification attempt without a credential.
	ErrNoAPIKey = errors.New("no API key configured")
)

// Subject is a single named person analyzed through the Wikipedia pipeline.
type Subject struct {
	Name string `json:"name"`
	Sex  string `json:"sex"`
	Race string `json:"race"`
}

// Gender is a model-assigned gender label.
type Gender string

// Gender values.
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Ethnicity is a model-assigned ethnicity label from a fixed closed set.
type Ethnicity string

// Ethnicity values.
const (
	EthnicityEastAsian     Ethnicity = "east_asian"
	EthnicitySouthAsian    Ethnicity = "south_asian"
	EthnicityHispanic      Ethnicity = "hispanic"
	EthnicityBlack         Ethnicity = "black"
	EthnicityMiddleEastern Ethnicity = "middle_eastern"
	EthnicityWhite         Ethnicity = "white"
	EthnicityOther         Ethnicity = "other"
	EthnicityUnknown       Ethnicity = "unknown"
)

// Confidence grades how sure the classifier is about an annotation.
type Confidence string

// Confidence values.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// Source records which mechanism produced an annotation.
type Source string

// Source values.
const (
	SourceHeuristic Source = "heuristic"
	SourceModel     Source = "model"
	SourceError     Source = "error"
)

// Profile is one related-profile record from a social export, optionally
// annotated by the bulk classifier. The JSON names mirror the export format
// so parsed and emitted records line up field for field.
type Profile struct {
	Username        string     `json:"username"`
	FullName        string     `json:"full_name"`
	ProfilePicURL   string     `json:"profile_pic_url"`
	PredictedGender Gender     `json:"predicted_gender,omitempty"`
	PredictedRace   Ethnicity  `json:"predicted_race,omitempty"`
	Confidence      Confidence `json:"confidence,omitempty"`
	AnalysisSource  Source     `json:"analysis_source,omitempty"`
}

// Classified reports whether the profile carries any annotation at all.
func (p Profile) Classified() bool {
	return p.AnalysisSource != ""
}
