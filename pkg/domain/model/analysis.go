package model

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/fairmed-lab/fairmed/pkg/domain/types"
)

// ConfusionMatrix holds raw prediction counts for one demographic group
type ConfusionMatrix struct {
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TP int `json:"tp"`
}

// Total returns the number of samples counted by the matrix
func (m ConfusionMatrix) Total() int {
	return m.TN + m.FP + m.FN + m.TP
}

// DemographicGroup is the per-subgroup performance breakdown of a model
type DemographicGroup struct {
	Name            string          `json:"group"`
	SampleSize      int             `json:"sample_size"`
	Accuracy        float64         `json:"accuracy"`
	TPR             float64         `json:"tpr"`
	FPR             float64         `json:"fpr"`
	Precision       float64         `json:"precision"`
	ConfusionMatrix ConfusionMatrix `json:"confusion_matrix"`
}

// GroupSet is an ordered mapping from group name to DemographicGroup.
// It is encoded as a JSON object whose keys keep insertion order, which is
// also the order clients present the groups in.
type GroupSet []DemographicGroup

// Get looks up a group by name
func (g GroupSet) Get(name string) (DemographicGroup, bool) {
	for _, group := range g {
		if group.Name == name {
			return group, true
		}
	}
	return DemographicGroup{}, false
}

// Names returns group names in presentation order
func (g GroupSet) Names() []string {
	names := make([]string, len(g))
	for i, group := range g {
		names[i] = group.Name
	}
	return names
}

// MarshalJSON encodes the set as a JSON object in insertion order
func (g GroupSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(group.Name)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal group name", goerr.V(GroupKey, group.Name))
		}
		value, err := json.Marshal(group)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal group", goerr.V(GroupKey, group.Name))
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order
func (g *GroupSet) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*g = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return goerr.Wrap(err, "failed to read groups")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return goerr.New("groups must be a JSON object")
	}

	var groups GroupSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return goerr.Wrap(err, "failed to read group name")
		}
		key, ok := keyTok.(string)
		if !ok {
			return goerr.New("group name must be a string", goerr.V(GroupKey, keyTok))
		}

		var group DemographicGroup
		if err := dec.Decode(&group); err != nil {
			return goerr.Wrap(err, "failed to decode group", goerr.V(GroupKey, key))
		}
		if group.Name == "" {
			group.Name = key
		}
		groups = append(groups, group)
	}

	if _, err := dec.Token(); err != nil {
		return goerr.Wrap(err, "failed to read end of groups")
	}

	*g = groups
	return nil
}

// FairnessMetrics quantifies disparities between groups. Zero is perfectly fair.
type FairnessMetrics struct {
	StatisticalParity float64 `json:"statistical_parity"`
	EqualizedOddsTPR  float64 `json:"equalized_odds_tpr"`
	EqualizedOddsFPR  float64 `json:"equalized_odds_fpr"`
	PredictiveParity  float64 `json:"predictive_parity"`
}

// BiasFlag is a warning raised for a disparity exceeding the threshold
type BiasFlag struct {
	Type     string         `json:"type"`
	Severity types.Severity `json:"severity"`
	Message  string         `json:"message"`
	Value    float64        `json:"value"`
}

// Recommendation is a mitigation strategy presented to the user. It is a
// label only; nothing executes it.
type Recommendation struct {
	Priority            types.Priority `json:"priority"`
	Title               string         `json:"title"`
	Description         string         `json:"description"`
	ExpectedImprovement float64        `json:"expected_improvement"`
	ImplementationCost  string         `json:"implementation_cost"`
	Timeline            string         `json:"timeline"`
}

// Improvement summarises the change between baseline and mitigated results
type Improvement struct {
	BiasScoreChange            float64 `json:"bias_score_change"`
	AccuracyDisparityReduction float64 `json:"accuracy_disparity_reduction"`
	Message                    string  `json:"message"`
}

// AnalysisResult is the unit returned by analyze and mitigate
type AnalysisResult struct {
	Scenario        types.ScenarioID `json:"scenario"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	OverallScore    float64          `json:"overall_score"`
	Groups          GroupSet         `json:"groups"`
	Metrics         FairnessMetrics  `json:"metrics"`
	Flags           []BiasFlag       `json:"flags"`
	Recommendations []Recommendation `json:"recommendations"`
	Mitigated       bool             `json:"mitigated"`
	Improvement     *Improvement     `json:"improvement,omitempty"`
}

// Clone returns a deep copy. Slices of the copy are never nil so that they
// encode as empty JSON arrays.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}

	cloned := *r
	cloned.Groups = append(make(GroupSet, 0, len(r.Groups)), r.Groups...)
	cloned.Flags = append(make([]BiasFlag, 0, len(r.Flags)), r.Flags...)
	cloned.Recommendations = append(make([]Recommendation, 0, len(r.Recommendations)), r.Recommendations...)
	if r.Improvement != nil {
		improvement := *r.Improvement
		cloned.Improvement = &improvement
	}
	return &cloned
}

// Band returns the score band of the result
func (r *AnalysisResult) Band() types.ScoreBand {
	return types.BandOf(r.OverallScore)
}

// round strips float noise such as 42.099999999999994 from derived values
func round(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
