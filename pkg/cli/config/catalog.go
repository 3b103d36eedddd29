package config

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/fairmed-lab/fairmed/pkg/domain/model"
	"github.com/fairmed-lab/fairmed/pkg/domain/types"
	"github.com/fairmed-lab/fairmed/pkg/repository/memory"
	"github.com/fairmed-lab/fairmed/pkg/service/gcs"
	"github.com/fairmed-lab/fairmed/pkg/utils/logging"
	"github.com/fairmed-lab/fairmed/pkg/utils/safe"
)

//go:embed default_scenarios.toml
var defaultCatalog []byte

// BuiltinCatalogPath names the embedded catalog in logs
const BuiltinCatalogPath = "built-in"

// Catalog formats
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Catalog holds CLI flags selecting the scenario catalog
type Catalog struct {
	path        string
	gcsEndpoint string

	newGCS func(ctx context.Context, endpoint string) (gcs.Service, error)
}

// Flags returns CLI flags for catalog configuration
func (c *Catalog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "scenarios",
			Usage:       "Scenario catalog (.toml, .yaml or gs://bucket/object). Built-in demo scenarios are used when empty",
			Sources:     cli.EnvVars("FAIRMED_SCENARIOS"),
			Destination: &c.path,
		},
		&cli.StringFlag{
			Name:        "gcs-endpoint",
			Usage:       "Cloud Storage API endpoint override (e.g. emulator URL)",
			Category:    "Cloud Storage",
			Sources:     cli.EnvVars("FAIRMED_GCS_ENDPOINT"),
			Destination: &c.gcsEndpoint,
		},
	}
}

// Path returns the configured catalog location
func (c *Catalog) Path() string {
	if c.path == "" {
		return BuiltinCatalogPath
	}
	return c.path
}

// Load reads and parses the configured catalog
func (c *Catalog) Load(ctx context.Context) ([]*model.Scenario, error) {
	switch {
	case c.path == "":
		logging.Default().Info("Using built-in scenario catalog")
		return DefaultScenarios()

	case gcs.IsURL(c.path):
		return c.loadFromGCS(ctx)

	default:
		logging.Default().Info("Loading scenario catalog", "path", c.path)
		return LoadCatalog(c.path)
	}
}

// Configure loads the catalog and builds the scenario store. It fails if any
// scenario is invalid.
func (c *Catalog) Configure(ctx context.Context) (*memory.ScenarioStore, error) {
	scenarios, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}

	store, err := memory.NewScenarioStore(scenarios)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build scenario store", goerr.V(CatalogPathKey, c.path))
	}

	logging.Default().Info("Scenario store ready", "scenario_count", len(scenarios))
	return store, nil
}

func (c *Catalog) loadFromGCS(ctx context.Context) ([]*model.Scenario, error) {
	bucket, object, err := gcs.ParseURL(c.path)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid catalog URL", goerr.V(CatalogPathKey, c.path))
	}

	format, err := formatOf(object)
	if err != nil {
		return nil, goerr.Wrap(err, "cannot determine catalog format", goerr.V(CatalogPathKey, c.path))
	}

	newGCS := c.newGCS
	if newGCS == nil {
		newGCS = gcs.New
	}
	svc, err := newGCS(ctx, c.gcsEndpoint)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize Cloud Storage service")
	}
	defer safe.Close(ctx, svc)

	logging.Default().Info("Loading scenario catalog from Cloud Storage", "bucket", bucket, "object", object)
	data, err := svc.Read(ctx, bucket, object)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return nil, goerr.Wrap(ErrCatalogNotFound, "catalog object not found",
				goerr.V(CatalogPathKey, c.path), goerr.V("reason", err.Error()))
		}
		return nil, goerr.Wrap(err, "failed to read catalog", goerr.V(CatalogPathKey, c.path))
	}

	scenarios, err := ParseCatalog(data, format)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse catalog", goerr.V(CatalogPathKey, c.path))
	}
	return scenarios, nil
}

// DefaultScenarios returns the built-in demo scenarios
func DefaultScenarios() ([]*model.Scenario, error) {
	scenarios, err := ParseCatalog(defaultCatalog, FormatTOML)
	if err != nil {
		return nil, goerr.Wrap(err, "built-in catalog is invalid")
	}
	return scenarios, nil
}

// LoadCatalog loads a scenario catalog from a local TOML or YAML file
func LoadCatalog(path string) ([]*model.Scenario, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, goerr.Wrap(err, "cannot determine catalog format", goerr.V(CatalogPathKey, path))
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrCatalogNotFound, "catalog file does not exist", goerr.V(CatalogPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read catalog file", goerr.V(CatalogPathKey, path))
	}

	scenarios, err := ParseCatalog(data, format)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse catalog", goerr.V(CatalogPathKey, path))
	}
	return scenarios, nil
}

// ParseCatalog decodes catalog data in the given format. Unknown keys are
// rejected so that typos do not silently drop data.
func ParseCatalog(data []byte, format string) ([]*model.Scenario, error) {
	var file CatalogFile

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, goerr.Wrap(ErrInvalidCatalog, "failed to parse TOML catalog", goerr.V("reason", err.Error()))
		}

	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, goerr.Wrap(ErrInvalidCatalog, "failed to parse YAML catalog", goerr.V("reason", err.Error()))
		}

	default:
		return nil, goerr.Wrap(ErrUnsupportedFormat, "unknown catalog format", goerr.V(FormatKey, format))
	}

	return file.ToDomain()
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", goerr.Wrap(ErrUnsupportedFormat, "catalog must be .toml, .yaml or .yml", goerr.V(CatalogPathKey, path))
	}
}

// CatalogFile is the on-disk representation of a scenario catalog
type CatalogFile struct {
	Scenarios []ScenarioConfig `toml:"scenario" yaml:"scenarios"`
}

// ScenarioConfig represents one scenario in the catalog
type ScenarioConfig struct {
	ID                 string       `toml:"id" yaml:"id"`
	ImprovementMessage string       `toml:"improvement_message" yaml:"improvement_message"`
	Baseline           RecordConfig `toml:"baseline" yaml:"baseline"`
	Mitigated          RecordConfig `toml:"mitigated" yaml:"mitigated"`
}

// RecordConfig represents an analysis record before or after mitigation
type RecordConfig struct {
	Title           string                 `toml:"title" yaml:"title"`
	Description     string                 `toml:"description" yaml:"description"`
	OverallScore    float64                `toml:"overall_score" yaml:"overall_score"`
	Metrics         MetricsConfig          `toml:"metrics" yaml:"metrics"`
	Groups          []GroupConfig          `toml:"groups" yaml:"groups"`
	Flags           []FlagConfig           `toml:"flags" yaml:"flags"`
	Recommendations []RecommendationConfig `toml:"recommendations" yaml:"recommendations"`
}

// MetricsConfig represents fairness metrics
type MetricsConfig struct {
	StatisticalParity float64 `toml:"statistical_parity" yaml:"statistical_parity"`
	EqualizedOddsTPR  float64 `toml:"equalized_odds_tpr" yaml:"equalized_odds_tpr"`
	EqualizedOddsFPR  float64 `toml:"equalized_odds_fpr" yaml:"equalized_odds_fpr"`
	PredictiveParity  float64 `toml:"predictive_parity" yaml:"predictive_parity"`
}

// GroupConfig represents a demographic group
type GroupConfig struct {
	Name            string                `toml:"name" yaml:"name"`
	SampleSize      int                   `toml:"sample_size" yaml:"sample_size"`
	Accuracy        float64               `toml:"accuracy" yaml:"accuracy"`
	TPR             float64               `toml:"tpr" yaml:"tpr"`
	FPR             float64               `toml:"fpr" yaml:"fpr"`
	Precision       float64               `toml:"precision" yaml:"precision"`
	ConfusionMatrix ConfusionMatrixConfig `toml:"confusion_matrix" yaml:"confusion_matrix"`
}

// ConfusionMatrixConfig represents raw prediction counts
type ConfusionMatrixConfig struct {
	TN int `toml:"tn" yaml:"tn"`
	FP int `toml:"fp" yaml:"fp"`
	FN int `toml:"fn" yaml:"fn"`
	TP int `toml:"tp" yaml:"tp"`
}

// FlagConfig represents a bias flag
type FlagConfig struct {
	Type     string  `toml:"type" yaml:"type"`
	Severity string  `toml:"severity" yaml:"severity"`
	Message  string  `toml:"message" yaml:"message"`
	Value    float64 `toml:"value" yaml:"value"`
}

// RecommendationConfig represents a mitigation recommendation
type RecommendationConfig struct {
	Priority            string  `toml:"priority" yaml:"priority"`
	Title               string  `toml:"title" yaml:"title"`
	Description         string  `toml:"description" yaml:"description"`
	ExpectedImprovement float64 `toml:"expected_improvement" yaml:"expected_improvement"`
	ImplementationCost  string  `toml:"implementation_cost" yaml:"implementation_cost"`
	Timeline            string  `toml:"timeline" yaml:"timeline"`
}

// ToDomain converts the catalog to domain scenarios. Only enum fields are
// checked here; record consistency is checked when the store is built.
func (f *CatalogFile) ToDomain() ([]*model.Scenario, error) {
	if len(f.Scenarios) == 0 {
		return nil, goerr.Wrap(ErrInvalidCatalog, "catalog contains no scenarios")
	}

	scenarios := make([]*model.Scenario, len(f.Scenarios))
	for i, sc := range f.Scenarios {
		id := types.ScenarioID(sc.ID)

		baseline, err := sc.Baseline.toDomain(id)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid baseline", goerr.V(ScenarioIDKey, sc.ID))
		}
		mitigated, err := sc.Mitigated.toDomain(id)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid mitigated record", goerr.V(ScenarioIDKey, sc.ID))
		}

		scenarios[i] = &model.Scenario{
			ID:                 id,
			Baseline:           baseline,
			Mitigated:          mitigated,
			ImprovementMessage: sc.ImprovementMessage,
		}
	}

	return scenarios, nil
}

func (r *RecordConfig) toDomain(id types.ScenarioID) (*model.AnalysisResult, error) {
	groups := make(model.GroupSet, len(r.Groups))
	for i, g := range r.Groups {
		groups[i] = model.DemographicGroup{
			Name:       g.Name,
			SampleSize: g.SampleSize,
			Accuracy:   g.Accuracy,
			TPR:        g.TPR,
			FPR:        g.FPR,
			Precision:  g.Precision,
			ConfusionMatrix: model.ConfusionMatrix{
				TN: g.ConfusionMatrix.TN,
				FP: g.ConfusionMatrix.FP,
				FN: g.ConfusionMatrix.FN,
				TP: g.ConfusionMatrix.TP,
			},
		}
	}

	flags := make([]model.BiasFlag, len(r.Flags))
	for i, f := range r.Flags {
		severity, err := types.ParseSeverity(f.Severity)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidCatalog, "invalid flag severity",
				goerr.V("flag_index", i), goerr.V("severity", f.Severity), goerr.V("reason", err.Error()))
		}
		flags[i] = model.BiasFlag{
			Type:     f.Type,
			Severity: severity,
			Message:  f.Message,
			Value:    f.Value,
		}
	}

	recommendations := make([]model.Recommendation, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		priority, err := types.ParsePriority(rec.Priority)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidCatalog, "invalid recommendation priority",
				goerr.V("recommendation_index", i), goerr.V("priority", rec.Priority), goerr.V("reason", err.Error()))
		}
		recommendations[i] = model.Recommendation{
			Priority:            priority,
			Title:               rec.Title,
			Description:         rec.Description,
			ExpectedImprovement: rec.ExpectedImprovement,
			ImplementationCost:  rec.ImplementationCost,
			Timeline:            rec.Timeline,
		}
	}

	return &model.AnalysisResult{
		Scenario:     id,
		Title:        r.Title,
		Description:  r.Description,
		OverallScore: r.OverallScore,
		Groups:       groups,
		Metrics: model.FairnessMetrics{
			StatisticalParity: r.Metrics.StatisticalParity,
			EqualizedOddsTPR:  r.Metrics.EqualizedOddsTPR,
			EqualizedOddsFPR:  r.Metrics.EqualizedOddsFPR,
			PredictiveParity:  r.Metrics.PredictiveParity,
		},
		Flags:           flags,
		Recommendations: recommendations,
	}, nil
}
