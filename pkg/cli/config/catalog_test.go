package config_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/fairmed-lab/fairmed/pkg/cli/config"
	"github.com/fairmed-lab/fairmed/pkg/domain/model"
	"github.com/fairmed-lab/fairmed/pkg/domain/types"
	"github.com/fairmed-lab/fairmed/pkg/service/gcs"
)

const sepsisYAML = `
scenarios:
  - id: sepsis
    improvement_message: Reweighting closed the gap between wards.
    baseline:
      title: Sepsis Early Warning
      description: Alert rates differ across wards.
      overall_score: 55.0
      metrics:
        statistical_parity: 0.10
        equalized_odds_tpr: 0.10
        equalized_odds_fpr: 0.10
        predictive_parity: 0.10
      groups:
        - name: ICU
          sample_size: 100
          accuracy: 0.9
          tpr: 0.9
          fpr: 0.1
          precision: 0.9
          confusion_matrix: { tn: 45, fp: 5, fn: 5, tp: 45 }
        - name: General Ward
          sample_size: 100
          accuracy: 0.8
          tpr: 0.8
          fpr: 0.2
          precision: 0.8
          confusion_matrix: { tn: 40, fp: 10, fn: 10, tp: 40 }
      flags:
        - type: accuracy_disparity
          severity: high
          message: General ward accuracy is 10 points lower
          value: 0.10
      recommendations:
        - priority: high
          title: Reweight training data
          description: Balance ward representation.
          expected_improvement: 20
          implementation_cost: Low
          timeline: 1 week
    mitigated:
      title: Sepsis Early Warning (reweighted)
      description: Alert rates are balanced.
      overall_score: 85.0
      metrics:
        statistical_parity: 0.01
        equalized_odds_tpr: 0.01
        equalized_odds_fpr: 0.01
        predictive_parity: 0.01
      groups:
        - name: ICU
          sample_size: 100
          accuracy: 0.9
          tpr: 0.9
          fpr: 0.1
          precision: 0.9
          confusion_matrix: { tn: 45, fp: 5, fn: 5, tp: 45 }
        - name: General Ward
          sample_size: 100
          accuracy: 0.9
          tpr: 0.9
          fpr: 0.1
          precision: 0.9
          confusion_matrix: { tn: 45, fp: 5, fn: 5, tp: 45 }
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestDefaultScenarios(t *testing.T) {
	scenarios, err := config.DefaultScenarios()
	gt.NoError(t, err).Required()
	gt.A(t, scenarios).Length(3)

	ids := make([]types.ScenarioID, len(scenarios))
	for i, s := range scenarios {
		ids[i] = s.ID
		gt.NoError(t, s.Validate())
	}
	gt.Value(t, ids).Equal([]types.ScenarioID{
		types.ScenarioDermatology,
		types.ScenarioCardiovascular,
		types.ScenarioPain,
	})

	t.Run("dermatology demonstrates skin tone bias", func(t *testing.T) {
		derm := scenarios[0]
		gt.Bool(t, derm.Baseline.OverallScore < 60).True()
		gt.Bool(t, derm.Mitigated.OverallScore >= 80).True()
		gt.Bool(t, derm.Improvement().BiasScoreChange > 30).True()
		gt.Number(t, len(derm.Baseline.Groups)).GreaterOrEqual(2)
		for _, g := range derm.Baseline.Groups {
			gt.Value(t, g.ConfusionMatrix.Total()).Equal(g.SampleSize)
		}
		gt.A(t, derm.Baseline.Recommendations).Length(3)
	})

	t.Run("every scenario crosses into the fair band", func(t *testing.T) {
		for _, s := range scenarios {
			gt.Value(t, s.Baseline.Band()).NotEqual(types.ScoreBandFair)
			gt.Value(t, s.Mitigated.Band()).Equal(types.ScoreBandFair)
		}
	})
}

func TestLoadCatalog(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		path := writeFile(t, "scenarios.yaml", sepsisYAML)
		scenarios, err := config.LoadCatalog(path)
		gt.NoError(t, err).Required()
		gt.A(t, scenarios).Length(1)

		s := scenarios[0]
		gt.NoError(t, s.Validate())
		gt.Value(t, s.ID).Equal(types.ScenarioID("sepsis"))
		gt.Value(t, s.Baseline.Groups.Names()).Equal([]string{"ICU", "General Ward"})
		gt.Value(t, s.Baseline.Flags[0].Severity).Equal(types.SeverityHigh)
		gt.Value(t, s.Baseline.Recommendations[0].Priority).Equal(types.PriorityHigh)
		gt.Value(t, s.Improvement().BiasScoreChange).Equal(30.0)
	})

	t.Run("yml extension", func(t *testing.T) {
		path := writeFile(t, "scenarios.yml", sepsisYAML)
		_, err := config.LoadCatalog(path)
		gt.NoError(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadCatalog(filepath.Join(t.TempDir(), "missing.toml"))
		gt.Error(t, err).Is(config.ErrCatalogNotFound)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, "scenarios.json", "{}")
		_, err := config.LoadCatalog(path)
		gt.Error(t, err).Is(config.ErrUnsupportedFormat)
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		path := writeFile(t, "scenarios.toml", `
[[scenario]]
id = "sepsis"
improvment_message = "typo"
`)
		_, err := config.LoadCatalog(path)
		gt.Error(t, err).Is(config.ErrInvalidCatalog)
	})

	t.Run("empty catalog", func(t *testing.T) {
		path := writeFile(t, "scenarios.toml", "")
		_, err := config.LoadCatalog(path)
		gt.Error(t, err).Is(config.ErrInvalidCatalog)
	})
}

func TestParseCatalog(t *testing.T) {
	t.Run("unknown severity", func(t *testing.T) {
		data := []byte(`
[[scenario]]
id = "sepsis"

[[scenario.baseline.flags]]
type = "accuracy_disparity"
severity = "critical"
message = "gap"
`)
		_, err := config.ParseCatalog(data, config.FormatTOML)
		gt.Error(t, err).Is(config.ErrInvalidCatalog)

		var ge *goerr.Error
		gt.Bool(t, errors.As(err, &ge)).True()
		gt.S(t, fmt.Sprint(ge.Values()["reason"])).Contains("invalid severity: critical")
	})

	t.Run("unknown priority", func(t *testing.T) {
		data := []byte(`
[[scenario]]
id = "sepsis"

[[scenario.baseline.recommendations]]
priority = "urgent"
title = "Reweight"
`)
		_, err := config.ParseCatalog(data, config.FormatTOML)
		gt.Error(t, err).Is(config.ErrInvalidCatalog)

		var ge *goerr.Error
		gt.Bool(t, errors.As(err, &ge)).True()
		gt.S(t, fmt.Sprint(ge.Values()["reason"])).Contains("invalid priority: urgent")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := config.ParseCatalog([]byte("{}"), "json")
		gt.Error(t, err).Is(config.ErrUnsupportedFormat)
	})
}

type fakeGCS struct {
	objects map[string][]byte
	closed  bool
}

func (x *fakeGCS) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	data, ok := x.objects[bucket+"/"+object]
	if !ok {
		return nil, goerr.Wrap(gcs.ErrObjectNotFound, "no such object")
	}
	return data, nil
}

func (x *fakeGCS) Close() error {
	x.closed = true
	return nil
}

func TestCatalogPath(t *testing.T) {
	gt.Value(t, config.NewCatalogForTest("", nil).Path()).Equal(config.BuiltinCatalogPath)
	gt.Value(t, config.NewCatalogForTest("gs://fairmed-config/scenarios.toml", nil).Path()).
		Equal("gs://fairmed-config/scenarios.toml")
}

func TestCatalogLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("built-in catalog when path is empty", func(t *testing.T) {
		store, err := config.NewCatalogForTest("", nil).Configure(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, store.List(ctx)).Length(3)
	})

	t.Run("cloud storage object", func(t *testing.T) {
		svc := &fakeGCS{objects: map[string][]byte{
			"fairmed-config/demo/scenarios.yaml": []byte(sepsisYAML),
		}}
		store, err := config.NewCatalogForTest("gs://fairmed-config/demo/scenarios.yaml", svc).Configure(ctx)
		gt.NoError(t, err).Required()
		gt.Bool(t, svc.closed).True()

		result, err := store.GetMitigated(ctx, "sepsis")
		gt.NoError(t, err).Required()
		gt.Value(t, result.Title).Equal("Sepsis Early Warning (reweighted)")
	})

	t.Run("missing cloud storage object", func(t *testing.T) {
		svc := &fakeGCS{objects: map[string][]byte{}}
		_, err := config.NewCatalogForTest("gs://fairmed-config/scenarios.toml", svc).Load(ctx)
		gt.Error(t, err).Is(config.ErrCatalogNotFound)
	})

	t.Run("cloud storage object with unsupported extension", func(t *testing.T) {
		svc := &fakeGCS{objects: map[string][]byte{}}
		_, err := config.NewCatalogForTest("gs://fairmed-config/scenarios.json", svc).Load(ctx)
		gt.Error(t, err).Is(config.ErrUnsupportedFormat)
	})

	t.Run("score that does not improve fails store construction", func(t *testing.T) {
		path := writeFile(t, "scenarios.yaml", strings.Replace(sepsisYAML, "overall_score: 85.0", "overall_score: 50.0", 1))
		_, err := config.NewCatalogForTest(path, nil).Configure(ctx)
		gt.Error(t, err).Is(model.ErrScoreNotImproved)
	})

	t.Run("inconsistent confusion matrix fails store construction", func(t *testing.T) {
		path := writeFile(t, "scenarios.yaml", strings.Replace(sepsisYAML, "tp: 45 }", "tp: 40 }", 1))
		_, err := config.NewCatalogForTest(path, nil).Configure(ctx)
		gt.Error(t, err).Is(model.ErrInvalidGroup)
	})
}
