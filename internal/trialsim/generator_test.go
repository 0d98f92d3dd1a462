package trialsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"godoor/domain/door"
)

func TestGenerate_Default(t *testing.T) {
	trial, err := Generate(DefaultConfig())
	require.NoError(t, err)

	require.Len(t, trial.Records, 1000)
	assert.Equal(t, "T0000", trial.Records[0].PatientID)
	assert.Equal(t, "Drug A", trial.Records[0].Arm)
	assert.Equal(t, "T0499", trial.Records[499].PatientID)
	assert.Equal(t, "C0000", trial.Records[500].PatientID)
	assert.Equal(t, "Placebo", trial.Records[999].Arm)
	assert.Equal(t, CardiovascularOutcomes, trial.Hierarchy.Labels())

	require.NoError(t, trial.Hierarchy.Validate(outcomes(trial.Records)))
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate(DefaultConfig())
	require.NoError(t, err)
	b, err := Generate(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Records, b.Records)

	cfg := DefaultConfig()
	cfg.Seed = 7
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Records, c.Records)
}

func TestGenerate_FollowsProbabilities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Treatment.Size = 20000
	trial, err := Generate(cfg)
	require.NoError(t, err)

	best := 0
	for _, r := range trial.Records[:cfg.Treatment.Size] {
		if r.Outcome == CardiovascularOutcomes[0] {
			best++
		}
	}
	share := float64(best) / float64(cfg.Treatment.Size)
	t.Logf("best-category share: %.4f", share)
	assert.InDelta(t, 0.45, share, 0.02)
}

func TestGenerate_DegenerateArm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Control.Outcomes = []float64{0, 0, 0, 0, 0, 0, 0, 1}
	trial, err := Generate(cfg)
	require.NoError(t, err)
	for _, r := range trial.Records[cfg.Treatment.Size:] {
		assert.Equal(t, "Non-CV death", r.Outcome)
	}
}

func TestGenerate_TreatmentFavoured(t *testing.T) {
	trial, err := Generate(DefaultConfig())
	require.NoError(t, err)

	a, err := door.Analyze(trial.Hierarchy, trial.Records, trial.TreatmentArm, trial.ControlArm)
	require.NoError(t, err)
	t.Logf("win ratio %s, net benefit %.3f, p %.2g", a.Result.WinRatio, a.Result.NetBenefit, a.Result.PValue)

	assert.Equal(t, 1, a.Result.WinRatio.Favors())
	assert.Greater(t, a.Result.NetBenefit, 0.0)
	assert.Less(t, a.Result.PValue, 0.05)
	assert.Equal(t, door.MethodNormal, a.Result.TestMethod)
}

func TestGenerate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"same arm names", func(c *Config) { c.Control.Name = c.Treatment.Name }, "distinct names"},
		{"zero size", func(c *Config) { c.Treatment.Size = 0 }, "size must be > 0"},
		{"wrong length", func(c *Config) { c.Control.Outcomes = []float64{1} }, "1 probabilities for 8 outcomes"},
		{"negative", func(c *Config) { c.Control.Outcomes = []float64{1.1, -0.1, 0, 0, 0, 0, 0, 0} }, "non-negative"},
		{"not normalised", func(c *Config) { c.Control.Outcomes = []float64{0.5, 0, 0, 0, 0, 0, 0, 0} }, "sum to 0.500000"},
		{"duplicate outcome", func(c *Config) { c.Outcomes = []string{"A", "A", "B", "C", "D", "E", "F", "G"} }, "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Outcomes = append([]string(nil), cfg.Outcomes...)
			tt.mutate(&cfg)
			_, err := Generate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func outcomes(records []door.PatientRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Outcome
	}
	return out
}
