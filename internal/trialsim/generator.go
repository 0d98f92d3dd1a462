// Package trialsim generates synthetic two-arm trials with categorical
// outcomes, for demonstrations and tests of the DOOR pipeline.
package trialsim

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"godoor/domain/door"
)

// CardiovascularOutcomes is the example hierarchy of a cardiovascular trial
// balancing ischaemic events against bleeding, best first.
var CardiovascularOutcomes = []string{
	"Alive, no CV event, no bleed",
	"Alive, no CV event, minor bleed",
	"Alive, minor CV event, no bleed",
	"Alive, major CV event recovered",
	"Alive, no CV event, major bleed",
	"Alive, major CV event + major bleed",
	"CV death",
	"Non-CV death",
}

// Arm describes one simulated arm.
type Arm struct {
	Name     string
	Prefix   string // patient ID prefix
	Size     int
	Outcomes []float64 // probability of each hierarchy category
}

// Config seeds the generator and describes both arms over one hierarchy.
type Config struct {
	Seed      int64
	Outcomes  []string
	Treatment Arm
	Control   Arm
}

// DefaultConfig simulates Drug A against Placebo, 500 patients each, with
// the treatment arm shifted towards the better categories.
func DefaultConfig() Config {
	return Config{
		Seed:     42,
		Outcomes: CardiovascularOutcomes,
		Treatment: Arm{
			Name:     "Drug A",
			Prefix:   "T",
			Size:     500,
			Outcomes: []float64{0.45, 0.15, 0.12, 0.10, 0.08, 0.05, 0.03, 0.02},
		},
		Control: Arm{
			Name:     "Placebo",
			Prefix:   "C",
			Size:     500,
			Outcomes: []float64{0.35, 0.12, 0.10, 0.12, 0.10, 0.08, 0.08, 0.05},
		},
	}
}

// Trial is a generated dataset together with its hierarchy.
type Trial struct {
	Hierarchy    *door.Hierarchy
	Records      []door.PatientRecord
	TreatmentArm string
	ControlArm   string
}

// Generate draws each patient's outcome from their arm's category
// probabilities. The same Config always yields the same trial.
func Generate(cfg Config) (*Trial, error) {
	h, err := door.NewHierarchy(cfg.Outcomes)
	if err != nil {
		return nil, err
	}
	if cfg.Treatment.Name == cfg.Control.Name {
		return nil, fmt.Errorf("arms must have distinct names, both are %q", cfg.Treatment.Name)
	}
	for _, arm := range []Arm{cfg.Treatment, cfg.Control} {
		if err := validateArm(arm, len(cfg.Outcomes)); err != nil {
			return nil, err
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	records := make([]door.PatientRecord, 0, cfg.Treatment.Size+cfg.Control.Size)
	for _, arm := range []Arm{cfg.Treatment, cfg.Control} {
		cdf := make([]float64, len(arm.Outcomes))
		floats.CumSum(cdf, arm.Outcomes)
		cdf[len(cdf)-1] = 1 // absorb rounding so every draw lands in a category

		for i := 0; i < arm.Size; i++ {
			u := rng.Float64()
			category := sort.Search(len(cdf), func(k int) bool { return cdf[k] > u })
			records = append(records, door.PatientRecord{
				PatientID: fmt.Sprintf("%s%04d", arm.Prefix, i),
				Arm:       arm.Name,
				Outcome:   cfg.Outcomes[category],
			})
		}
	}

	return &Trial{
		Hierarchy:    h,
		Records:      records,
		TreatmentArm: cfg.Treatment.Name,
		ControlArm:   cfg.Control.Name,
	}, nil
}

func validateArm(arm Arm, categories int) error {
	if arm.Name == "" {
		return fmt.Errorf("arm name must not be empty")
	}
	if arm.Size <= 0 {
		return fmt.Errorf("arm %q: size must be > 0", arm.Name)
	}
	if len(arm.Outcomes) != categories {
		return fmt.Errorf("arm %q: %d probabilities for %d outcomes", arm.Name, len(arm.Outcomes), categories)
	}
	if floats.Min(arm.Outcomes) < 0 {
		return fmt.Errorf("arm %q: probabilities must be non-negative", arm.Name)
	}
	if sum := floats.Sum(arm.Outcomes); !scalar.EqualWithinAbs(sum, 1, 1e-6) {
		return fmt.Errorf("arm %q: probabilities sum to %.6f, expected 1", arm.Name, sum)
	}
	return nil
}
