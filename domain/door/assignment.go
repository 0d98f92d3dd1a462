package door

// PatientRecord is one input row: an opaque patient, the arm they were
// randomised to and the raw outcome label.
type PatientRecord struct {
	PatientID string `json:"patient_id"`
	Arm       string `json:"arm"`
	Outcome   string `json:"outcome"`
}

// Assignment is a record with its outcome resolved to a hierarchy rank.
type Assignment struct {
	PatientRecord
	Rank int `json:"rank"`
}

// Assign resolves every record's outcome. All records are checked before
// failing so the error names the complete set of unknown outcomes.
func Assign(h *Hierarchy, records []PatientRecord) ([]Assignment, error) {
	labels := make([]string, len(records))
	for i, rec := range records {
		labels[i] = rec.Outcome
	}
	ranks, err := h.RankAll(labels)
	if err != nil {
		return nil, err
	}

	out := make([]Assignment, len(records))
	for i, rec := range records {
		out[i] = Assignment{PatientRecord: rec, Rank: ranks[i]}
	}
	return out, nil
}

// RanksFor returns the ranks of the patients in arm, in input order.
func RanksFor(assignments []Assignment, arm string) []int {
	var ranks []int
	for _, a := range assignments {
		if a.Arm == arm {
			ranks = append(ranks, a.Rank)
		}
	}
	return ranks
}

// Arms lists the distinct arms in order of first appearance.
func Arms(records []PatientRecord) []string {
	seen := make(map[string]bool)
	var arms []string
	for _, rec := range records {
		if !seen[rec.Arm] {
			seen[rec.Arm] = true
			arms = append(arms, rec.Arm)
		}
	}
	return arms
}
