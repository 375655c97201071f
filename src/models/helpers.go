package models

import "fmt"

func ptr[T any](v T) *T {
	return &v
}

// clamp01 clamps a score component into [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}

func errInvalidRankCriteria(r RankCriteria) error {
	return fmt.Errorf("RankCriteria: Validate: invalid rank criteria: %s", r)
}
