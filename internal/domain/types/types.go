// Package types contains common read shapes used across the application.
package types

import (
	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
)

// PersonaInfo describes a configured curation persona.
type PersonaInfo struct {
	Name        string                   `json:"name"`
	Dimensions  []registry.DimensionSpec `json:"dimensions"`
	Penalties   map[string]float64       `json:"penalties"`
	Thresholds  scoring.Thresholds       `json:"thresholds"`
	CompareKeys []string                 `json:"compare_keys"`
	TiebreakKey string                   `json:"tiebreak_key"`
}

// BatchResult is the outcome of a synchronous batch evaluation: every
// scored item in submission order plus the ranked top candidates.
type BatchResult struct {
	Persona string               `json:"persona"`
	Items   []scoring.ScoredItem `json:"items"`
	Ranked  []scoring.ScoredItem `json:"ranked"`
}
