// Package model contains domain models passed between layers.
package model

import "time"

// Submission represents a single image submitted for critique.
// Fields mirror the HTTP schema for /critiques.
type Submission struct {
	SubmissionID string    // unique id for idempotency
	Persona      string    // curation persona to evaluate with
	ImageID      string    // caller-supplied image identifier
	MediaType    string    // e.g. "image/jpeg", "image/png"
	ImageData    []byte    // decoded image bytes
	ReceivedAt   time.Time // submission timestamp
}
