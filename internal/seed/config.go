// Package seed generates synthetic critique submissions against a running
// service, for load testing and demos.
package seed

import "time"

// Config holds configuration for the seeding run.
type Config struct {
	BaseURL  string        // Base URL of the service
	NumItems int           // Number of submissions to generate
	Persona  string        // Persona to submit under (empty = service default)
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Enable verbose logging
}

// Stats holds seeding statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Successful int
	Duplicate  int
	Failed     int
	StartTime  time.Time
	Duration   time.Duration
}

// submission mirrors the HTTP schema for POST /critiques.
type submission struct {
	SubmissionID string `json:"submission_id"`
	Persona      string `json:"persona,omitempty"`
	ImageID      string `json:"image_id"`
	MediaType    string `json:"media_type"`
	ImageB64     string `json:"image_b64"`
}

// ackResponse mirrors the submission acknowledgement.
type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}
