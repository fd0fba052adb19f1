// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobStatus is the outcome of one annotation request.
type JobStatus string

const (
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job records the metadata of one annotation request. Document bytes are
// never stored.
type Job struct {
	ID          string        `json:"id" yaml:"id"`
	Filename    string        `json:"filename" yaml:"filename"`
	Backend     string        `json:"backend" yaml:"backend"`
	Model       string        `json:"model,omitempty" yaml:"model,omitempty"`
	Pages       int           `json:"pages" yaml:"pages"`
	Annotations int           `json:"annotations" yaml:"annotations"`
	Highlights  int           `json:"highlights" yaml:"highlights"`
	Status      JobStatus     `json:"status" yaml:"status"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at" yaml:"started_at"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}
