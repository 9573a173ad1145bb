package model

import (
	"errors"
	"time"
)

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobError   JobStatus = "error"
)

var ErrNotFound = errors.New("not found")

// Tool is an analysis tool exposed on the site. Each tool owns a namespace
// under the media root (lda_results/tool_<id>/...).
type Tool struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Job records one LDA run against a tool.
//
// - JobDir is the media-root-relative job directory.
// - ArtifactPaths are media-root-relative, forward-slash paths.
type Job struct {
	ID            string    `json:"id"`
	ToolID        int64     `json:"toolId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Status        JobStatus `json:"status"`
	InputName     string    `json:"inputName"`
	JobDir        string    `json:"jobDir"`
	Answer        string    `json:"answer,omitempty"`
	ArtifactPaths []string  `json:"artifactPaths,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// JobPatch is used for partial updates.
type JobPatch struct {
	Status        *string
	Answer        *string
	ArtifactPaths []string
	Error         *string
}
