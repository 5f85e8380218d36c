package core

import (
	"time"
)

// Status is the terminal state of one URL.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Stage names a step of the per-URL state machine.
type Stage string

const (
	StagePending     Stage = "pending"
	StageFetching    Stage = "fetching"
	StageExtracting  Stage = "extracting"
	StageTranslating Stage = "translating"
	StageWriting     Stage = "writing"
	StageDone        Stage = "done"
)

// PageStats counts what happened to the fragments of one page (or a run).
type PageStats struct {
	Texts      int `json:"texts"`
	Skipped    int `json:"skipped"`
	CacheHits  int `json:"cache_hits"`
	Pending    int `json:"pending"`
	Translated int `json:"translated"`
	Batches    int `json:"batches"`
}

// Add accumulates other into s.
func (s *PageStats) Add(other PageStats) {
	s.Texts += other.Texts
	s.Skipped += other.Skipped
	s.CacheHits += other.CacheHits
	s.Pending += other.Pending
	s.Translated += other.Translated
	s.Batches += other.Batches
}

// Outcome is the result of running one URL through the pipeline.
type Outcome struct {
	Index      int           `json:"-"`
	URL        string        `json:"url"`
	Status     Status        `json:"status"`
	Stage      Stage         `json:"stage"`
	Reason     string        `json:"reason,omitempty"`
	Err        error         `json:"-"`
	SourcePath string        `json:"source_path,omitempty"`
	TargetPath string        `json:"target_path,omitempty"`
	Stats      PageStats     `json:"stats"`
	Duration   time.Duration `json:"duration_ns"`
}

// RunReport aggregates the outcomes of a batch run.
type RunReport struct {
	RunID      string    `json:"run_id"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	DryRun     bool      `json:"dry_run"`
	Aborted    bool      `json:"aborted"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Total     int `json:"total"`
	Processed int `json:"processed"`
	Success   int `json:"success"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	Stats        PageStats `json:"stats"`
	ManifestPath string    `json:"manifest_path,omitempty"`
	Outcomes     []Outcome `json:"outcomes"`
	NotProcessed []string  `json:"not_processed,omitempty"` // never dispatched by an aborted run
}

// Record adds one outcome to the report counters.
func (r *RunReport) Record(o Outcome) {
	r.Processed++
	switch o.Status {
	case StatusSuccess:
		r.Success++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	r.Stats.Add(o.Stats)
	r.Outcomes = append(r.Outcomes, o)
}

// Failures returns the failed outcomes in report order.
func (r *RunReport) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}
