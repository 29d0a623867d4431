package profile

import "time"

// Stage names double as cache-key components, so they are part of the
// persisted cache contract and must stay stable.
type Stage string

const (
	StageDraft   Stage = "draft"
	StageFact    Stage = "fact_refine"
	StageInsight Stage = "insight_refine"
)

// Section lifecycle states.
const (
	StatePending         = "pending"
	StateDrafting        = "drafting"
	StateFactRefining    = "fact_refining"
	StateInsightRefining = "insight_refining"
	StateDone            = "done"
	StateFailed          = "failed"
)

// Run lifecycle states.
const (
	RunStatePending               = "pending"
	RunStateRunning               = "running"
	RunStateCompleted             = "completed"
	RunStateCompletedWithFailures = "completed_with_failures"
	RunStateFailed                = "failed"
	RunStateCancelled             = "cancelled"
)

// Failure reasons recorded on a failed section or run.
type FailReason string

const (
	ReasonDependencyFailed FailReason = "dependency_failed"
	ReasonGatewayExhausted FailReason = "gateway_exhausted"
	ReasonContentRejected  FailReason = "content_rejected"
	ReasonMalformed        FailReason = "malformed"
	ReasonCacheCollision   FailReason = "cache_collision"
	ReasonRunCancelled     FailReason = "run_cancelled"
)

// Entry is one finished (or failed) section of the assembled profile.
type Entry struct {
	SectionID  string     `json:"section_id"`
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	Text       string     `json:"text,omitempty"`
	Failed     bool       `json:"failed"`
	FailReason FailReason `json:"fail_reason,omitempty"`
	FailStage  Stage      `json:"fail_stage,omitempty"`
	CacheHits  int        `json:"cache_hits"`
}

// Profile is the final ordered assembly: exactly one entry per catalog
// section, in catalog order, regardless of completion order.
type Profile struct {
	RunID       string    `json:"run_id"`
	CompanyName string    `json:"company_name"`
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (p Profile) FailedCount() int {
	n := 0
	for _, e := range p.Entries {
		if e.Failed {
			n++
		}
	}
	return n
}

type Run struct {
	RunID       string    `json:"run_id"`
	CompanyName string    `json:"company_name"`
	Status      string    `json:"status"`
	InputDir    string    `json:"input_dir,omitempty"`
	BundleFP    string    `json:"bundle_fingerprint,omitempty"`
	ReportPath  string    `json:"report_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SectionStatus struct {
	RunID      string    `json:"run_id"`
	SectionID  string    `json:"section_id"`
	State      string    `json:"state"`
	Stage      Stage     `json:"stage,omitempty"`
	Attempts   int       `json:"attempts"`
	FailReason string    `json:"fail_reason,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
