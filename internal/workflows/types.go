package workflows

type ProfileBuildInput struct {
	RunID                 string              `json:"run_id"`
	InputDir              string              `json:"input_dir"`
	Sections              []string            `json:"sections,omitempty"`
	Dependencies          map[string][]string `json:"dependencies,omitempty"`
	MaxConcurrentSections int                 `json:"max_concurrent_sections"`
	MaxGatewayAttempts    int                 `json:"max_gateway_attempts"`
	RetryInitialSeconds   int                 `json:"retry_initial_seconds"`
	MaxBundleBytes        int                 `json:"max_bundle_bytes"`
	MaxRunesPerDoc        int                 `json:"max_runes_per_doc"`
	Provider              string              `json:"provider,omitempty"`
}

type SectionDependency struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type SectionPipelineInput struct {
	RunID               string              `json:"run_id"`
	SectionID           string              `json:"section_id"`
	SectionNumber       int                 `json:"section_number"`
	SectionTitle        string              `json:"section_title"`
	SectionSpecs        string              `json:"section_specs"`
	CompanyName         string              `json:"company_name"`
	BundleFP            string              `json:"bundle_fp"`
	Context             []string            `json:"context"`
	Dependencies        []SectionDependency `json:"dependencies,omitempty"`
	MaxGatewayAttempts  int                 `json:"max_gateway_attempts"`
	RetryInitialSeconds int                 `json:"retry_initial_seconds"`
	Provider            string              `json:"provider,omitempty"`
}

type SectionPipelineResult struct {
	SectionID  string `json:"section_id"`
	State      string `json:"state"`
	Text       string `json:"text,omitempty"`
	FailReason string `json:"fail_reason,omitempty"`
	FailStage  string `json:"fail_stage,omitempty"`
	CacheHits  int    `json:"cache_hits"`
	Attempts   int    `json:"attempts"`
}

type ProfileProgress struct {
	RunID         string            `json:"run_id"`
	CompanyName   string            `json:"company_name"`
	Status        string            `json:"status"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerSection    map[string]string `json:"per_section_state"`
	ChildWorkflow map[string]string `json:"child_workflow_ids,omitempty"`
	ReportPath    string            `json:"report_path,omitempty"`
}

type SectionProgress struct {
	RunID        string `json:"run_id"`
	SectionID    string `json:"section_id"`
	State        string `json:"state"`
	CurrentStage string `json:"current_stage,omitempty"`
	Attempts     int    `json:"attempts"`
	CacheHits    int    `json:"cache_hits"`
	FailReason   string `json:"fail_reason,omitempty"`
}
