package activities

type BuildBundleInput struct {
	RunID          string `json:"run_id"`
	InputDir       string `json:"input_dir"`
	MaxBundleBytes int    `json:"max_bundle_bytes"`
	MaxRunesPerDoc int    `json:"max_runes_per_doc"`
}

type BuildBundleOutput struct {
	CompanyName   string   `json:"company_name"`
	BundleFP      string   `json:"bundle_fp"`
	DocumentCount int      `json:"document_count"`
	TotalBytes    int      `json:"total_bytes"`
	Context       []string `json:"context"`
}

type CacheLookupInput struct {
	Key string `json:"key"`
}

type CacheLookupOutput struct {
	Text string `json:"text"`
	Hit  bool   `json:"hit"`
}

type CacheWriteInput struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

type LLMGenerateInput struct {
	Operation   string   `json:"operation"`
	RunID       string   `json:"run_id"`
	SectionID   string   `json:"section_id"`
	Prompt      string   `json:"prompt"`
	Context     []string `json:"context"`
	Temperature float64  `json:"temperature"`
	Provider    string   `json:"provider,omitempty"`
}

type LLMGenerateOutput struct {
	Text         string `json:"text"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
}

type UpdateSectionStatusInput struct {
	RunID      string `json:"run_id"`
	SectionID  string `json:"section_id"`
	State      string `json:"state"`
	Stage      string `json:"stage,omitempty"`
	Attempts   int    `json:"attempts"`
	FailReason string `json:"fail_reason,omitempty"`
}

type UpdateRunInput struct {
	RunID       string `json:"run_id"`
	CompanyName string `json:"company_name,omitempty"`
	Status      string `json:"status,omitempty"`
	BundleFP    string `json:"bundle_fp,omitempty"`
	ReportPath  string `json:"report_path,omitempty"`
}

type WriteProfileInput struct {
	RunID       string               `json:"run_id"`
	CompanyName string               `json:"company_name"`
	Entries     []WriteProfileEntry  `json:"entries"`
}

type WriteProfileEntry struct {
	SectionID  string `json:"section_id"`
	Number     int    `json:"number"`
	Title      string `json:"title"`
	Text       string `json:"text,omitempty"`
	Failed     bool   `json:"failed"`
	FailReason string `json:"fail_reason,omitempty"`
	FailStage  string `json:"fail_stage,omitempty"`
	CacheHits  int    `json:"cache_hits"`
}

type WriteProfileOutput struct {
	ReportPath  string `json:"report_path"`
	ProfilePath string `json:"profile_path"`
}

type LogModelCallInput struct {
	CallID       string `json:"call_id"`
	RunID        string `json:"run_id"`
	SectionID    string `json:"section_id"`
	Stage        string `json:"stage"`
	Attempt      int    `json:"attempt"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	CacheHit     bool   `json:"cache_hit"`
	Status       string `json:"status"`
	ErrorKind    string `json:"error_kind,omitempty"`
}

type ListFailedSectionsInput struct {
	RunID string `json:"run_id"`
}

type FailedSection struct {
	SectionID  string `json:"section_id"`
	FailReason string `json:"fail_reason,omitempty"`
}

type ListFailedSectionsOutput struct {
	Sections []FailedSection `json:"sections"`
}
