package workflows

type CaseIngestInput struct {
	CaseID                string `json:"case_id"`
	InputDir              string `json:"input_dir"`
	MaxConcurrentChildren int    `json:"max_concurrent_children"`
	EmbedProviders        int    `json:"embed_providers"`
	LLMProviders          int    `json:"llm_providers"`
	CooldownSeconds       int    `json:"cooldown_seconds"`
	EmbedVersion          string `json:"embed_version"`
}

type DocumentIngestInput struct {
	CaseID                      string `json:"case_id"`
	DocumentPath                string `json:"document_path"`
	EmbedVersion                string `json:"embed_version"`
	EmbedProviders              int    `json:"embed_providers"`
	LLMProviders                int    `json:"llm_providers"`
	PreferredEmbedProviderIndex int    `json:"preferred_embed_provider_index"`
	StrictEmbedProvider         bool   `json:"strict_embed_provider"`
	CooldownSeconds             int    `json:"cooldown_seconds"`
}

type BackfillInput struct {
	CaseID                      string `json:"case_id"`
	Mode                        string `json:"mode"`
	DataInRoot                  string `json:"data_in_root,omitempty"`
	EmbedVersion                string `json:"embed_version,omitempty"`
	EmbedProviders              int    `json:"embed_providers,omitempty"`
	LLMProviders                int    `json:"llm_providers,omitempty"`
	PreferredEmbedProviderIndex int    `json:"preferred_embed_provider_index,omitempty"`
	StrictEmbedProvider         bool   `json:"strict_embed_provider,omitempty"`
	CooldownSeconds             int    `json:"cooldown_seconds,omitempty"`
}

type DocumentStatus struct {
	DocumentID   string            `json:"document_id"`
	DocumentPath string            `json:"document_path"`
	CurrentStep  string            `json:"current_step"`
	Status       string            `json:"status"`
	FailReason   string            `json:"fail_reason,omitempty"`
	Providers    []string          `json:"providers_used"`
	RetryCounts  map[string]int    `json:"retry_counts"`
	Steps        map[string]string `json:"steps"`
}

type CaseIngestProgress struct {
	CaseID        string            `json:"case_id"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerDocument   map[string]string `json:"per_document_status"`
	ChildWorkflow map[string]string `json:"child_workflow_ids,omitempty"`
}
