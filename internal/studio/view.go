package studio

import (
	"time"

	"github.com/JaimeStill/roomset/internal/workflow"
	"github.com/JaimeStill/roomset/pkg/formatting"
)

// Status lines shown next to the generate button.
const (
	StatusReady    = "Ready to generate"
	StatusNoChoice = "Select a style or enter custom prompt"
)

// ResultView is a result with the links a client needs to act on it.
type ResultView struct {
	workflow.Result
	DownloadName string `json:"download_name"`
	ViewURL      string `json:"view_url"`
	DownloadURL  string `json:"download_url"`
}

// StateView is the client-facing projection of a controller state.
type StateView struct {
	Version         uint64                 `json:"version"`
	Step            workflow.Step          `json:"step"`
	Product         *workflow.ProductImage `json:"product,omitempty"`
	Preset          string                 `json:"preset"`
	Prompt          string                 `json:"prompt"`
	PromptLength    int                    `json:"prompt_length"`
	MaxPromptLength int                    `json:"max_prompt_length"`
	Uploading       bool                   `json:"uploading"`
	Generating      bool                   `json:"generating"`
	GeneratingSince *time.Time             `json:"generating_since,omitempty"`
	CanGenerate     bool                   `json:"can_generate"`
	Status          string                 `json:"status"`
	Results         []ResultView           `json:"results"`
}

// NewStateView projects s for clients. apiPath prefixes result links.
func NewStateView(s workflow.State, apiPath string) StateView {
	v := StateView{
		Version:         s.Version,
		Step:            s.Step,
		Product:         s.Product,
		Preset:          s.Preset,
		Prompt:          s.Prompt,
		PromptLength:    formatting.RuneCount(s.Prompt),
		MaxPromptLength: workflow.MaxPromptLength,
		Uploading:       s.Uploading,
		Generating:      s.Generating(),
		CanGenerate:     s.CanGenerate(),
		Status:          StatusNoChoice,
		Results:         make([]ResultView, len(s.Results)),
	}
	if s.Choice() != "" {
		v.Status = StatusReady
	}
	if s.Pending != nil {
		started := s.Pending.StartedAt
		v.GeneratingSince = &started
	}
	for i, r := range s.Results {
		v.Results[i] = NewResultView(r, apiPath)
	}
	return v
}

// NewResultView attaches action links to r.
func NewResultView(r workflow.Result, apiPath string) ResultView {
	base := apiPath + "/results/" + r.ID.String()
	return ResultView{
		Result:       r,
		DownloadName: r.DownloadName(),
		ViewURL:      base + "/view",
		DownloadURL:  base + "/download",
	}
}

// Catalog lists the fixed lookup tables of the studio.
type Catalog struct {
	Presets         []workflow.Preset `json:"presets"`
	ExamplePrompts  []string          `json:"example_prompts"`
	Stages          []workflow.Stage  `json:"stages"`
	MaxPromptLength int               `json:"max_prompt_length"`
	BatchSize       int               `json:"batch_size"`
}

// NewCatalog returns the studio catalog.
func NewCatalog() Catalog {
	return Catalog{
		Presets:         workflow.Presets(),
		ExamplePrompts:  workflow.ExamplePrompts(),
		Stages:          workflow.Stages(),
		MaxPromptLength: workflow.MaxPromptLength,
		BatchSize:       workflow.BatchSize,
	}
}
