package workflow

// Step is the current stage of the upload, configure, generate, results flow.
type Step string

const (
	StepUpload    Step = "upload"
	StepConfigure Step = "configure"
	StepGenerate  Step = "generate"
	StepResults   Step = "results"
)

// Valid reports whether s is one of the four workflow steps.
func (s Step) Valid() bool {
	switch s {
	case StepUpload, StepConfigure, StepGenerate, StepResults:
		return true
	}
	return false
}

// Configurable reports whether the style choice may be edited and a
// generation triggered from s.
func (s Step) Configurable() bool {
	return s == StepConfigure || s == StepResults
}
