package workflow

import "errors"

// Command rejections. Callers treat every one of them as a silent no-op:
// the controller state is unchanged whenever a command returns an error.
var (
	ErrUploadFailed         = errors.New("upload failed")
	ErrUploadInProgress     = errors.New("upload already in progress")
	ErrInvalidSelection     = errors.New("no style selected")
	ErrUnknownPreset        = errors.New("unknown preset")
	ErrInvalidStep          = errors.New("command not valid in current step")
	ErrGenerationInProgress = errors.New("generation already in progress")
	ErrNoProduct            = errors.New("no product image")
	ErrResultNotFound       = errors.New("result not found")
)
