package imagegen

import "fmt"

// GenerationError reports a failed image request for Prompt.
type GenerationError struct {
	Prompt string
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate image: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
