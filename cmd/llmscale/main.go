package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess          = 0 // Command completed
	ExitValidationFailed = 1 // Data files failed schema validation
	ExitError            = 2 // Configuration or runtime error
)

// ValidationFailedError indicates that validation ran successfully, but one
// or more data files are invalid.
type ValidationFailedError struct {
	Message string
}

func (e *ValidationFailedError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var validationErr *ValidationFailedError
		if errors.As(err, &validationErr) {
			os.Exit(ExitValidationFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
