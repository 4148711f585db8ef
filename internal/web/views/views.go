// Package views renders the HTML fragments returned to HTMX requests.
//
// Components live in .templ files; run `templ generate` after editing them
// and commit the generated _templ.go files.
package views

import "github.com/JonMunkholm/jobtracker/internal/core"

// maxListedErrors caps the error rows rendered in a summary.
const maxListedErrors = 20

type summaryState int

const (
	stateSuccess summaryState = iota
	stateWarning
	stateError
)

func stateOf(result *core.ImportResult) summaryState {
	switch {
	case !result.Success:
		return stateError
	case result.Aborted || len(result.Errors) > 0:
		return stateWarning
	default:
		return stateSuccess
	}
}

func listedErrors(errs []core.ImportError) []core.ImportError {
	if len(errs) > maxListedErrors {
		return errs[:maxListedErrors]
	}
	return errs
}

func hiddenErrors(errs []core.ImportError) int {
	return max(len(errs)-maxListedErrors, 0)
}
