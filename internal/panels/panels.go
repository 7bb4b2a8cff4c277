// Package panels derives the display data for the three result panels:
// Match Summary, Generation Results and Evidence. Every builder is a pure
// function of the current result and the loading flag; none of them modify
// the response they are given.
package panels

import "github.com/jonathan/resume-assistant/internal/types"

// Mode is the rendering state of a panel. Exactly one applies at a time.
type Mode string

// Panel modes.
const (
	ModeLoading   Mode = "loading"
	ModeEmpty     Mode = "empty"
	ModePopulated Mode = "populated"
)

// Set bundles the three panels built from the same inputs.
type Set struct {
	Match      Match
	Generation Generation
	Evidence   Evidence
}

// Build derives all three panels. form supplies company and role when the
// parsed job description leaves them out.
func Build(result *types.PipelineResponse, loading bool, form types.RunRequest) Set {
	return Set{
		Match:      BuildMatch(result, loading, form.CompanyName, form.RoleTitle),
		Generation: BuildGeneration(result, loading),
		Evidence:   BuildEvidence(result, loading),
	}
}

// modeFor gives loading priority over any result that may still be held.
func modeFor(loading, present bool) Mode {
	switch {
	case loading:
		return ModeLoading
	case present:
		return ModePopulated
	default:
		return ModeEmpty
	}
}
