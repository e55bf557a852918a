package profile

import "fmt"

// ReportCommandError reports a malformed or unrecognized post-processing
// command. It is recovered locally: the report falls back to its default
// formatting and the error is surfaced as a warning.
type ReportCommandError struct {
	Command string
	Reason  string
}

func (e *ReportCommandError) Error() string {
	return fmt.Sprintf("report command %q: %s", e.Command, e.Reason)
}

// DestinationError reports an invalid report destination (an unwritable file
// path or dump location). It is recovered locally: the report is suppressed
// and the error surfaced as a warning naming the offending argument.
type DestinationError struct {
	Destination string
	Err         error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("invalid report destination %q: %v", e.Destination, e.Err)
}

func (e *DestinationError) Unwrap() error {
	return e.Err
}
