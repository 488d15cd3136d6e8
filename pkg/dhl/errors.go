package dhl

import (
	"fmt"
	"regexp"
	"strings"
)

// ErrorKind is the stable error taxonomy. No operation identifies its
// failure by free-form string; the kind is the primary identifier.
type ErrorKind string

const (
	KindAuth          ErrorKind = "AUTH"
	KindNotFound      ErrorKind = "NOT_FOUND"
	KindValidation    ErrorKind = "VALIDATION"
	KindUpstreamFault ErrorKind = "UPSTREAM_FAULT"
	KindParse         ErrorKind = "PARSE"
	KindTimeout       ErrorKind = "TIMEOUT"
	KindConnection    ErrorKind = "CONNECTION"
	KindRateLimit     ErrorKind = "RATE_LIMIT"
	KindServer        ErrorKind = "SERVER"
	KindUnknown       ErrorKind = "UNKNOWN"
)

// suggestions maps each kind to its actionable next step.
var suggestions = map[ErrorKind]string{
	KindAuth:          "Verify credentials with the carrier",
	KindNotFound:      "Confirm the tracking or shipment identifier",
	KindValidation:    "Fix the listed fields and retry",
	KindUpstreamFault: "Inspect the machine code; retry if transient",
	KindParse:         "Report the issue; the raw preview is attached",
	KindTimeout:       "Retry after a short delay",
	KindConnection:    "Check network connectivity; retry after a delay",
	KindRateLimit:     "Back off and retry",
	KindServer:        "Retry later; escalate if persistent",
	KindUnknown:       "Inspect the message and raw preview",
}

// rawPreviewLimit bounds how much upstream body a diagnostic carries.
const rawPreviewLimit = 500

// ErrorRecord is the structured error every operation returns.
type ErrorRecord struct {
	Kind            ErrorKind
	Message         string
	MachineCode     string
	Suggestion      string
	UpstreamStatus  int
	RawPreview      string
	Fields          []string
	RetriesConsumed int
	Cause           error
}

// Error implements the error interface.
func (e *ErrorRecord) Error() string {
	if e.MachineCode != "" {
		return fmt.Sprintf("dhl %s (%s): %s", e.Kind, e.MachineCode, e.Message)
	}
	return fmt.Sprintf("dhl %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ErrorRecord) Unwrap() error {
	return e.Cause
}

// Is matches two ErrorRecords by kind.
func (e *ErrorRecord) Is(target error) bool {
	t, ok := target.(*ErrorRecord)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates an ErrorRecord with its suggestion filled in.
func NewError(kind ErrorKind, message string) *ErrorRecord {
	return &ErrorRecord{
		Kind:       kind,
		Message:    message,
		Suggestion: suggestions[kind],
	}
}

// WithMachineCode attaches the carrier's machine-readable code.
func (e *ErrorRecord) WithMachineCode(code string) *ErrorRecord {
	e.MachineCode = code
	return e
}

// WithSuggestion overrides the default suggestion for the kind.
func (e *ErrorRecord) WithSuggestion(s string) *ErrorRecord {
	e.Suggestion = s
	return e
}

// WithUpstreamStatus attaches the HTTP status DHL answered with.
func (e *ErrorRecord) WithUpstreamStatus(status int) *ErrorRecord {
	e.UpstreamStatus = status
	return e
}

// WithCause attaches the underlying error.
func (e *ErrorRecord) WithCause(err error) *ErrorRecord {
	e.Cause = err
	return e
}

// WithFields lists the offending request fields (validation failures).
func (e *ErrorRecord) WithFields(fields []string) *ErrorRecord {
	e.Fields = fields
	return e
}

// WithRetries records how much of the retry budget the call consumed.
func (e *ErrorRecord) WithRetries(n int) *ErrorRecord {
	e.RetriesConsumed = n
	return e
}

// WithRawPreview attaches a credential-scrubbed preview of the raw
// upstream body, truncated to 500 characters.
func (e *ErrorRecord) WithRawPreview(raw []byte) *ErrorRecord {
	e.RawPreview = scrubPreview(string(raw))
	return e
}

var credentialHeaderRe = regexp.MustCompile(`(?i)(authorization|x-api-key|wsse:password[^>]*)\s*[:>]\s*[^\r\n<]*`)

func scrubPreview(raw string) string {
	scrubbed := credentialHeaderRe.ReplaceAllString(raw, "$1: [redacted]")
	if len(scrubbed) > rawPreviewLimit {
		scrubbed = scrubbed[:rawPreviewLimit]
	}
	return strings.TrimSpace(scrubbed)
}

// IsKind reports whether err is an ErrorRecord of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	rec, ok := err.(*ErrorRecord)
	return ok && rec.Kind == kind
}
