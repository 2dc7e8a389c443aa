/*
Package extract turns free-form leave-request text into a structured
candidate movement via an external text-understanding service.

PURPOSE:
  The dashboard's "new request" form can be pre-filled from a sentence like
  "Maria takes 7 days from Monday and Pedro covers her". This package builds
  the roster-aware prompt, makes a single completion call, and validates the
  response against a fixed schema before anyone trusts it.

TRUST BOUNDARY:
  The adapter is advisory only. It never writes to the store; its output
  pre-fills an editable form and a human confirms before anything persists.
  Every response is schema-validated - unknown employees, bad dates or
  non-positive day counts are rejected here, not downstream.

FAILURE MODEL:
  One attempt, no retry. Failures map to three sentinel errors:
    ErrServiceFailure    transport error or non-200 from the service
    ErrMalformedResponse response body is not the expected JSON shape
    ErrAmbiguous         parsed fine but references nobody on the roster
  Callers show a "could not understand" message and leave the form as it was.

SEE ALSO:
  - prompt.go: The versioned system-prompt template
  - client.go: OpenAI-compatible chat-completions transport
*/
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vantage-hr/leaveboard/vacation"
)

// Sentinel failure classes. Wrapped with detail via fmt.Errorf("%w").
var (
	ErrServiceFailure    = errors.New("extraction service failure")
	ErrMalformedResponse = errors.New("malformed extraction response")
	ErrAmbiguous         = errors.New("ambiguous extraction")
)

// RosterEntry is the (id, display name) pair the prompt shows the model so
// it can resolve names to identifiers.
type RosterEntry struct {
	ID   vacation.EmployeeID
	Name string
}

// Candidate is a validated, structured leave request ready to pre-fill the
// form. It is never persisted directly.
type Candidate struct {
	EmployeeID     vacation.EmployeeID
	StartDate      vacation.Date
	DayCount       int
	ReplacementID  *vacation.EmployeeID // nil when no coverage mentioned
	Type           vacation.MovementType
	DetectedReason string
}

// Completer is the transport dependency: one prompt in, one response body
// out. Satisfied by *Client; stubbed in tests.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// Extractor wraps the completion service with prompt construction and
// response validation.
type Extractor struct {
	completer Completer
	now       func() vacation.Date
	log       *logrus.Logger
}

// New creates an Extractor around the given completion transport.
func New(completer Completer, log *logrus.Logger) *Extractor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Extractor{
		completer: completer,
		now:       vacation.Today,
		log:       log,
	}
}

// Extract runs a single extraction attempt. On any failure the caller's
// form state must remain untouched; this function only ever returns a fully
// validated candidate or an error.
func (e *Extractor) Extract(ctx context.Context, text string, roster []RosterEntry) (*Candidate, error) {
	prompt := buildSystemPrompt(roster, e.now())

	body, err := e.completer.Complete(ctx, prompt, text)
	if err != nil {
		e.log.WithError(err).Warn("extraction completion failed")
		return nil, fmt.Errorf("%w: %v", ErrServiceFailure, err)
	}

	raw, err := parseResponse(body)
	if err != nil {
		e.log.WithError(err).Warn("extraction response rejected")
		return nil, err
	}

	candidate, err := raw.validate(roster)
	if err != nil {
		e.log.WithError(err).Warn("extraction candidate rejected")
		return nil, err
	}

	return candidate, nil
}

// validate checks the wire shape against the roster and converts it into a
// typed Candidate.
func (r rawCandidate) validate(roster []RosterEntry) (*Candidate, error) {
	ids := make(map[vacation.EmployeeID]bool, len(roster))
	for _, entry := range roster {
		ids[entry.ID] = true
	}

	employeeID := vacation.EmployeeID(r.EmployeeID)
	if !ids[employeeID] {
		return nil, fmt.Errorf("%w: employee %q is not on the roster", ErrAmbiguous, r.EmployeeID)
	}

	start, err := vacation.ParseDate(r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: bad start_date %q", ErrMalformedResponse, r.StartDate)
	}

	if r.DayCount <= 0 {
		return nil, fmt.Errorf("%w: day_count must be positive, got %d", ErrMalformedResponse, r.DayCount)
	}

	mvType := vacation.PhysicalLeave
	if r.Type != "" {
		if !vacation.ValidMovementType(r.Type) {
			return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedResponse, r.Type)
		}
		mvType = vacation.MovementType(r.Type)
	}

	var replacement *vacation.EmployeeID
	if r.ReplacementID != nil && *r.ReplacementID != "" && *r.ReplacementID != "null" {
		id := vacation.EmployeeID(*r.ReplacementID)
		if !ids[id] {
			return nil, fmt.Errorf("%w: replacement %q is not on the roster", ErrAmbiguous, *r.ReplacementID)
		}
		replacement = &id
	}

	return &Candidate{
		EmployeeID:     employeeID,
		StartDate:      start,
		DayCount:       r.DayCount,
		ReplacementID:  replacement,
		Type:           mvType,
		DetectedReason: r.DetectedReason,
	}, nil
}
