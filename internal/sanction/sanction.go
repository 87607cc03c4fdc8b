// Package sanction implements the tardiness escalation rules: counting
// personal entries, promoting to the escalated code and deciding which
// students still need a family notification.
package sanction

import (
	"fmt"
	"sort"
	"strings"
)

// ReasonCode classifies a tardiness entry.
type ReasonCode string

const (
	// Transport marks a late arrival caused by public transport.
	Transport ReasonCode = "T"
	// Personal marks a late arrival for personal reasons.
	Personal ReasonCode = "P"
	// Escalated marks a personal late arrival past the tolerated threshold.
	Escalated ReasonCode = "P*"
)

// EscalationThreshold is the number of personal entries already on record at
// which a new personal entry is stored as escalated.
const EscalationThreshold = 3

// Valid reports whether c is one of the known codes.
func (c ReasonCode) Valid() bool {
	switch c {
	case Transport, Personal, Escalated:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (c ReasonCode) String() string {
	return string(c)
}

// ParseReasonCode converts user input into a ReasonCode.
func ParseReasonCode(value string) (ReasonCode, error) {
	code := ReasonCode(strings.ToUpper(strings.TrimSpace(value)))
	if !code.Valid() {
		return "", fmt.Errorf("sanction: unknown reason code %q", value)
	}
	return code, nil
}

// CountPersonal returns how many codes are plain Personal. Escalated entries
// are not counted.
func CountPersonal(codes []ReasonCode) int {
	n := 0
	for _, c := range codes {
		if c == Personal {
			n++
		}
	}
	return n
}

// Resolve decides the code a new entry is stored with, given the codes
// already on the student's ledger. A Personal request is promoted to
// Escalated once the ledger holds EscalationThreshold Personal entries.
func Resolve(requested ReasonCode, existing []ReasonCode) (stored ReasonCode, promoted bool) {
	if requested == Personal && CountPersonal(existing) >= EscalationThreshold {
		return Escalated, true
	}
	return requested, false
}

// Demote maps Escalated back to Personal and leaves other codes untouched.
func Demote(code ReasonCode) (ReasonCode, bool) {
	if code == Escalated {
		return Personal, true
	}
	return code, false
}

// Mark is the projection of a ledger entry used for attention checks.
type Mark struct {
	StudentID string
	Code      ReasonCode
	Notified  bool
}

// AwaitingAttention returns, sorted, the students with at least one escalated
// entry and no notified entry at all.
func AwaitingAttention(marks []Mark) []string {
	escalated := make(map[string]bool)
	notified := make(map[string]bool)
	for _, m := range marks {
		if m.Code == Escalated {
			escalated[m.StudentID] = true
		}
		if m.Notified {
			notified[m.StudentID] = true
		}
	}

	out := make([]string, 0, len(escalated))
	for id := range escalated {
		if !notified[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
