package sanction

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		requested    ReasonCode
		existing     []ReasonCode
		wantCode     ReasonCode
		wantPromoted bool
	}{
		{
			name:      "two personal entries stay below threshold",
			requested: Personal,
			existing:  []ReasonCode{Personal, Personal},
			wantCode:  Personal,
		},
		{
			name:         "third personal entry on record promotes",
			requested:    Personal,
			existing:     []ReasonCode{Personal, Personal, Personal},
			wantCode:     Escalated,
			wantPromoted: true,
		},
		{
			name:      "escalated entries do not count",
			requested: Personal,
			existing:  []ReasonCode{Personal, Personal, Escalated, Escalated},
			wantCode:  Personal,
		},
		{
			name:      "transport is never promoted",
			requested: Transport,
			existing:  []ReasonCode{Personal, Personal, Personal, Personal},
			wantCode:  Transport,
		},
		{
			name:      "explicit escalated request is kept",
			requested: Escalated,
			existing:  nil,
			wantCode:  Escalated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, promoted := Resolve(tt.requested, tt.existing)
			if code != tt.wantCode || promoted != tt.wantPromoted {
				t.Fatalf("Resolve() = (%s, %v), want (%s, %v)", code, promoted, tt.wantCode, tt.wantPromoted)
			}
		})
	}
}

func TestParseReasonCode(t *testing.T) {
	for input, want := range map[string]ReasonCode{"t": Transport, " P ": Personal, "p*": Escalated} {
		got, err := ParseReasonCode(input)
		if err != nil {
			t.Fatalf("ParseReasonCode(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseReasonCode(%q) = %s, want %s", input, got, want)
		}
	}

	if _, err := ParseReasonCode("X"); err == nil {
		t.Fatalf("expected error for unknown code")
	}
}

func TestDemote(t *testing.T) {
	if code, changed := Demote(Escalated); code != Personal || !changed {
		t.Fatalf("Demote(P*) = (%s, %v)", code, changed)
	}
	if code, changed := Demote(Transport); code != Transport || changed {
		t.Fatalf("Demote(T) = (%s, %v)", code, changed)
	}
}

func TestAwaitingAttention(t *testing.T) {
	marks := []Mark{
		{StudentID: "s3", Code: Escalated},
		{StudentID: "s1", Code: Personal},
		{StudentID: "s2", Code: Escalated, Notified: true},
		{StudentID: "s4", Code: Escalated},
		{StudentID: "s4", Code: Escalated},
		{StudentID: "s5", Code: Escalated},
		{StudentID: "s5", Code: Personal, Notified: true},
	}

	got := AwaitingAttention(marks)
	if diff := cmp.Diff([]string{"s3", "s4"}, got); diff != "" {
		t.Fatalf("awaiting attention mismatch (-want +got):\n%s", diff)
	}

	if got := AwaitingAttention(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}
