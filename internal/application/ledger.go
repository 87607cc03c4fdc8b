package application

import "github.com/example/checkclass/internal/sanction"

// ItemState tags a ledger item as written to the store or held locally.
type ItemState int

const (
	// Persisted items exist in the store; removing them is a delete.
	Persisted ItemState = iota
	// Pending items live only in the caller's ledger until Commit.
	Pending
)

// String implements fmt.Stringer.
func (s ItemState) String() string {
	if s == Pending {
		return "pending"
	}
	return "persisted"
}

// LedgerItem is one entry of a student's working sequence.
type LedgerItem struct {
	State ItemState
	Entry TardinessEntry
}

// Ledger is a student's tardiness entries as one insertion-ordered sequence:
// every persisted item precedes every pending item. It is a snapshot owned by
// the caller and should be discarded after use.
type Ledger struct {
	StudentID string
	items     []LedgerItem
}

// NewLedger builds a ledger from persisted entries in insertion order.
func NewLedger(studentID string, persisted []TardinessEntry) *Ledger {
	items := make([]LedgerItem, 0, len(persisted))
	for _, entry := range persisted {
		items = append(items, LedgerItem{State: Persisted, Entry: entry})
	}
	return &Ledger{StudentID: studentID, items: items}
}

// Items returns a copy of the working sequence.
func (l *Ledger) Items() []LedgerItem {
	if l == nil {
		return nil
	}
	out := make([]LedgerItem, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of items, pending included.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// PendingCount returns the number of items not yet written.
func (l *Ledger) PendingCount() int {
	if l == nil {
		return 0
	}
	return len(l.items) - l.persistedCount()
}

// Codes returns the reason codes of every item in order.
func (l *Ledger) Codes() []sanction.ReasonCode {
	if l == nil {
		return nil
	}
	codes := make([]sanction.ReasonCode, 0, len(l.items))
	for _, item := range l.items {
		codes = append(codes, item.Entry.Reason)
	}
	return codes
}

// Last returns the chronologically last item.
func (l *Ledger) Last() (LedgerItem, bool) {
	if l == nil || len(l.items) == 0 {
		return LedgerItem{}, false
	}
	return l.items[len(l.items)-1], true
}

func (l *Ledger) persistedCount() int {
	n := 0
	for n < len(l.items) && l.items[n].State == Persisted {
		n++
	}
	return n
}

// appendPersisted inserts a stored entry after the last persisted item.
func (l *Ledger) appendPersisted(entry TardinessEntry) {
	at := l.persistedCount()
	l.items = append(l.items, LedgerItem{})
	copy(l.items[at+1:], l.items[at:])
	l.items[at] = LedgerItem{State: Persisted, Entry: entry}
}

func (l *Ledger) appendPending(entry TardinessEntry) {
	l.items = append(l.items, LedgerItem{State: Pending, Entry: entry})
}

func (l *Ledger) dropLast() {
	l.items = l.items[:len(l.items)-1]
}
