package core

import (
	"sort"
	"time"
)

// LedgerRetention is how long a document stays in the recent-activity ledger
// after its last edit.
const LedgerRetention = 30 * time.Second

// ActivityLedger remembers the last edit time per document. It is pure
// bookkeeping and never feeds a decision.
type ActivityLedger struct {
	entries map[string]time.Time
}

// NewActivityLedger returns an empty ledger.
func NewActivityLedger() *ActivityLedger {
	return &ActivityLedger{entries: make(map[string]time.Time)}
}

// Touch records an edit to doc at the given time.
func (l *ActivityLedger) Touch(doc string, at time.Time) {
	l.entries[doc] = at
}

// Evict drops entries older than LedgerRetention and returns how many were
// removed.
func (l *ActivityLedger) Evict(now time.Time) int {
	removed := 0
	for doc, at := range l.entries {
		if now.Sub(at) > LedgerRetention {
			delete(l.entries, doc)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked documents.
func (l *ActivityLedger) Len() int {
	return len(l.entries)
}

// Documents returns the tracked documents in sorted order.
func (l *ActivityLedger) Documents() []string {
	docs := make([]string, 0, len(l.entries))
	for doc := range l.entries {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}
