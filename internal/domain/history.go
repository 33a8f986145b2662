package domain

import "time"

// ============================================================
// History Ledger
// ============================================================

// HistoryEntry is one immutable audit record. Entries are append-only and
// never reordered or edited.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Details   string    `json:"details"`
}

// AppendHistory returns a new slice with one extra entry stamped at now.
// The input slice is never mutated in place, so prior snapshots of an
// entity stay valid for replay and concurrent reads.
func AppendHistory(history []HistoryEntry, event, details string, now time.Time) []HistoryEntry {
	out := make([]HistoryEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, HistoryEntry{Timestamp: now, Event: event, Details: details})
}
