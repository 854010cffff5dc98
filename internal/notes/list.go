package notes

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type State int

const (
	Pending State = iota
	Confirmed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	default:
		return "failed"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Entry is a note as the operator sees it. TempID is set while the note is
// pending and kept afterwards so callers can correlate.
type Entry struct {
	Note
	TempID string `json:"tempId,omitempty"`
	State  State  `json:"state"`
}

// List is the optimistic view of a record's notes.
type List struct {
	mu      sync.Mutex
	entries []Entry
}

func NewList(confirmed []Note) *List {
	l := &List{entries: make([]Entry, 0, len(confirmed))}
	for _, n := range confirmed {
		l.entries = append(l.entries, Entry{Note: n, State: Confirmed})
	}
	return l
}

// AddPending appends a pending entry and returns its temporary id.
func (l *List) AddPending(text, author string, now time.Time) string {
	tempID := "tmp-" + uuid.NewString()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Note:   Note{ID: tempID, Text: text, Author: author, CreatedAt: now},
		TempID: tempID,
		State:  Pending,
	})
	return tempID
}

// Confirm swaps the pending entry for the server's note. It reports false if
// tempID is unknown.
func (l *List) Confirm(tempID string, saved Note) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].TempID == tempID && l.entries[i].State == Pending {
			if saved.Text == "" {
				saved.Text = l.entries[i].Text
			}
			if saved.Author == "" {
				saved.Author = l.entries[i].Author
			}
			if saved.CreatedAt.IsZero() {
				saved.CreatedAt = l.entries[i].CreatedAt
			}
			l.entries[i] = Entry{Note: saved, TempID: tempID, State: Confirmed}
			return true
		}
	}
	return false
}

// Fail removes the pending entry and returns it marked Failed.
func (l *List) Fail(tempID string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].TempID == tempID && l.entries[i].State == Pending {
			e := l.entries[i]
			e.State = Failed
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return e, true
		}
	}
	return Entry{}, false
}

func (l *List) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Submit adds text optimistically, calls send and reconciles the result.
func (l *List) Submit(ctx context.Context, text, author string, now time.Time, send func(context.Context, string) (Note, error)) (Entry, error) {
	tempID := l.AddPending(text, author, now)
	saved, err := send(ctx, text)
	if err != nil {
		failed, _ := l.Fail(tempID)
		return failed, err
	}
	l.Confirm(tempID, saved)
	for _, e := range l.Entries() {
		if e.TempID == tempID {
			return e, nil
		}
	}
	return Entry{Note: saved, TempID: tempID, State: Confirmed}, nil
}
