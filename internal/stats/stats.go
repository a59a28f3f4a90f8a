// Package stats provides a goroutine-safe aggregator for moderation
// outcomes over one reporting period. All record methods can be called
// concurrently from many in-flight pipeline runs; SnapshotAndReset swaps
// the whole period out atomically so a racing increment lands in exactly
// one period, never both and never neither.
package stats

import (
	"sync"
	"time"

	"github.com/storozh/moderator/internal/classify"
)

// ChatCounters holds per-chat totals for one period.
type ChatCounters struct {
	Checked  int
	Deleted  int
	ByReason map[classify.Category]int
	Banned   int
}

// Snapshot is the immutable result of SnapshotAndReset: accumulated totals
// for the closed period plus its boundaries.
type Snapshot struct {
	Checked  int
	Deleted  int
	ByReason map[classify.Category]int
	Banned   int
	ByChat   map[int64]*ChatCounters
	Start    time.Time
	End      time.Time
}

// Aggregator accumulates counters between resets. The zero value is not
// usable; construct with New.
type Aggregator struct {
	mu       sync.Mutex
	checked  int
	deleted  int
	byReason map[classify.Category]int
	banned   int
	byChat   map[int64]*ChatCounters
	start    time.Time
}

// New returns an empty aggregator with the period starting now.
func New() *Aggregator {
	a := &Aggregator{}
	a.reset(time.Now())
	return a
}

// reset reinitializes all counters. Caller must hold mu (or own the value).
func (a *Aggregator) reset(start time.Time) {
	a.checked = 0
	a.deleted = 0
	a.byReason = make(map[classify.Category]int)
	a.banned = 0
	a.byChat = make(map[int64]*ChatCounters)
	a.start = start
}

func (a *Aggregator) chat(chatID int64) *ChatCounters {
	c, ok := a.byChat[chatID]
	if !ok {
		c = &ChatCounters{ByReason: make(map[classify.Category]int)}
		a.byChat[chatID] = c
	}
	return c
}

// RecordChecked counts one classification attempt against a chat.
func (a *Aggregator) RecordChecked(chatID int64) {
	a.mu.Lock()
	a.checked++
	a.chat(chatID).Checked++
	a.mu.Unlock()
}

// RecordRejection counts one deletion decision in the given category.
// A recorded rejection means a deletion was attempted, regardless of
// whether the transport accepted it.
func (a *Aggregator) RecordRejection(chatID int64, category classify.Category) {
	a.mu.Lock()
	a.deleted++
	a.byReason[category]++
	c := a.chat(chatID)
	c.Deleted++
	c.ByReason[category]++
	a.mu.Unlock()
}

// RecordBan counts one ban decision against a chat.
func (a *Aggregator) RecordBan(chatID int64) {
	a.mu.Lock()
	a.banned++
	a.chat(chatID).Banned++
	a.mu.Unlock()
}

// SnapshotAndReset atomically captures the current totals and starts a
// fresh period. The returned snapshot owns its maps; the aggregator keeps
// none of the old state.
func (a *Aggregator) SnapshotAndReset() Snapshot {
	now := time.Now()

	a.mu.Lock()
	snap := Snapshot{
		Checked:  a.checked,
		Deleted:  a.deleted,
		ByReason: a.byReason,
		Banned:   a.banned,
		ByChat:   a.byChat,
		Start:    a.start,
		End:      now,
	}
	a.reset(now)
	a.mu.Unlock()

	return snap
}
