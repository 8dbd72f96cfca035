package credits

import (
	"context"
	"log"
	"sync"
	"time"
)

// usageEntry is a credit_usage_logs row that has not been written yet.
type usageEntry struct {
	UserID         int64
	ToolUsed       string
	CreditsDebited float64
	Summary        string
	TokensInput    int
	TokensOutput   int
	CreatedAt      time.Time
}

// logQueue holds usage-log rows whose insert failed after the balance
// was already committed. The background flusher drains it.
type logQueue struct {
	mu      sync.Mutex
	entries []usageEntry
}

func newLogQueue() *logQueue {
	return &logQueue{}
}

func (q *logQueue) push(e usageEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
	log.Printf("credits: usage log insert failed, queued for retry (user=%d tool=%s, %d pending)",
		e.UserID, e.ToolUsed, len(q.entries))
}

func (q *logQueue) drain() []usageEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := q.entries
	q.entries = nil
	return entries
}

func (q *logQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// PendingLogs reports how many usage-log rows are waiting for a retry.
func (l *Ledger) PendingLogs() int {
	return l.queue.size()
}

// FlushPendingLogs re-attempts every queued usage-log insert and returns
// the number of rows written. Rows that fail again go back on the queue.
func (l *Ledger) FlushPendingLogs(ctx context.Context) int {
	entries := l.queue.drain()
	if len(entries) == 0 {
		return 0
	}

	flushed := 0
	for _, e := range entries {
		if err := l.insertUsageLog(ctx, e); err != nil {
			l.queue.push(e)
			continue
		}
		flushed++
	}

	if flushed > 0 {
		log.Printf("credits: flushed %d queued usage log(s), %d still pending", flushed, l.queue.size())
	}
	return flushed
}
