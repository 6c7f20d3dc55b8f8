package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type DigestEntry struct {
	Message   string
	Level     slog.Level
	Timestamp time.Time
}

// sender delivers one plain text message.
type sender interface {
	plainResponse(chatId int64, text string)
}

// DigestBuffer collects admin notifications below error level and sends them
// as one message per admin on every interval.
type DigestBuffer struct {
	mu       sync.Mutex
	entries  map[int64][]DigestEntry
	interval time.Duration
	out      sender
	now      func() time.Time
	stopCh   chan struct{}
	done     chan struct{}
	started  bool
}

func NewDigestBuffer(out sender, interval time.Duration) *DigestBuffer {
	return &DigestBuffer{
		entries:  make(map[int64][]DigestEntry),
		interval: interval,
		out:      out,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (d *DigestBuffer) Add(chatId int64, msg string, level slog.Level) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[chatId] = append(d.entries[chatId], DigestEntry{
		Message:   msg,
		Level:     level,
		Timestamp: d.now(),
	})
}

func (d *DigestBuffer) StartTicker() {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.Flush()
			case <-d.stopCh:
				d.Flush() // final flush
				return
			}
		}
	}()
}

func (d *DigestBuffer) Flush() {
	d.mu.Lock()
	snapshot := d.entries
	d.entries = make(map[int64][]DigestEntry)
	d.mu.Unlock()

	for chatId, entries := range snapshot {
		if len(entries) == 0 {
			continue
		}
		d.out.plainResponse(chatId, formatDigest(entries))
	}
}

// Stop flushes what is buffered and ends the ticker.
func (d *DigestBuffer) Stop() {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if !started {
		d.Flush()
		return
	}
	close(d.stopCh)
	<-d.done
}

func formatDigest(entries []DigestEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Digest (%d messages)\n\n", len(entries)))
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%s %s\n", e.Timestamp.Format("15:04"), e.Message))
	}
	return sb.String()
}
