package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress wraps a writer and reports the bytes written to a status
// writer, at most once per interval.
type Progress struct {
	w        io.Writer
	status   io.Writer
	title    string
	interval time.Duration

	mu      sync.Mutex
	written int64
	last    time.Time
}

// NewProgress creates a Progress writing data to w and status lines to
// status.
func NewProgress(w, status io.Writer, title string) *Progress {
	return &Progress{
		w:        w,
		status:   status,
		title:    title,
		interval: 200 * time.Millisecond,
	}
}

// Write implements io.Writer.
func (p *Progress) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.written += int64(n)
	if now := time.Now(); now.Sub(p.last) >= p.interval {
		p.last = now
		p.render()
	}
	return n, err
}

// Written returns the bytes written so far.
func (p *Progress) Written() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written
}

// Finish prints the final count and ends the status line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.status)
}

func (p *Progress) render() {
	fmt.Fprintf(p.status, "\r%s %s", p.title, FormatBytes(p.written))
}

// FormatBytes formats bytes to human readable string.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
