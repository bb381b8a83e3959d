package ui

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

const (
	progressBar   = "█"
	progressEmpty = "░"
	barWidth      = 30
)

// Progress tracks a completed/total counter across concurrent download
// workers. The count only moves forward and tops out at the total.
type Progress struct {
	total     int
	completed int64
	start     time.Time
}

// NewProgress creates a progress counter for the given task total.
func NewProgress(total int) *Progress {
	return &Progress{
		total: total,
		start: time.Now(),
	}
}

// Increment records one finished task, success or failure alike, and
// returns the new completed count. Increments past the total are
// dropped.
func (p *Progress) Increment() int {
	for {
		cur := atomic.LoadInt64(&p.completed)
		if cur >= int64(p.total) {
			return int(cur)
		}
		if atomic.CompareAndSwapInt64(&p.completed, cur, cur+1) {
			return int(cur + 1)
		}
	}
}

// Completed returns the number of finished tasks.
func (p *Progress) Completed() int {
	return int(atomic.LoadInt64(&p.completed))
}

// Total returns the task total.
func (p *Progress) Total() int {
	return p.total
}

// Render returns a progress bar line for the current state.
func (p *Progress) Render() string {
	completed := p.Completed()

	filled := barWidth
	if p.total > 0 {
		filled = completed * barWidth / p.total
		if filled > barWidth {
			filled = barWidth
		}
	}

	bar := strings.Repeat(progressBar, filled) +
		strings.Repeat(progressEmpty, barWidth-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, completed, p.total)
}

// Print redraws the progress bar in place.
func (p *Progress) Print() {
	if quietMode {
		return
	}
	fmt.Printf("\r%s", p.Render())
}

// Finish ends the in-place bar line and prints the elapsed time.
func (p *Progress) Finish() {
	if quietMode {
		return
	}
	fmt.Printf("\r%s  %s\n", p.Render(), Dim(time.Since(p.start).Round(time.Second).String()))
}
