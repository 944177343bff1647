// Package progress renders download progress and a spinner for long
// running build steps. Both fall back to plain lines when stdout is not
// a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc is the function used to check if a file descriptor is a terminal.
// It can be overridden for testing.
var IsTerminalFunc = term.IsTerminal

// lineWidth is the width cleared before redrawing a status line.
const lineWidth = 80

// redrawInterval limits how often a status line is redrawn.
const redrawInterval = 100 * time.Millisecond

// ShouldShowProgress returns true if progress should be displayed.
// Progress is shown when stdout is a terminal.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stdout.Fd()))
}

// Writer counts bytes copied through it and redraws a one-line status
// for a source archive download.
type Writer struct {
	mu sync.Mutex

	dst    io.Writer
	output io.Writer
	label  string
	total  int64

	written   int64
	started   time.Time
	lastDrawn time.Time
	now       func() time.Time
}

// NewWriter wraps dst. label names the download; total is the expected
// size and may be <= 0 when the server did not send a length.
func NewWriter(dst io.Writer, label string, total int64, output io.Writer) *Writer {
	return &Writer{
		dst:     dst,
		output:  output,
		label:   label,
		total:   total,
		started: time.Now(),
		now:     time.Now,
	}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		w.mu.Lock()
		w.written += int64(n)
		w.draw()
		w.mu.Unlock()
	}
	return n, err
}

// Written returns the number of bytes copied so far.
func (w *Writer) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Finish clears the status line.
func (w *Writer) Finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clearLine(w.output)
}

func (w *Writer) draw() {
	now := w.now()
	if now.Sub(w.lastDrawn) < redrawInterval {
		return
	}
	w.lastDrawn = now

	elapsed := now.Sub(w.started).Seconds()
	if elapsed <= 0 {
		return
	}
	rate := float64(w.written) / elapsed

	fmt.Fprint(w.output, padLine(w.statusLine(rate)))
}

func (w *Writer) statusLine(rate float64) string {
	if w.total <= 0 {
		return fmt.Sprintf("\r   %s: %s (%s/s)", w.label, formatBytes(w.written), formatBytes(int64(rate)))
	}

	percent := float64(w.written) / float64(w.total) * 100
	if percent > 100 {
		percent = 100
	}

	eta := "--:--"
	if rate > 0 {
		eta = formatDuration(float64(w.total-w.written) / rate)
	}

	return fmt.Sprintf("\r   %s %s %3.0f%% (%s/%s) ETA %s",
		w.label,
		bar(percent, 24),
		percent,
		formatBytes(w.written),
		formatBytes(w.total),
		eta,
	)
}

// bar renders a [====>   ] bar of the given width.
func bar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(strings.Repeat("=", filled))
	if filled < width {
		sb.WriteByte('>')
		sb.WriteString(strings.Repeat(" ", width-filled-1))
	}
	sb.WriteByte(']')
	return sb.String()
}

func padLine(line string) string {
	if len(line) < lineWidth {
		return line + strings.Repeat(" ", lineWidth-len(line))
	}
	return line
}

func clearLine(w io.Writer) {
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", lineWidth))
}

// formatBytes formats bytes into human-readable format
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case b >= GB:
		return fmt.Sprintf("%.1fGB", float64(b)/GB)
	case b >= MB:
		return fmt.Sprintf("%.1fMB", float64(b)/MB)
	case b >= KB:
		return fmt.Sprintf("%.1fKB", float64(b)/KB)
	default:
		return fmt.Sprintf("%dB", b)
	}
}

// formatDuration formats seconds into M:SS or H:MM:SS
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
