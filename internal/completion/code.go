// Package completion derives the completion code handed to the results screen.
package completion

import (
	"strings"
	"time"
	_ "time/tzdata" // Central time must render without system zoneinfo.

	"github.com/verte-zerg/spookhunt/internal/digest"
)

const (
	// Version tags the payload layout.
	Version = "v1"
	// Separator joins answers; it is not expected inside answers.
	Separator = "|"
	// Salt is embedded in the binary and is not secret from anyone who inspects it.
	Salt = "site-wide-salt-change-me"
)

// MakeCode derives the completion code for answers given in catalog order.
func MakeCode(answersInOrder []string) string {
	parts := make([]string, len(answersInOrder))
	for i, a := range answersInOrder {
		parts[i] = digest.Normalize(a)
	}
	payload := Version + Separator + strings.Join(parts, Separator)
	return digest.Sum(Salt + payload)
}

// Signal is the code plus the moment the hunt was finished.
type Signal struct {
	Code       string
	FinishedAt time.Time
}

// NewSignal stamps code with now truncated to millisecond precision.
func NewSignal(code string, now time.Time) Signal {
	return Signal{Code: code, FinishedAt: now.Truncate(time.Millisecond)}
}

// ISO returns the finish time as RFC 3339 UTC with milliseconds.
func (s Signal) ISO() string {
	return s.FinishedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// EpochMs returns the finish time in Unix milliseconds.
func (s Signal) EpochMs() int64 {
	return s.FinishedAt.UnixMilli()
}

// FromResults rebuilds a Signal from what the results screen receives.
func FromResults(code, iso string, epochMs int64) Signal {
	if t, err := time.Parse(time.RFC3339Nano, iso); err == nil {
		return Signal{Code: code, FinishedAt: t}
	}
	return Signal{Code: code, FinishedAt: time.UnixMilli(epochMs)}
}

// FormatCentral renders t in US Central time with milliseconds, e.g.
// "10/31/2025, 21:04:05.123 CT".
func FormatCentral(t time.Time) string {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return t.UTC().Format("1/2/2006, 15:04:05.000") + " UTC"
	}
	return t.In(loc).Format("1/2/2006, 15:04:05.000") + " CT"
}
