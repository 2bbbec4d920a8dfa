// Package model defines shared data structures.
package model

import (
	"context"
	"net/url"
	"time"
)

// Predicate decides whether a trimmed answer is correct. It may block.
type Predicate func(ctx context.Context, answer string) (bool, error)

// Challenge is one puzzle of the hunt. Challenges are immutable once loaded.
type Challenge struct {
	ID           int
	Title        string
	Prompt       string
	DownloadURL  string
	DownloadName string
	// Exactly one of Validate, ExpectedHash or neither (any non-empty answer) applies.
	Validate     Predicate
	ExpectedHash string
	Hint         string
	Scare        *EffectConfig
	HelpURL      string
}

// LinkLabel describes the resource link: local files are downloads, remote
// pages are visited.
func (c Challenge) LinkLabel() string {
	if c.DownloadURL == "" {
		return ""
	}
	if IsRemoteURL(c.DownloadURL) {
		return "Visit website"
	}
	name := c.DownloadName
	if name == "" {
		name = "file"
	}
	return "Download " + name
}

// IsRemoteURL reports whether link points at another origin (has an http(s) scheme).
func IsRemoteURL(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Default effect values.
const (
	DefaultEffectProbability = 1.0
	DefaultEffectDuration    = 1500 * time.Millisecond
)

// EffectConfig describes an ancillary full-screen effect (a scare).
type EffectConfig struct {
	Enabled     bool
	Probability *float64
	Duration    time.Duration
	ImageURL    string
	VideoURL    string
	SoundURL    string
	OverlayText string
	MazeGate    bool
}

// EffectiveProbability returns the firing probability, defaulting to 1.
func (c EffectConfig) EffectiveProbability() float64 {
	if c.Probability == nil {
		return DefaultEffectProbability
	}
	return *c.Probability
}

// EffectiveDuration returns the display duration, defaulting to 1.5s.
func (c EffectConfig) EffectiveDuration() time.Duration {
	if c.Duration <= 0 {
		return DefaultEffectDuration
	}
	return c.Duration
}

// Status is the sub-status of a single challenge.
type Status int

// Challenge sub-statuses.
const (
	StatusUnattempted Status = iota
	StatusIncorrect
	StatusSolved
)

func (s Status) String() string {
	switch s {
	case StatusIncorrect:
		return "incorrect"
	case StatusSolved:
		return "solved"
	default:
		return "unattempted"
	}
}

// Float64 returns a pointer to v; handy for optional probabilities.
func Float64(v float64) *float64 {
	return &v
}
