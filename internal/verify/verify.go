// Package verify checks submitted answers against a challenge's descriptor.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/verte-zerg/spookhunt/internal/digest"
	"github.com/verte-zerg/spookhunt/internal/model"
)

// Mode names how a challenge is checked.
type Mode string

// Verification modes, in precedence order.
const (
	ModePredicate Mode = "predicate"
	ModeDigest    Mode = "digest"
	ModeAnyInput  Mode = "any"
)

// ModeOf reports which descriptor Verify will use for ch.
//
// ModeAnyInput accepts every non-empty answer. It is meant for trivia-style
// challenges whose real gate lives elsewhere and gives no answer-checking
// guarantee at all.
func ModeOf(ch model.Challenge) Mode {
	switch {
	case ch.Validate != nil:
		return ModePredicate
	case ch.ExpectedHash != "":
		return ModeDigest
	default:
		return ModeAnyInput
	}
}

// Verify reports whether raw is a correct answer for ch. A blank answer is
// always wrong and never hashed. Errors come only from the context or from
// a custom predicate.
func Verify(ctx context.Context, ch model.Challenge, raw string) (bool, error) {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	switch ModeOf(ch) {
	case ModePredicate:
		ok, err := ch.Validate(ctx, answer)
		if err != nil {
			return false, fmt.Errorf("challenge %d predicate: %w", ch.ID, err)
		}
		return ok, nil
	case ModeDigest:
		return digest.Matches(answer, ch.ExpectedHash), nil
	default:
		return true, nil
	}
}
