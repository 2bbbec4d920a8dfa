package report

import (
	"fmt"
	"strconv"

	"github.com/verte-zerg/spookhunt/internal/completion"
	"github.com/verte-zerg/spookhunt/internal/sequencer"
)

// StatusLines renders a session snapshot as a table. width > 0 truncates
// titles so rows fit.
func StatusLines(snap sequencer.Snapshot, width int) []string {
	rows := make([][]string, 0, len(snap.Challenges))
	for i, cv := range snap.Challenges {
		marker := " "
		if i == snap.Index && !snap.Completed {
			marker = ">"
		}
		answer := cv.Answer
		if answer == "" {
			answer = "-"
		}
		rows = append(rows, []string{marker, strconv.Itoa(cv.Challenge.ID), cv.Challenge.Title, cv.Status.String(), answer})
	}
	lines := FormatTable([]string{"", "ID", "Title", "Status", "Answer"}, rows, TableOptions{
		Right:    map[int]bool{1: true},
		MaxWidth: width,
		Shrink:   2,
	})
	summary := fmt.Sprintf("Solved %d/%d", snap.Solved, snap.Total)
	if snap.Completed {
		summary += " (complete)"
	}
	if snap.Muted {
		summary += " [muted]"
	}
	return append(lines, "", summary)
}

// ResultsLines renders the results surface.
func ResultsLines(sig completion.Signal) []string {
	return []string{
		"Congratulations!",
		"You finished the hunt.",
		"",
		"Finished at: " + completion.FormatCentral(sig.FinishedAt),
		fmt.Sprintf("Epoch ms:    %d", sig.EpochMs()),
		"Completion code:",
		sig.Code,
	}
}

// ChallengeLines renders the active challenge card.
func ChallengeLines(snap sequencer.Snapshot) []string {
	cv := snap.Active()
	ch := cv.Challenge
	lines := []string{
		fmt.Sprintf("[%d/%d] %s", snap.Index+1, snap.Total, ch.Title),
		ch.Prompt,
	}
	if label := ch.LinkLabel(); label != "" {
		lines = append(lines, label+": "+ch.DownloadURL)
	}
	if ch.HelpURL != "" {
		lines = append(lines, "Need help? "+ch.HelpURL)
	}
	lines = append(lines, "Status: "+cv.Status.String())
	return lines
}
