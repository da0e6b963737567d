package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/expeditions/internal/contract"
)

// FormatState renders one student's progress through an expedition.
func FormatState(s *contract.ExpeditionState, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(s.Expedition.Name), ExpeditionStatusPill(s.Expedition.Status))

	if s.Progress == nil {
		b.WriteString(Dim("Not started.") + "\n")
		return b.String()
	}

	done := 0
	for _, pp := range s.PinProgress {
		if pp.Status == "PASSED" || pp.Status == "COMPLETED" {
			done++
		}
	}
	if len(s.PinProgress) > 0 {
		fmt.Fprintf(&b, "%s %s\n", Dim("progress:"), RenderProgress(float64(done)/float64(len(s.PinProgress)), 20))
	}
	if s.Progress.IsCompleted {
		score := ""
		if s.Progress.FinalScore != nil {
			score = fmt.Sprintf(" · score %.0f", *s.Progress.FinalScore)
		}
		fmt.Fprintf(&b, "%s%s\n", StyleGreen.Render("✔ Expedition complete"), score)
	}
	b.WriteString("\n")

	current := ""
	if s.Progress.CurrentPinID != nil {
		current = *s.Progress.CurrentPinID
	}
	status := make(map[string]contract.PinProgressView, len(s.PinProgress))
	for _, pp := range s.PinProgress {
		status[pp.PinID] = pp
	}

	rows := make([][]string, 0, len(s.Pins))
	for _, p := range s.Pins {
		pp := status[p.ID]
		marker := " "
		if p.ID == current {
			marker = StyleHeader.Render("➜")
		}
		notes := []string{}
		if pp.AttemptCount > 1 {
			notes = append(notes, fmt.Sprintf("attempt %d", pp.AttemptCount))
		}
		if pp.Late {
			notes = append(notes, StyleRed.Render("late"))
		}
		rows = append(rows, []string{
			marker,
			Dim(p.ID),
			p.Name,
			PinTypeBadge(p.Type),
			PinStatusIndicator(pp.Status),
			DueLabel(p.DueDate, now),
			strings.Join(notes, ", "),
		})
	}
	b.WriteString(RenderTable([]string{" ", "ID", "PIN", "TYPE", "STATUS", "DUE", "NOTES"}, rows))
	return b.String()
}

// FormatTransition summarises the effect of an attempt, submission or decision.
// names maps pin IDs to display names; missing names fall back to short IDs.
func FormatTransition(res *contract.TransitionResult, names map[string]string) string {
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return ShortID(id)
	}

	var b strings.Builder
	if !res.Changed {
		fmt.Fprintf(&b, "%s is already %s\n", name(res.PinProgress.PinID), PinStatusIndicator(res.PinProgress.Status))
	} else {
		fmt.Fprintf(&b, "%s → %s\n", name(res.PinProgress.PinID), PinStatusIndicator(res.PinProgress.Status))
	}
	for _, id := range res.Unlocked {
		fmt.Fprintf(&b, "  %s %s\n", StyleBlue.Render("unlocked"), name(id))
	}
	if r := res.Reward; r != nil {
		bonus := ""
		if r.EarlyBonus {
			bonus = StylePurple.Render(" incl. early bonus")
		}
		fmt.Fprintf(&b, "  %s %s%s %s\n", StyleGreen.Render("reward"), points(r.XP, r.GP), bonus, Dim(strings.ToLower(r.Status)))
	}
	if res.ExpeditionCompleted {
		score := ""
		if res.FinalScore != nil {
			score = fmt.Sprintf(" (score %.0f)", *res.FinalScore)
		}
		fmt.Fprintf(&b, "%s%s\n", StyleGreen.Render("✔ Expedition complete"), score)
	}
	return b.String()
}

// PinNames indexes the pins of a graph by ID.
func PinNames(g *contract.GraphView) map[string]string {
	names := make(map[string]string, len(g.Pins))
	for _, p := range g.Pins {
		names[p.ID] = p.Name
	}
	return names
}
