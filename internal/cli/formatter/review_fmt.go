package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/expeditions/internal/contract"
)

func FormatPendingReviews(reviews []contract.PendingReview, now time.Time) string {
	rows := make([][]string, 0, len(reviews))
	for _, r := range reviews {
		submitted := HumanTimestamp(r.Submission.SubmittedAt, now)
		if r.Submission.Late {
			submitted += " " + StyleRed.Render("late")
		}
		rows = append(rows, []string{
			r.StudentProfileID,
			Dim(r.PinID),
			r.PinName,
			PinTypeBadge(r.PinType),
			fmt.Sprintf("%d", r.AttemptCount),
			fmt.Sprintf("%d file(s)", len(r.Submission.Files)),
			submitted,
		})
	}
	return RenderTable([]string{"STUDENT", "PIN ID", "PIN", "TYPE", "ATTEMPT", "FILES", "SUBMITTED"}, rows)
}

func FormatSubmissions(subs []contract.SubmissionView, now time.Time) string {
	var b strings.Builder
	for i, s := range subs {
		late := ""
		if s.Late {
			late = " " + StyleRed.Render("late")
		}
		fmt.Fprintf(&b, "%s %s%s\n", StyleHeader.Render(fmt.Sprintf("#%d", i+1)), HumanTimestamp(s.SubmittedAt, now), late)
		for _, f := range s.Files {
			fmt.Fprintf(&b, "  %s\n", f)
		}
		if s.Comment != "" {
			fmt.Fprintf(&b, "  %s\n", Dim(s.Comment))
		}
	}
	return b.String()
}

func FormatRewards(grants []contract.RewardView) string {
	rows := make([][]string, 0, len(grants))
	xp, gp := 0, 0
	for _, g := range grants {
		status := StyleGreen.Render(g.Status)
		if g.Status != "DELIVERED" {
			status = StyleYellow.Render(g.Status)
			if g.LastError != "" {
				status += " " + Dim(g.LastError)
			}
		} else {
			xp += g.XP
			gp += g.GP
		}
		bonus := ""
		if g.EarlyBonus {
			bonus = StylePurple.Render("early")
		}
		rows = append(rows, []string{Dim(ShortID(g.GrantID)), points(g.XP, g.GP), bonus, status})
	}
	return RenderTable([]string{"GRANT", "POINTS", "BONUS", "STATUS"}, rows) +
		fmt.Sprintf("\n%s %s\n", Dim("delivered:"), points(xp, gp))
}

func FormatRetryReport(r *contract.RetryReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Retried %d grant(s): %s, %s\n",
		r.Attempted,
		StyleGreen.Render(fmt.Sprintf("%d delivered", r.Delivered)),
		failedLabel(r.Failed))
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  %s\n", Dim(e))
	}
	return b.String()
}

func failedLabel(n int) string {
	text := fmt.Sprintf("%d failed", n)
	if n == 0 {
		return Dim(text)
	}
	return StyleRed.Render(text)
}

func FormatRoster(members []contract.RosterMemberView) string {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		role := StyleFg.Render(m.Role)
		if m.Role == "TEACHER" {
			role = StyleHeader.Render(m.Role)
		}
		rows = append(rows, []string{m.ProfileID, role, m.JoinedAt.Format("2006-01-02")})
	}
	return RenderTable([]string{"PROFILE", "ROLE", "JOINED"}, rows)
}
