package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/expeditions/internal/contract"
)

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
)

func FormatExpeditionList(exps []contract.ExpeditionView) string {
	rows := make([][]string, 0, len(exps))
	for _, e := range exps {
		auto := Dim("manual")
		if e.AutoProgress {
			auto = "auto"
		}
		rows = append(rows, []string{
			Dim(e.ID),
			Bold(e.Name),
			ExpeditionStatusPill(e.Status),
			auto,
			e.CreatedAt.Format("2006-01-02"),
		})
	}
	return RenderTable([]string{"ID", "NAME", "STATUS", "REVIEW", "CREATED"}, rows)
}

func FormatExpedition(e contract.ExpeditionView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(e.Name), ExpeditionStatusPill(e.Status))
	fmt.Fprintf(&b, "%s %s\n", Dim("id:       "), e.ID)
	fmt.Fprintf(&b, "%s %s\n", Dim("classroom:"), e.ClassroomID)
	fmt.Fprintf(&b, "%s %t\n", Dim("auto:     "), e.AutoProgress)
	if e.MapImageURL != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("map:      "), e.MapImageURL)
	}
	if e.PublishedAt != nil {
		fmt.Fprintf(&b, "%s %s\n", Dim("published:"), e.PublishedAt.Format(time.RFC3339))
	}
	if e.ArchivedAt != nil {
		fmt.Fprintf(&b, "%s %s\n", Dim("archived: "), e.ArchivedAt.Format(time.RFC3339))
	}
	return b.String()
}

// FormatGraph renders the pin table followed by each pin's outgoing routes.
func FormatGraph(g *contract.GraphView, now time.Time) string {
	var b strings.Builder
	b.WriteString(FormatExpedition(g.Expedition))
	b.WriteString("\n")

	if len(g.Pins) == 0 {
		b.WriteString(Dim("No pins yet.") + "\n")
		return b.String()
	}

	b.WriteString(Header("Pins") + "\n")
	rows := make([][]string, 0, len(g.Pins))
	for _, p := range g.Pins {
		sub := Dim("no")
		if p.RequiresSubmission {
			sub = "yes"
		}
		rows = append(rows, []string{
			Dim(p.ID),
			PinTypeBadge(p.Type),
			p.Name,
			sub,
			points(p.RewardXP, p.RewardGP),
			DueLabel(p.DueDate, now),
		})
	}
	b.WriteString(RenderTable([]string{"ID", "TYPE", "NAME", "SUBMIT", "REWARD", "DUE"}, rows))

	b.WriteString("\n" + Header("Routes") + "\n")
	b.WriteString(renderRoutes(g))
	return b.String()
}

func renderRoutes(g *contract.GraphView) string {
	names := make(map[string]string, len(g.Pins))
	for _, p := range g.Pins {
		names[p.ID] = p.Name
	}
	out := make(map[string][]contract.ConnectionView)
	for _, c := range g.Connections {
		out[c.FromPinID] = append(out[c.FromPinID], c)
	}

	var b strings.Builder
	for _, p := range g.Pins {
		b.WriteString(Bold(p.Name) + "\n")
		edges := out[p.ID]
		for i, c := range edges {
			prefix := treeBranch
			if i == len(edges)-1 {
				prefix = treeCorner
			}
			fmt.Fprintf(&b, "%s%s %s %s\n", Dim(prefix), "→", names[c.ToPinID], conditionLabel(c.Condition))
		}
	}
	return b.String()
}

func conditionLabel(cond string) string {
	switch cond {
	case "on pass":
		return StyleGreen.Render("(" + cond + ")")
	case "on fail":
		return StyleRed.Render("(" + cond + ")")
	default:
		return Dim("(" + cond + ")")
	}
}

func FormatImportResult(res *contract.ImportResult) string {
	state := "as draft"
	if res.Published {
		state = "and published"
	}
	return fmt.Sprintf("Imported %s [%s] with %d pins and %d connections %s\n",
		Bold(res.Expedition.Name), res.Expedition.ID, res.PinCount, res.ConnectionCount, state)
}
