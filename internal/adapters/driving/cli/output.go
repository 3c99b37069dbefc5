package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

// Output styles. Colours degrade to plain text when stdout is not a terminal.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).Width(16)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	boxStyle     = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1)
)

func field(label string, value any) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}

func status(ok bool, reason string) string {
	if ok {
		return successStyle.Render("success")
	}
	if reason == "" {
		return errorStyle.Render("failed")
	}
	return warningStyle.Render("nothing written: " + reason)
}

func box(title string, lines ...string) string {
	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{titleStyle.Render(title)}, lines...)...)
	return boxStyle.Render(body)
}

func renderRefreshSummary(s *domain.RefreshSummary) string {
	return box("Full refresh",
		field("Run", s.RunID),
		field("Spaces", s.SpacesSeen),
		field("Pages seen", s.PagesSeen),
		field("Nodes created", s.NodesCreated),
		field("Pages failed", s.PagesFailed),
		field("Writes failed", s.NodesFailed),
		field("Duration", s.Duration.Round(time.Millisecond)),
		field("Status", status(s.Success, s.Reason)),
	)
}

func renderBackfillSummary(s *domain.BackfillSummary) string {
	batches := make([]string, len(s.Batches))
	for i, b := range s.Batches {
		batches[i] = fmt.Sprint(b)
	}
	batchText := strings.Join(batches, ", ")
	if batchText == "" {
		batchText = mutedStyle.Render("none pending")
	}
	return box("Backfill "+s.Label,
		field("Batches", batchText),
		field("Nodes embedded", s.NodesEmbedded),
		field("Duration", s.Duration.Round(time.Millisecond)),
	)
}

func renderIngestSummary(s *domain.IngestSummary) string {
	failed := mutedStyle.Render("none")
	if len(s.TablesFailed) > 0 {
		failed = errorStyle.Render(strings.Join(s.TablesFailed, ", "))
	}
	return box("Ingest "+s.Label,
		field("Run", s.RunID),
		field("Tables", s.Tables),
		field("Rows read", s.RowsRead),
		field("Nodes created", s.NodesCreated),
		field("Tables failed", failed),
		field("Duration", s.Duration.Round(time.Millisecond)),
		field("Status", status(s.Success(), "")),
	)
}

func renderIndexes(indexes []domain.IndexInfo, constraints []domain.Constraint) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Indexes"))
	b.WriteString("\n")
	if len(indexes) == 0 {
		b.WriteString(mutedStyle.Render("  (none)"))
		b.WriteString("\n")
	}
	for _, idx := range indexes {
		line := fmt.Sprintf("  %-28s %-9s %-12s :%s(%s)",
			idx.Name, idx.Type, idx.EntityType, strings.Join(idx.Labels, "|"), strings.Join(idx.Properties, ", "))
		if idx.Dimensions > 0 {
			line += fmt.Sprintf(" %d dims", idx.Dimensions)
		}
		if idx.Similarity != "" {
			line += " " + idx.Similarity
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Constraints"))
	b.WriteString("\n")
	if len(constraints) == 0 {
		b.WriteString(mutedStyle.Render("  (none)"))
		b.WriteString("\n")
	}
	for _, c := range constraints {
		b.WriteString(fmt.Sprintf("  %-28s %-12s :%s(%s)\n",
			c.Name, c.Type, strings.Join(c.Labels, "|"), strings.Join(c.Properties, ", ")))
	}
	return b.String()
}

func renderHits(hits []domain.SearchHit) string {
	if len(hits) == 0 {
		return "No results found."
	}

	var b strings.Builder
	b.WriteString("Results:\n\n")
	for i, hit := range hits {
		b.WriteString(fmt.Sprintf("  [%d] %s %s\n", i+1, titleStyle.Render(hitTitle(hit)), mutedStyle.Render(fmt.Sprintf("(%.3f)", hit.Score))))
		for _, line := range strings.Split(strings.TrimPrefix(hit.Text, "\n"), "\n") {
			b.WriteString("      " + line + "\n")
		}
		if len(hit.Metadata) > 0 {
			keys := make([]string, 0, len(hit.Metadata))
			for k := range hit.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, len(keys))
			for j, k := range keys {
				parts[j] = fmt.Sprintf("%s=%v", k, hit.Metadata[k])
			}
			b.WriteString("      " + mutedStyle.Render(strings.Join(parts, " ")) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// hitTitle picks a heading for a hit from its composed text.
func hitTitle(hit domain.SearchHit) string {
	for _, prefix := range []string{"title: ", "name: "} {
		for _, line := range strings.Split(hit.Text, "\n") {
			if v, ok := strings.CutPrefix(line, prefix); ok && v != "" {
				return v
			}
		}
	}
	return hit.ElementID
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
