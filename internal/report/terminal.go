// ABOUTME: Terminal rendering of the dashboard report with lipgloss.
// ABOUTME: Prints the KPI strip, both bar charts and the top-N table.

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const barColumns = 40

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginBottom(1)
	metaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	kpiStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1).
			Align(lipgloss.Center)
	kpiLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6ADC8"))
	kpiValueStyle = lipgloss.NewStyle().Bold(true)
	headingStyle  = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
	labelStyle    = lipgloss.NewStyle().Width(12)
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
)

// RenderTerminal writes the report to w.
func RenderTerminal(w io.Writer, r *Report) error {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(r.Title))
	sb.WriteString("\n")
	sb.WriteString(metaStyle.Render(fmt.Sprintf("seed %d · %d records · generated %s",
		r.Key.Seed, r.Key.Count, r.GeneratedAt.Format("2006-01-02 15:04:05 MST"))))
	sb.WriteString("\n")

	cards := make([]string, len(r.KPIs))
	for i, k := range r.KPIs {
		cards[i] = kpiStyle.Render(kpiLabelStyle.Render(k.Label) + "\n" + kpiValueStyle.Render(k.Display))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	sb.WriteString("\n")

	for _, c := range []Chart{r.ScoreByType, r.ScoreByBounce} {
		sb.WriteString(renderChart(c))
	}

	sb.WriteString(headingStyle.Render(fmt.Sprintf("Top %d Contacts", r.TopN)))
	sb.WriteString("\n")
	sb.WriteString(renderTop(r))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func renderChart(c Chart) string {
	var sb strings.Builder
	sb.WriteString(headingStyle.Render(c.Title))
	sb.WriteString("\n")
	if len(c.Bars) == 0 {
		sb.WriteString(metaStyle.Render("no data"))
		sb.WriteString("\n")
		return sb.String()
	}
	for _, b := range c.Bars {
		n := int(b.Width / 100 * barColumns)
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color)).Render(strings.Repeat("█", n))
		sb.WriteString(labelStyle.Render(b.Label))
		sb.WriteString(" ")
		sb.WriteString(bar)
		sb.WriteString(" ")
		sb.WriteString(b.Display)
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderTop(r *Report) string {
	rows := make([][]string, len(r.Top))
	for i, l := range r.Top {
		rows[i] = []string{strconv.Itoa(i + 1), l.Name, l.Email, string(l.Type), strconv.FormatFloat(l.Score, 'f', 2, 64)}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(metaStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("#", "Name", "Email", "Type", "Score").
		Rows(rows...)
	return t.String()
}
