package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/depweight/pkg/analysis"
	"github.com/matzehuels/depweight/pkg/reportstore"
)

var headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// reportTable renders one row per report: own size, unsafe verdict, and the
// size of all and of exclusive dependencies.
func reportTable(reports []analysis.CodeReport) string {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.Name,
			r.Version,
			formatCount(r.LOC.LanguageLOC),
			unsafeCell(r),
			strconv.FormatUint(r.Dependencies.TotalCount, 10),
			formatCount(r.Dependencies.SummedLOC.LanguageLOC),
			strconv.FormatUint(r.Exclusive.TotalCount, 10),
			formatCount(r.Exclusive.SummedLOC.LanguageLOC),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Version", "LOC", "Unsafe", "Deps", "Deps LOC", "Excl", "Excl LOC").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case col == 0 && reports[row].IsDirect:
				return base.Foreground(colorWhite)
			case col == 3 && usesUnsafe(reports[row]):
				return base.Foreground(colorYellow)
			case col >= 2:
				return base.Foreground(colorCyan).Align(lipgloss.Right)
			}
			return base.Foreground(colorGray)
		}).
		Render()
}

// runsTable renders stored run summaries.
func runsTable(runs []reportstore.Summary) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{r.ID, r.Project, strconv.Itoa(r.Reports), formatRelativeTime(r.CreatedAt, time.Now())})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Run", "Project", "Reports", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 {
				return StyleNumber
			}
			if col == 3 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func unsafeCell(r analysis.CodeReport) string {
	u, ok := r.Unsafe.Get()
	switch {
	case !ok:
		return "-"
	case u.ForbidsUnsafe:
		return "forbidden"
	case u.UsesUnsafe():
		return strconv.FormatUint(u.Used.Expressions, 10) + " exprs"
	}
	return "none"
}

func usesUnsafe(r analysis.CodeReport) bool {
	u, ok := r.Unsafe.Get()
	return ok && u.UsesUnsafe()
}

// formatCount abbreviates large line counts: 950, 12.3k, 4.1M.
func formatCount(n uint64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	}
	return strconv.FormatUint(n, 10)
}

func formatRelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
