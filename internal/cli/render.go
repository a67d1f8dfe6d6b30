package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lapkeu/internal/core"
	"lapkeu/internal/report"
	"lapkeu/internal/repository"
)

var periodTitles = map[report.Period]string{
	report.Daily:   "Laporan Harian",
	report.Weekly:  "Laporan Mingguan",
	report.Monthly: "Laporan Bulanan",
	report.Yearly:  "Laporan Tahunan",
}

// RenderSummary draws the totals box of a summary.
func RenderSummary(s report.Summary) string {
	month := "Semua bulan"
	if s.Month != report.AllMonths {
		month = core.MonthLabel(s.Month)
	}
	lines := []string{
		TitleStyle.Render("Ringkasan · " + month),
		fmt.Sprintf("Pemasukan    %s  (%.1f%%)", IncomeStyle.Render(core.FormatIDR(s.Income)), s.Share.Income),
		fmt.Sprintf("Pengeluaran  %s  (%.1f%%)", ExpenseStyle.Render(core.FormatIDR(s.Expense)), s.Share.Expense),
		fmt.Sprintf("Saldo        %s", signed(s.Balance)),
	}
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderPeriodic draws one periodic report as a table.
func RenderPeriodic(t report.Table) string {
	title := TitleStyle.Render(periodTitles[t.Period])
	if len(t.Rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, SubtitleStyle.Render("Belum ada data"))
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, []string{
			r.Label,
			IncomeStyle.Render(core.FormatIDR(r.Income)),
			ExpenseStyle.Render(core.FormatIDR(r.Expense)),
			signed(r.Net),
		})
	}
	table := renderTable([]string{"Periode", "Pemasukan", "Pengeluaran", "Selisih"}, rows, lipgloss.Left, lipgloss.Right, lipgloss.Right, lipgloss.Right)
	return lipgloss.JoinVertical(lipgloss.Left, title, table)
}

// RenderDrafts lists parsed drafts, used by the import dry run.
func RenderDrafts(drafts []repository.Draft) string {
	rows := make([][]string, 0, len(drafts))
	for _, d := range drafts {
		amount := IncomeStyle.Render(core.FormatIDR(int64(d.Amount)))
		if d.Type == core.Expense {
			amount = ExpenseStyle.Render(core.FormatIDR(-int64(d.Amount)))
		}
		rows = append(rows, []string{d.Date.String(), core.SectorLabel(d.Sector), d.Note, amount})
	}
	return renderTable([]string{"Tanggal", "Sektor", "Catatan", "Jumlah"}, rows, lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Right)
}

func signed(n int64) string {
	if n < 0 {
		return ExpenseStyle.Render(core.FormatIDR(n))
	}
	return IncomeStyle.Render(core.FormatIDR(n))
}

// renderTable pads every column to its widest cell. align holds one
// position per column.
func renderTable(header []string, rows [][]string, align ...lipgloss.Position) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			pos := lipgloss.Left
			if i < len(align) {
				pos = align[i]
			}
			parts[i] = TableCellStyle.Width(widths[i] + 2).Align(pos).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(line(header)))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(line(row))
	}
	return b.String()
}
