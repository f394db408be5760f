// internal/report/report.go

// Package report renders result tables and status lines for the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mwiater/thematic/internal/records"
)

// MaxCellRunes caps the width of a rendered cell; longer text is truncated.
const MaxCellRunes = 60

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))

	successText = color.New(color.FgGreen).SprintFunc()
	warnText    = color.New(color.FgYellow).SprintFunc()
	failText    = color.New(color.FgRed).SprintFunc()
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render draws t as a bordered table. When limit > 0 only the first limit rows
// are drawn and a trailing note says how many were omitted.
func Render(t records.Table, limit int) string {
	rows := t.Rows
	omitted := 0
	if limit > 0 && len(rows) > limit {
		omitted = len(rows) - limit
		rows = rows[:limit]
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(t.Columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, row := range rows {
		tbl.Row(cells(row, len(t.Columns))...)
	}

	out := tbl.Render()
	if t.Name != "" {
		out = titleStyle.Render(t.Name) + "\n" + out
	}
	if omitted > 0 {
		out += fmt.Sprintf("\n... %d more rows", omitted)
	}
	return out
}

// Write renders t to w followed by a newline.
func Write(w io.Writer, t records.Table, limit int) error {
	_, err := fmt.Fprintln(w, Render(t, limit))
	return err
}

func cells(row []any, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = truncate(Cell(row[i]), MaxCellRunes)
	}
	return out
}

// truncate shortens text to at most max runes, ending in an ellipsis, and
// folds newlines so each row stays on one line.
func truncate(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max-1]) + "…"
}

// Cell formats one table value for display.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return "NaN"
		}
		return strconv.FormatFloat(x, 'f', 4, 64)
	case float32:
		return Cell(float64(x))
	default:
		return fmt.Sprint(x)
	}
}

// Success formats a status line for a completed step.
func Success(format string, args ...any) string {
	return successText("✔ " + fmt.Sprintf(format, args...))
}

// Warn formats a status line for a partial result.
func Warn(format string, args ...any) string {
	return warnText("! " + fmt.Sprintf(format, args...))
}

// Failure formats a status line for a failed step or unverified item.
func Failure(format string, args ...any) string {
	return failText("✘ " + fmt.Sprintf(format, args...))
}

// MatchSummary describes how many candidates verified against the source.
func MatchSummary(matched, total int) string {
	switch {
	case total == 0:
		return Warn("no candidates to match")
	case matched == total:
		return Success("%d/%d candidates matched", matched, total)
	case matched == 0:
		return Failure("0/%d candidates matched", total)
	default:
		return Warn("%d/%d candidates matched", matched, total)
	}
}
