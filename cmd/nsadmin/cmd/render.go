package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/and161185/nullscape-admin/internal/toast"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// toastPrinter renders each toast once, when it first appears on the bus.
type toastPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	seen int64
}

func newToastPrinter(out io.Writer) *toastPrinter {
	return &toastPrinter{out: out}
}

func (p *toastPrinter) render(items []toast.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range items {
		if it.ID <= p.seen {
			continue
		}
		p.seen = it.ID
		icon, style := toastLook(it.Kind)
		fmt.Fprintln(p.out, style.Render(icon), it.Message)
	}
}

func toastLook(k toast.Kind) (string, lipgloss.Style) {
	switch k {
	case toast.Success:
		return "✓", successStyle
	case toast.Error:
		return "✗", errorStyle
	case toast.Warning:
		return "!", warningStyle
	default:
		return "i", infoStyle
	}
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
