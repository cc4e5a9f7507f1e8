package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// printer writes command results as plain, styled or JSON text.
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	json   bool
	styled bool
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	p := &printer{w: w, json: asJSON}
	if f, ok := w.(*os.File); ok && !asJSON && os.Getenv("NO_COLOR") == "" {
		p.styled = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

// value prints a single result. In JSON mode v is encoded as is.
func (p *printer) value(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		return p.encode(v)
	}
	_, err := fmt.Fprintln(p.w, v)
	return err
}

// fields prints label/value pairs sorted by label.
func (p *printer) fields(m map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		return p.encode(m)
	}
	keys := make([]string, 0, len(m))
	width := 0
	for k := range m {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		label := p.render(labelStyle, k+":")
		pad := strings.Repeat(" ", width-len(k)+1)
		if _, err := fmt.Fprintf(p.w, "%s%s%v\n", label, pad, m[k]); err != nil {
			return err
		}
	}
	return nil
}

// rows prints a table without a header.
func (p *printer) rows(rows [][]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		return p.encode(rows)
	}
	widths := map[int]int{}
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], len(c))
		}
	}
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			if i == len(r)-1 {
				cells[i] = c
				continue
			}
			cells[i] = c + strings.Repeat(" ", widths[i]-len(c))
		}
		if len(cells) > 0 {
			cells[0] = p.render(labelStyle, cells[0])
		}
		if _, err := fmt.Fprintln(p.w, strings.Join(cells, "  ")); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) success(msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		return p.encode(map[string]any{"ok": true, "message": msg})
	}
	_, err := fmt.Fprintln(p.w, p.render(successStyle, msg))
	return err
}

func (p *printer) failure(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.json {
		_ = p.encode(map[string]any{"ok": false, "error": msg})
		return
	}
	fmt.Fprintln(p.w, p.render(errorStyle, msg))
}

func (p *printer) hint(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.json {
		fmt.Fprintln(p.w, p.render(dimStyle, msg))
	}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
