package services

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"hostkit/pkg/hosttypes"
)

var (
	promptTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	promptTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	promptHintStyle  = lipgloss.NewStyle().Faint(true)
)

// PromptService shows prompts on a text terminal. Output is styled only when
// the writer is a terminal.
type PromptService struct {
	mu     sync.Mutex
	in     *bufio.Reader
	out    io.Writer
	styled bool
	idle   *IdleService
}

// NewPromptService creates a prompt service reading from in and writing to out.
func NewPromptService(in io.Reader, out io.Writer) *PromptService {
	return &PromptService{in: bufio.NewReader(in), out: out}
}

// Name returns the service name "prompt-service" for registration.
func (p *PromptService) Name() string {
	return "prompt-service"
}

// Initialize detects whether output goes to a terminal.
func (p *PromptService) Initialize() error {
	if f, ok := p.out.(*os.File); ok {
		p.styled = term.IsTerminal(int(f.Fd()))
	}
	return nil
}

// SetIdleService lets user input reset the idle timer.
func (p *PromptService) SetIdleService(idle *IdleService) {
	p.idle = idle
}

func (p *PromptService) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *PromptService) header(parent hosttypes.Window, title, text string) error {
	if parent != nil {
		title = fmt.Sprintf("%s (%s)", title, parent.Name())
	}
	if title != "" {
		if _, err := fmt.Fprintln(p.out, p.render(promptTitleStyle, title)); err != nil {
			return err
		}
	}
	if text != "" {
		if _, err := fmt.Fprintln(p.out, p.render(promptTextStyle, text)); err != nil {
			return err
		}
	}
	return nil
}

// readLine returns the next input line and false at end of input.
func (p *PromptService) readLine() (string, bool, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, err
	}
	if err == io.EOF && line == "" {
		return "", false, nil
	}
	if p.idle != nil {
		p.idle.Touch()
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}

// Alert prints a message.
func (p *PromptService) Alert(parent hosttypes.Window, title, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.header(parent, title, text)
}

// Confirm asks a yes/no question. End of input answers no.
func (p *PromptService) Confirm(parent hosttypes.Window, title, text string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.header(parent, title, text); err != nil {
		return false, err
	}
	if _, err := fmt.Fprint(p.out, p.render(promptHintStyle, "[y/N] ")); err != nil {
		return false, err
	}
	line, ok, err := p.readLine()
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Prompt asks for a line of text. An empty answer keeps value; end of input cancels.
func (p *PromptService) Prompt(parent hosttypes.Window, title, text, value string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.header(parent, title, text); err != nil {
		return "", false, err
	}
	hint := "> "
	if value != "" {
		hint = fmt.Sprintf("[%s] > ", value)
	}
	if _, err := fmt.Fprint(p.out, p.render(promptHintStyle, hint)); err != nil {
		return "", false, err
	}
	line, ok, err := p.readLine()
	if err != nil || !ok {
		return "", false, err
	}
	if line == "" {
		return value, true, nil
	}
	return line, true, nil
}

// Select asks the user to pick one entry of list by its 1-based number.
func (p *PromptService) Select(parent hosttypes.Window, title, text string, list []string, selected int) (int, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(list) == 0 {
		return -1, false, hosttypes.NewError("PromptService.Select", hosttypes.KindInvalidArgument, "empty selection list")
	}
	if err := p.header(parent, title, text); err != nil {
		return -1, false, err
	}
	for i, item := range list {
		marker := " "
		if i == selected {
			marker = "*"
		}
		if _, err := fmt.Fprintf(p.out, "%s %d) %s\n", marker, i+1, item); err != nil {
			return -1, false, err
		}
	}

	for {
		if _, err := fmt.Fprint(p.out, p.render(promptHintStyle, "# ")); err != nil {
			return -1, false, err
		}
		line, ok, err := p.readLine()
		if err != nil || !ok {
			return -1, false, err
		}
		line = strings.TrimSpace(line)
		if line == "" && selected >= 0 && selected < len(list) {
			return selected, true, nil
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(list) {
			return n - 1, true, nil
		}
		if _, err := fmt.Fprintf(p.out, "enter a number between 1 and %d\n", len(list)); err != nil {
			return -1, false, err
		}
	}
}
