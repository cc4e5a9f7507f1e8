package services

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"hostkit/internal/logger"
)

// consoleHistoryLimit bounds the retained message history.
const consoleHistoryLimit = 256

// ConsoleService writes diagnostics to the styled console logger and keeps a short history.
type ConsoleService struct {
	mu          sync.Mutex
	initialized bool
	logger      *log.Logger
	history     []string
}

// NewConsoleService creates a new ConsoleService instance.
func NewConsoleService() *ConsoleService {
	return &ConsoleService{}
}

// Name returns the service name "console" for registration.
func (c *ConsoleService) Name() string {
	return "console"
}

// Initialize sets up the console logger.
func (c *ConsoleService) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger.NewStyledLogger("Console")
	c.initialized = true
	return nil
}

// LogMessage records msg. Messages starting with "[Error]" are logged at error level.
func (c *ConsoleService) LogMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, msg)
	if len(c.history) > consoleHistoryLimit {
		c.history = c.history[len(c.history)-consoleHistoryLimit:]
	}

	l := c.logger
	if l == nil {
		l = logger.Logger
	}
	if strings.HasPrefix(msg, "[Error]") {
		l.Error(msg)
		return
	}
	l.Info(msg)
}

// Messages returns a copy of the retained history.
func (c *ConsoleService) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.history))
	copy(out, c.history)
	return out
}
