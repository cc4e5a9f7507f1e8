package services

import (
	"sync"

	"hostkit/internal/logger"
)

// ClipboardService exchanges text with the system clipboard. On Linux
// builds every call fails with KindUnsupported.
type ClipboardService struct {
	once    sync.Once
	initErr error
}

// NewClipboardService creates the clipboard component.
func NewClipboardService() *ClipboardService {
	return &ClipboardService{}
}

// Name returns the service name "clipboard" for registration.
func (c *ClipboardService) Name() string {
	return "clipboard"
}

// Initialize defers clipboard setup until first use so headless hosts start cleanly.
func (c *ClipboardService) Initialize() error {
	return nil
}

// Available reports whether this build has clipboard support.
func (c *ClipboardService) Available() bool {
	return clipboardAvailable
}

func (c *ClipboardService) init() error {
	c.once.Do(func() {
		c.initErr = initClipboard()
		if c.initErr != nil {
			logger.Debug("Clipboard unavailable", "error", c.initErr)
		}
	})
	return c.initErr
}

// WriteText replaces the clipboard contents.
func (c *ClipboardService) WriteText(text string) error {
	if err := c.init(); err != nil {
		return err
	}
	return writeClipboard(text)
}

// ReadText returns the clipboard contents.
func (c *ClipboardService) ReadText() (string, error) {
	if err := c.init(); err != nil {
		return "", err
	}
	return readClipboard()
}
