package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"hostkit/pkg/hosttypes"
)

// nativeWindow is a headless window record.
type nativeWindow struct {
	table    *windowTable
	id       string
	name     string
	url      string
	kind     string
	features hosttypes.Features
	parent   hosttypes.Window
	args     []any
}

func (w *nativeWindow) ID() string                   { return w.id }
func (w *nativeWindow) Name() string                 { return w.name }
func (w *nativeWindow) URL() string                  { return w.url }
func (w *nativeWindow) Type() string                 { return w.kind }
func (w *nativeWindow) Features() hosttypes.Features { return w.features }
func (w *nativeWindow) Parent() hosttypes.Window     { return w.parent }
func (w *nativeWindow) Args() []any                  { return w.args }

// Close removes the window from its table.
func (w *nativeWindow) Close() error {
	if !w.table.remove(w) {
		return fmt.Errorf("window %s already closed", w.id)
	}
	return nil
}

// windowTable is shared by the watcher and the mediator. Windows are kept in
// z-order, most recently opened or focused last.
type windowTable struct {
	mu      sync.RWMutex
	windows []*nativeWindow
	newID   func() string
}

func newWindowTable(newID func() string) *windowTable {
	if newID == nil {
		newID = uuid.NewString
	}
	return &windowTable{newID: newID}
}

func (t *windowTable) remove(w *nativeWindow) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cur := range t.windows {
		if cur == w {
			t.windows = append(t.windows[:i], t.windows[i+1:]...)
			return true
		}
	}
	return false
}

// WindowWatcherService opens headless windows.
type WindowWatcherService struct {
	table *windowTable
}

// Name returns the service name "window-watcher" for registration.
func (s *WindowWatcherService) Name() string {
	return "window-watcher"
}

// Initialize is a no-op.
func (s *WindowWatcherService) Initialize() error {
	return nil
}

// OpenWindow opens a window. A named window that is already open is
// retargeted and raised instead of duplicated; "_blank" always opens a new one.
func (s *WindowWatcherService) OpenWindow(parent hosttypes.Window, url, name string, features hosttypes.Features, args []any) (hosttypes.Window, error) {
	if url == "" {
		return nil, hosttypes.NewError("WindowWatcher.OpenWindow", hosttypes.KindInvalidArgument, "url is required")
	}

	t := s.table
	t.mu.Lock()
	defer t.mu.Unlock()

	if name != "" && name != "_blank" {
		for i, w := range t.windows {
			if w.name == name {
				w.url = url
				w.features = features
				w.args = args
				t.windows = append(append(t.windows[:i:i], t.windows[i+1:]...), w)
				return w, nil
			}
		}
	}

	w := &nativeWindow{
		table:    t,
		id:       t.newID(),
		name:     name,
		url:      url,
		kind:     windowType(features),
		features: features,
		parent:   parent,
		args:     args,
	}
	t.windows = append(t.windows, w)
	return w, nil
}

func windowType(f hosttypes.Features) string {
	if v, ok := f.Get("windowtype"); ok && v != "" {
		return v
	}
	if f.Enabled("fullscreen") {
		return "fullscreen"
	}
	if f.Enabled("dialog") {
		return "dialog"
	}
	return "window"
}

// WindowMediatorService enumerates open windows.
type WindowMediatorService struct {
	table *windowTable
}

// Name returns the service name "window-mediator" for registration.
func (s *WindowMediatorService) Name() string {
	return "window-mediator"
}

// Initialize is a no-op.
func (s *WindowMediatorService) Initialize() error {
	return nil
}

// MostRecentWindow returns the top window of windowType, any type when empty.
func (s *WindowMediatorService) MostRecentWindow(windowType string) (hosttypes.Window, error) {
	s.table.mu.RLock()
	defer s.table.mu.RUnlock()
	for i := len(s.table.windows) - 1; i >= 0; i-- {
		w := s.table.windows[i]
		if windowType == "" || w.kind == windowType {
			return w, nil
		}
	}
	return nil, hosttypes.NewError("WindowMediator.MostRecentWindow", hosttypes.KindNotFound, "no window of type %q", windowType)
}

// Windows lists open windows of windowType, oldest first.
func (s *WindowMediatorService) Windows(windowType string) []hosttypes.Window {
	s.table.mu.RLock()
	defer s.table.mu.RUnlock()
	var out []hosttypes.Window
	for _, w := range s.table.windows {
		if windowType == "" || w.kind == windowType {
			out = append(out, w)
		}
	}
	return out
}

// NewWindowServices creates a watcher and mediator sharing one window table.
func NewWindowServices(newID func() string) (*WindowWatcherService, *WindowMediatorService) {
	t := newWindowTable(newID)
	return &WindowWatcherService{table: t}, &WindowMediatorService{table: t}
}
