package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"hostkit/pkg/hosttypes"
)

// ScriptLoaderService runs JavaScript sources in a fresh goja runtime. Scope
// entries become globals; globals the script defines or changes are written
// back into scope after it finishes.
type ScriptLoaderService struct {
	console hosttypes.Console
}

// NewScriptLoaderService creates a loader whose console.log goes to console.
// A nil console discards script output.
func NewScriptLoaderService(console hosttypes.Console) *ScriptLoaderService {
	return &ScriptLoaderService{console: console}
}

// Name returns the service name "jssubscript-loader" for registration.
func (s *ScriptLoaderService) Name() string {
	return "jssubscript-loader"
}

// Initialize is a no-op.
func (s *ScriptLoaderService) Initialize() error {
	return nil
}

// LoadSubScript evaluates src. Cancelling ctx interrupts the script.
func (s *ScriptLoaderService) LoadSubScript(ctx context.Context, src string, scope map[string]any) error {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	defer close(done)

	console := vm.NewObject()
	if err := console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		if s.console != nil {
			s.console.LogMessage(strings.Join(parts, " "))
		}
		return goja.Undefined()
	}); err != nil {
		return fmt.Errorf("failed to install console: %w", err)
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to install console: %w", err)
	}

	for name, value := range scope {
		if err := vm.Set(name, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}

	global := vm.GlobalObject()
	before := make(map[string]bool)
	for _, key := range global.Keys() {
		before[key] = true
	}

	if _, err := vm.RunString(src); err != nil {
		if ie, ok := err.(*goja.InterruptedError); ok {
			return fmt.Errorf("script interrupted: %v", ie.Value())
		}
		return fmt.Errorf("script error: %w", err)
	}

	if scope == nil {
		return nil
	}
	for _, key := range global.Keys() {
		if key == "console" {
			continue
		}
		_, inScope := scope[key]
		if before[key] && !inScope {
			continue
		}
		scope[key] = global.Get(key).Export()
	}
	return nil
}
