package hostkit

import (
	"fmt"
	"sort"
	"sync"

	"hostkit/pkg/derive"
	"hostkit/pkg/hosttypes"
	"hostkit/pkg/mixin"
)

// Controller method names that are never treated as commands.
var reservedCommands = map[string]bool{
	"init":             true,
	"supportsCommand":  true,
	"isCommandEnabled": true,
	"doCommand":        true,
	"onEvent":          true,
}

func commandName(args []any) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("command name is required")
	}
	cmd, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("command name must be a string, got %T", args[0])
	}
	return cmd, nil
}

func enabled(self *derive.Instance, cmd string) bool {
	v, err := try("Controllers.isCommandEnabled", func() (any, error) {
		return self.Call("isCommandEnabled", cmd)
	})
	ok, _ := v.(bool)
	return err == nil && ok
}

// ControllerAdapter is the base class for command controllers. Subclasses
// add commands as methods and may override isCommandEnabled.
var ControllerAdapter = derive.Derive("ControllerAdapter").
	Method("init", func(self *derive.Instance, args ...any) (any, error) {
		if len(args) > 0 {
			self.Set("app", args[0])
		}
		return nil, nil
	}).
	Method("supportsCommand", func(self *derive.Instance, args ...any) (any, error) {
		cmd, err := commandName(args)
		if err != nil {
			return false, err
		}
		return !reservedCommands[cmd] && self.Has(cmd), nil
	}).
	Method("isCommandEnabled", func(self *derive.Instance, args ...any) (any, error) {
		return true, nil
	}).
	Method("doCommand", func(self *derive.Instance, args ...any) (any, error) {
		cmd, err := commandName(args)
		if err != nil {
			return nil, err
		}
		if reservedCommands[cmd] || !self.Has(cmd) || !enabled(self, cmd) {
			return nil, nil
		}
		return self.Call(cmd, args[1:]...)
	}).
	Method("onEvent", func(self *derive.Instance, args ...any) (any, error) {
		cmd, err := commandName(args)
		if err != nil {
			return nil, err
		}
		if !self.Has(cmd) || !enabled(self, cmd) {
			return nil, nil
		}
		return self.Call(cmd, args[1:]...)
	}).
	MustBuild()

// Controllers dispatches commands to the controllers appended to it, in order.
type Controllers struct {
	k *Kit

	mu          sync.RWMutex
	controllers []*derive.Instance
}

func newControllers(k *Kit) *Controllers {
	return &Controllers{k: k}
}

// Define creates a ControllerAdapter subclass. The command maps are merged
// left to right; every value must be a derive.Method.
func (c *Controllers) Define(name string, commands ...map[string]any) (*derive.Class, error) {
	const op = "Controllers.Define"
	if name == "" {
		return nil, invalid(op, "name is required")
	}
	merged := mixin.Extend(nil, commands...)

	names := make([]string, 0, len(merged))
	for n := range merged {
		names = append(names, n)
	}
	sort.Strings(names)

	b := derive.Derive(name).From(ControllerAdapter)
	for _, n := range names {
		m, ok := merged[n].(derive.Method)
		if !ok {
			fn, isFunc := merged[n].(func(*derive.Instance, ...any) (any, error))
			if !isFunc {
				return nil, invalid(op, "command %q is %T, not a method", n, merged[n])
			}
			m = fn
		}
		b.Method(n, m)
	}
	return b.Build()
}

// AppendController adds ctrl to the dispatch list and calls its init
// method with app.
func (c *Controllers) AppendController(ctrl *derive.Instance, app any) error {
	const op = "Controllers.AppendController"
	if ctrl == nil {
		return invalid(op, "controller is required")
	}

	c.mu.Lock()
	c.controllers = append(c.controllers, ctrl)
	c.mu.Unlock()

	if !ctrl.Has("init") {
		return nil
	}
	if _, err := try(op, func() (any, error) { return ctrl.Call("init", app) }); err != nil {
		return c.k.fail(op, err)
	}
	return nil
}

// RemoveController drops ctrl from the dispatch list.
func (c *Controllers) RemoveController(ctrl *derive.Instance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cur := range c.controllers {
		if cur == ctrl {
			c.controllers = append(c.controllers[:i], c.controllers[i+1:]...)
			return
		}
	}
}

func (c *Controllers) snapshot() []*derive.Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*derive.Instance(nil), c.controllers...)
}

func supports(ctrl *derive.Instance, cmd string) bool {
	v, err := try("Controllers.supportsCommand", func() (any, error) {
		return ctrl.Call("supportsCommand", cmd)
	})
	ok, _ := v.(bool)
	return err == nil && ok
}

// GetControllerForCommand returns the first controller supporting cmd.
func (c *Controllers) GetControllerForCommand(cmd string) (*derive.Instance, bool) {
	for _, ctrl := range c.snapshot() {
		if supports(ctrl, cmd) {
			return ctrl, true
		}
	}
	return nil, false
}

// DoCommand runs cmd through the doCommand method of the first controller
// that supports it and has it enabled. No such controller is a logged
// KindNotFound failure.
func (c *Controllers) DoCommand(cmd string, args ...any) (any, error) {
	const op = "Controllers.DoCommand"
	if cmd == "" {
		return nil, invalid(op, "command is required")
	}

	for _, ctrl := range c.snapshot() {
		if !supports(ctrl, cmd) || !enabled(ctrl, cmd) {
			continue
		}
		v, err := try(op, func() (any, error) { return ctrl.Call("doCommand", append([]any{cmd}, args...)...) })
		if err != nil {
			return nil, c.k.fail(op, err)
		}
		return v, nil
	}
	return nil, c.k.fail(op, hosttypes.NewError(op, hosttypes.KindNotFound, "unknown command: %s", cmd))
}
