package hostkit

import (
	"encoding/base64"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"hostkit/pkg/hosttypes"
	"hostkit/pkg/namespace"
)

var (
	linuxOS   = regexp.MustCompile(`(?i)linux|sunos|solaris|illumos|bsd`)
	windowsOS = regexp.MustCompile(`(?i)winnt|windows`)
	macOS     = regexp.MustCompile(`(?i)mac|darwin`)
)

// App groups the application level helpers.
type App struct {
	k *Kit

	mu     sync.Mutex
	loaded map[string]bool
	upper  cases.Caser
}

func newApp(k *Kit) *App {
	return &App{
		k:      k,
		loaded: make(map[string]bool),
		upper:  cases.Upper(language.Und),
	}
}

// AppInfo returns the application info handle.
func (a *App) AppInfo() (hosttypes.ApplicationInfo, error) {
	return use[hosttypes.ApplicationInfo](a.k, "App.AppInfo", hosttypes.CapAppInfo)
}

// RuntimeInfo returns the runtime info handle.
func (a *App) RuntimeInfo() (hosttypes.RuntimeInfo, error) {
	return use[hosttypes.RuntimeInfo](a.k, "App.RuntimeInfo", hosttypes.CapRuntimeInfo)
}

// OSInfo returns the host operating system tag, "" when it is unknown.
func (a *App) OSInfo() string {
	ri, err := a.RuntimeInfo()
	if err != nil {
		return ""
	}
	name, err := try("App.OSInfo", func() (string, error) { return ri.OS(), nil })
	if err != nil {
		a.k.fail("App.OSInfo", err)
		return ""
	}
	return name
}

// IsLinux reports a Linux, BSD or Solaris host.
func (a *App) IsLinux() bool { return linuxOS.MatchString(a.OSInfo()) }

// IsWindows reports a Windows host.
func (a *App) IsWindows() bool { return windowsOS.MatchString(a.OSInfo()) }

// IsMac reports a macOS host.
func (a *App) IsMac() bool { return macOS.MatchString(a.OSInfo()) }

// Include loads the script at src and runs it with the entries of scope as
// globals. A relative src is resolved against the configured base directory;
// URLs are fetched. Globals created by the script are copied into scope.
func (a *App) Include(src string, scope namespace.Node) error {
	const op = "App.Include"
	src = strings.TrimSpace(src)
	if src == "" {
		return invalid(op, "script source is required")
	}
	if scope == nil {
		scope = namespace.Node{}
	}

	code, err := a.readScript(src)
	if err != nil {
		if hosttypes.KindOf(err) == hosttypes.KindNotFound {
			a.k.log("[Error] " + op + ": script not found (" + src + ")")
		}
		return err
	}

	loader, err := use[hosttypes.ScriptLoader](a.k, op, hosttypes.CapScriptLoader)
	if err != nil {
		return err
	}
	if err := tryDo(op, func() error { return loader.LoadSubScript(a.k.ctx, code, scope) }); err != nil {
		return a.k.fail(op, err).WithPath(src)
	}
	return nil
}

func (a *App) readScript(src string) (string, error) {
	if strings.Contains(src, "://") && !strings.HasPrefix(src, "file://") {
		return a.k.File.GetURLContents(src)
	}
	path := cleanPath(src)
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.k.settings.BaseDir, path)
	}
	data, err := a.k.File.ReadAllBytes(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// IncludeOnce is Include, skipped when a script with the same file name has
// already been included successfully.
func (a *App) IncludeOnce(src string, scope namespace.Node) error {
	key := url.QueryEscape(src[strings.LastIndex(src, "/")+1:])

	a.mu.Lock()
	done := a.loaded[key]
	a.mu.Unlock()
	if done {
		return nil
	}

	if err := a.Include(src, scope); err != nil {
		return err
	}
	a.mu.Lock()
	a.loaded[key] = true
	a.mu.Unlock()
	return nil
}

// QuitApplication asks the host to quit. A zero mode is QuitAttempt.
func (a *App) QuitApplication(mode hosttypes.QuitMode) error {
	const op = "App.QuitApplication"
	if mode == 0 {
		mode = hosttypes.QuitAttempt
	}
	startup, err := use[hosttypes.AppStartup](a.k, op, hosttypes.CapAppStartup)
	if err != nil {
		return err
	}
	if err := tryDo(op, func() error { return startup.Quit(mode) }); err != nil {
		return a.k.fail(op, err)
	}
	return nil
}

// RestartApplication quits and asks the host to start again.
func (a *App) RestartApplication() error {
	return a.QuitApplication(hosttypes.QuitRestart | hosttypes.QuitAttempt)
}

// GC asks memory pressure observers to minimize the heap. The notification
// is sent three times since observers may depend on each other.
func (a *App) GC() error {
	const op = "App.GC"
	obs, err := use[hosttypes.ObserverService](a.k, op, hosttypes.CapObserver)
	if err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		err := tryDo(op, func() error {
			obs.NotifyObservers(nil, hosttypes.TopicMemoryPressure, hosttypes.DataHeapMinimize)
			return nil
		})
		if err != nil {
			return a.k.fail(op, err)
		}
	}
	return nil
}

// RamBack is GC.
func (a *App) RamBack() error { return a.GC() }

// Log writes msg to the host console.
func (a *App) Log(msg string) {
	a.k.log(msg)
}

// UUID returns a new identifier without braces, "" on failure.
func (a *App) UUID() string {
	const op = "App.UUID"
	gen, err := use[hosttypes.UUIDGenerator](a.k, op, hosttypes.CapUUID)
	if err != nil {
		return ""
	}
	id, err := try(op, gen.GenerateUUID)
	if err != nil {
		a.k.fail(op, err)
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(id, "{"), "}")
}

// IdleTime returns how long the user has been idle.
func (a *App) IdleTime() (time.Duration, error) {
	const op = "App.IdleTime"
	idle, err := use[hosttypes.IdleService](a.k, op, hosttypes.CapIdle)
	if err != nil {
		return 0, err
	}
	d, err := try(op, func() (time.Duration, error) { return idle.IdleTime(), nil })
	if err != nil {
		return 0, a.k.fail(op, err)
	}
	return d, nil
}

// IdleObserver calls a function when the user has been idle for a while.
// It does nothing until Register is called.
type IdleObserver struct {
	app   *App
	fn    func(topic string, idle time.Duration)
	after time.Duration
}

// IdleObserver creates an observer that calls fn after d of inactivity.
func (a *App) IdleObserver(fn func(topic string, idle time.Duration), d time.Duration) *IdleObserver {
	return &IdleObserver{app: a, fn: fn, after: d}
}

// ObserveIdle implements hosttypes.IdleObserver. A panic in the callback is dropped.
func (o *IdleObserver) ObserveIdle(topic string, idle time.Duration) {
	if o.fn == nil {
		return
	}
	_ = tryDo("App.IdleObserver", func() error { o.fn(topic, idle); return nil })
}

// Register starts observing.
func (o *IdleObserver) Register() error {
	return o.with("App.IdleObserver.Register", func(s hosttypes.IdleService) { s.AddIdleObserver(o, o.after) })
}

// Unregister stops observing.
func (o *IdleObserver) Unregister() error {
	return o.with("App.IdleObserver.Unregister", func(s hosttypes.IdleService) { s.RemoveIdleObserver(o, o.after) })
}

func (o *IdleObserver) with(op string, fn func(hosttypes.IdleService)) error {
	k := o.app.k
	idle, err := use[hosttypes.IdleService](k, op, hosttypes.CapIdle)
	if err != nil {
		return err
	}
	if err := tryDo(op, func() error { fn(idle); return nil }); err != nil {
		return k.fail(op, err)
	}
	return nil
}

// Base64Encode returns the standard base64 encoding of s.
func (a *App) Base64Encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// Base64Decode decodes standard base64.
func (a *App) Base64Decode(s string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", hosttypes.WrapError("App.Base64Decode", hosttypes.KindInvalidArgument, err)
	}
	return string(data), nil
}

// UCFirst upper-cases the first character of s.
func (a *App) UCFirst(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return a.upper.String(s[:size]) + s[size:]
}

// UCWords upper-cases the first character of s and every character that
// follows a space.
func (a *App) UCWords(s string) string {
	var b strings.Builder
	start := true
	for _, r := range s {
		if start {
			b.WriteString(a.upper.String(string(r)))
		} else {
			b.WriteRune(r)
		}
		start = unicode.IsSpace(r)
	}
	return b.String()
}

// Now returns the current time in milliseconds since the epoch.
func (a *App) Now() int64 {
	return time.Now().UnixMilli()
}

// CopyText puts s on the system clipboard.
func (a *App) CopyText(s string) error {
	const op = "App.CopyText"
	cb, err := use[hosttypes.Clipboard](a.k, op, hosttypes.CapClipboard)
	if err != nil {
		return err
	}
	if err := tryDo(op, func() error { return cb.WriteText(s) }); err != nil {
		if hosttypes.KindOf(err) == hosttypes.KindUnsupported {
			return hosttypes.WrapError(op, "", err)
		}
		return a.k.fail(op, err)
	}
	return nil
}
