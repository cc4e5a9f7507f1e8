package hostkit

import (
	"hostkit/internal/config"
	"hostkit/pkg/hosttypes"
)

// Default feature strings.
const (
	FeaturesWindow     = "chrome,centerscreen"
	FeaturesDialog     = "chrome,dialog,dependent=yes,resize=yes"
	FeaturesModal      = "chrome,dialog,dependent=no,modal,resize=yes"
	FeaturesFullScreen = "chrome,dialog=no,resize=no,titlebar=no,fullscreen=yes,x=0,y=0,screenX=0,screenY=0"
)

func dialogFeatures(base string, g *hosttypes.Geometry) string {
	if g == nil {
		return base + ",centerscreen"
	}
	if f := g.Features(); len(f) > 0 {
		return base + "," + f.String()
	}
	return base
}

// Dialog opens windows and prompts through the window and prompt capabilities.
type Dialog struct {
	k             *Kit
	forwardParent bool
}

func newDialog(k *Kit) *Dialog {
	return &Dialog{
		k:             k,
		forwardParent: k.settings.WindowVariant != config.WindowVariantIgnoreParent,
	}
}

// OpenWindow opens url in a top level window. name defaults to "_blank" and
// features to FeaturesWindow. Whether parent reaches the host depends on the
// configured window variant.
func (d *Dialog) OpenWindow(parent hosttypes.Window, url, name, features string, args ...any) (hosttypes.Window, error) {
	const op = "Dialog.OpenWindow"
	if url == "" {
		return nil, invalid(op, "url is required")
	}
	if name == "" {
		name = "_blank"
	}
	if features == "" {
		features = FeaturesWindow
	}
	if !d.forwardParent {
		parent = nil
	}

	ww, err := use[hosttypes.WindowWatcher](d.k, op, hosttypes.CapWindowWatcher)
	if err != nil {
		return nil, err
	}
	w, err := try(op, func() (hosttypes.Window, error) {
		return ww.OpenWindow(parent, url, name, hosttypes.ParseFeatures(features), args)
	})
	if err != nil {
		return nil, d.k.fail(op, err)
	}
	return w, nil
}

// OpenDialog opens a dependent dialog. A nil geometry centers it.
func (d *Dialog) OpenDialog(parent hosttypes.Window, url, name string, args []any, g *hosttypes.Geometry) (hosttypes.Window, error) {
	return d.OpenWindow(parent, url, name, dialogFeatures(FeaturesDialog, g), args...)
}

// OpenModalDialog opens a modal dialog. A nil geometry centers it.
func (d *Dialog) OpenModalDialog(parent hosttypes.Window, url, name string, args []any, g *hosttypes.Geometry) (hosttypes.Window, error) {
	return d.OpenWindow(parent, url, name, dialogFeatures(FeaturesModal, g), args...)
}

// OpenFullScreen opens a full screen window.
func (d *Dialog) OpenFullScreen(parent hosttypes.Window, url, name string, args []any) (hosttypes.Window, error) {
	return d.OpenWindow(parent, url, name, FeaturesFullScreen, args...)
}

// GetFilePicker creates a new file picker.
func (d *Dialog) GetFilePicker() (hosttypes.FilePicker, error) {
	const op = "Dialog.GetFilePicker"
	h, err := d.k.registry.InstanceOf(d.k.ctx, hosttypes.CapFilePicker)
	if err != nil {
		return nil, d.k.fail(op, err)
	}
	fp, ok := h.(hosttypes.FilePicker)
	if !ok {
		return nil, d.k.fail(op, hosttypes.NewError(op, hosttypes.KindInterfaceMismatch, "handle for %s is %T", hosttypes.CapFilePicker, h))
	}
	return fp, nil
}

// OpenFilePicker asks for a file, starting in dir when it is set, and
// returns its file URL. A cancelled picker returns "" and no error.
func (d *Dialog) OpenFilePicker(dir, title string) (string, error) {
	const op = "Dialog.OpenFilePicker"
	var start string
	if dir != "" {
		lf, err := d.k.File.GetFile(dir, false)
		if err != nil {
			return "", err
		}
		start = lf.Path
	}
	fp, err := d.GetFilePicker()
	if err != nil {
		return "", err
	}

	var path string
	res, err := try(op, func() (hosttypes.PickerResult, error) {
		fp.Init(nil, title, hosttypes.PickerOpen)
		if start != "" {
			fp.SetDisplayDirectory(start)
		}
		res, err := fp.Show()
		if err != nil || res == hosttypes.PickerCancel {
			return res, err
		}
		path = fp.File()
		return res, nil
	})
	if err != nil {
		return "", d.k.fail(op, err)
	}
	if res == hosttypes.PickerCancel {
		return "", nil
	}
	return d.k.File.PathToURL(path), nil
}

func (d *Dialog) prompts(op string) (hosttypes.PromptService, error) {
	return use[hosttypes.PromptService](d.k, op, hosttypes.CapPrompt)
}

// Alert shows title and text with an OK button.
func (d *Dialog) Alert(title, text string) error {
	const op = "Dialog.Alert"
	ps, err := d.prompts(op)
	if err != nil {
		return err
	}
	if err := tryDo(op, func() error { return ps.Alert(nil, title, text) }); err != nil {
		return d.k.fail(op, err)
	}
	return nil
}

// Confirm asks a yes/no question.
func (d *Dialog) Confirm(title, text string) (bool, error) {
	const op = "Dialog.Confirm"
	ps, err := d.prompts(op)
	if err != nil {
		return false, err
	}
	ok, err := try(op, func() (bool, error) { return ps.Confirm(nil, title, text) })
	if err != nil {
		return false, d.k.fail(op, err)
	}
	return ok, nil
}

// Prompt asks for a line of text. ok is false when the user cancelled.
func (d *Dialog) Prompt(title, text, initial string) (value string, ok bool, err error) {
	const op = "Dialog.Prompt"
	ps, err := d.prompts(op)
	if err != nil {
		return "", false, err
	}
	err = tryDo(op, func() error {
		var perr error
		value, ok, perr = ps.Prompt(nil, title, text, initial)
		return perr
	})
	if err != nil {
		return "", false, d.k.fail(op, err)
	}
	return value, ok, nil
}

// Select asks the user to pick one entry of list and returns its index.
func (d *Dialog) Select(title, text string, list []string, selected int) (index int, ok bool, err error) {
	const op = "Dialog.Select"
	if len(list) == 0 {
		return -1, false, invalid(op, "list is empty")
	}
	ps, err := d.prompts(op)
	if err != nil {
		return -1, false, err
	}
	err = tryDo(op, func() error {
		var perr error
		index, ok, perr = ps.Select(nil, title, text, list, selected)
		return perr
	})
	if err != nil {
		return -1, false, d.k.fail(op, err)
	}
	return index, ok, nil
}

// GetMostRecentWindow returns the most recently raised window of windowType,
// any type when empty.
func (d *Dialog) GetMostRecentWindow(windowType string) (hosttypes.Window, error) {
	const op = "Dialog.GetMostRecentWindow"
	wm, err := use[hosttypes.WindowMediator](d.k, op, hosttypes.CapWindowMediator)
	if err != nil {
		return nil, err
	}
	w, err := try(op, func() (hosttypes.Window, error) { return wm.MostRecentWindow(windowType) })
	if err != nil {
		if hosttypes.KindOf(err) == hosttypes.KindNotFound {
			return nil, hosttypes.WrapError(op, "", err)
		}
		return nil, d.k.fail(op, err)
	}
	return w, nil
}

// GetWindowArray lists open windows of windowType, oldest first.
func (d *Dialog) GetWindowArray(windowType string) []hosttypes.Window {
	const op = "Dialog.GetWindowArray"
	wm, err := use[hosttypes.WindowMediator](d.k, op, hosttypes.CapWindowMediator)
	if err != nil {
		return []hosttypes.Window{}
	}
	ws, err := try(op, func() ([]hosttypes.Window, error) { return wm.Windows(windowType), nil })
	if err != nil {
		d.k.fail(op, err)
	}
	if ws == nil {
		return []hosttypes.Window{}
	}
	return ws
}
