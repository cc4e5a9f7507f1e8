package services

import (
	"os"
	"path/filepath"

	"hostkit/pkg/hosttypes"
)

// FilePickerService asks for a path through the prompt service. A new picker
// is created for every CreateInstance call.
type FilePickerService struct {
	prompt hosttypes.PromptService
	fs     hosttypes.FileSystem

	parent hosttypes.Window
	title  string
	mode   hosttypes.PickerMode
	dir    string
	file   string
}

// NewFilePickerService creates a picker bound to prompt and fs.
func NewFilePickerService(prompt hosttypes.PromptService, fs hosttypes.FileSystem) *FilePickerService {
	return &FilePickerService{prompt: prompt, fs: fs}
}

// Name returns the service name "filepicker" for registration.
func (f *FilePickerService) Name() string {
	return "filepicker"
}

// Initialize is a no-op.
func (f *FilePickerService) Initialize() error {
	return nil
}

// Init sets the picker title and mode.
func (f *FilePickerService) Init(parent hosttypes.Window, title string, mode hosttypes.PickerMode) {
	f.parent = parent
	f.title = title
	f.mode = mode
	f.file = ""
}

// SetDisplayDirectory sets the directory relative answers resolve against.
func (f *FilePickerService) SetDisplayDirectory(dir string) {
	f.dir = dir
}

// Show prompts for a path. Open and folder modes require an existing entry of
// the right kind; save mode reports PickerReplace for an existing file.
func (f *FilePickerService) Show() (hosttypes.PickerResult, error) {
	answer, ok, err := f.prompt.Prompt(f.parent, f.title, "Path:", f.dir)
	if err != nil {
		return hosttypes.PickerCancel, err
	}
	if !ok || answer == "" {
		return hosttypes.PickerCancel, nil
	}

	path := answer
	if !filepath.IsAbs(path) && f.dir != "" {
		path = filepath.Join(f.dir, path)
	}

	info, statErr := f.fs.Stat(path)
	switch f.mode {
	case hosttypes.PickerSave:
		f.file = path
		if statErr == nil && !info.IsDir() {
			return hosttypes.PickerReplace, nil
		}
		return hosttypes.PickerOK, nil
	case hosttypes.PickerFolder:
		if statErr != nil || !info.IsDir() {
			return hosttypes.PickerCancel, nil
		}
	default:
		if statErr != nil || info.IsDir() {
			if statErr != nil && !os.IsNotExist(statErr) {
				return hosttypes.PickerCancel, statErr
			}
			return hosttypes.PickerCancel, nil
		}
	}
	f.file = path
	return hosttypes.PickerOK, nil
}

// File returns the chosen path after Show.
func (f *FilePickerService) File() string {
	return f.file
}
