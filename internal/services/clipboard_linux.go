//go:build linux

package services

import "hostkit/pkg/hosttypes"

const clipboardAvailable = false

var errNoClipboard = hosttypes.NewError("Clipboard", hosttypes.KindUnsupported, "clipboard not available on this platform (Linux without X11)")

func initClipboard() error {
	return errNoClipboard
}

func writeClipboard(string) error {
	return errNoClipboard
}

func readClipboard() (string, error) {
	return "", errNoClipboard
}
