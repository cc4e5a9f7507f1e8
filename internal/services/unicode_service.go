package services

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"hostkit/pkg/hosttypes"
)

// UnicodeService converts between named charsets and UTF-8.
type UnicodeService struct{}

// NewUnicodeService creates a new UnicodeService instance.
func NewUnicodeService() *UnicodeService {
	return &UnicodeService{}
}

// Name returns the service name "unicodeconverter" for registration.
func (u *UnicodeService) Name() string {
	return "unicodeconverter"
}

// Initialize is a no-op; the service is stateless.
func (u *UnicodeService) Initialize() error {
	return nil
}

// ToUnicode decodes data from charset into a UTF-8 string.
func (u *UnicodeService) ToUnicode(data []byte, charset string) (string, error) {
	enc, err := lookupCharset(charset)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", hosttypes.WrapError("UnicodeService.ToUnicode", hosttypes.KindInvalidArgument, err)
	}
	return string(out), nil
}

// FromUnicode encodes text into charset. Characters the charset cannot
// represent are an error.
func (u *UnicodeService) FromUnicode(text string, charset string) ([]byte, error) {
	enc, err := lookupCharset(charset)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, hosttypes.WrapError("UnicodeService.FromUnicode", hosttypes.KindInvalidArgument, err)
	}
	return out, nil
}

// lookupCharset resolves WHATWG labels first, then IANA names. Empty means UTF-8.
func lookupCharset(charset string) (encoding.Encoding, error) {
	name := strings.TrimSpace(charset)
	if name == "" {
		return unicode.UTF8, nil
	}
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	return nil, hosttypes.NewError("UnicodeService", hosttypes.KindUnsupported, "unknown charset %q", charset)
}
