package services

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"hostkit/pkg/hosttypes"
)

// StreamConverterService converts byte streams between compressed formats.
type StreamConverterService struct {
	level int
}

// NewStreamConverterService creates a new StreamConverterService instance.
func NewStreamConverterService() *StreamConverterService {
	return &StreamConverterService{level: zlib.DefaultCompression}
}

// Name returns the service name "stream-converter" for registration.
func (s *StreamConverterService) Name() string {
	return "stream-converter"
}

// Initialize is a no-op; the service is stateless.
func (s *StreamConverterService) Initialize() error {
	return nil
}

// Convert transforms data from one format to another via the uncompressed form.
func (s *StreamConverterService) Convert(data []byte, from, to string) ([]byte, error) {
	if from == to {
		return append([]byte(nil), data...), nil
	}
	raw, err := s.decode(data, from)
	if err != nil {
		return nil, err
	}
	return s.encode(raw, to)
}

func (s *StreamConverterService) decode(data []byte, format string) ([]byte, error) {
	var (
		r   io.ReadCloser
		err error
	)
	switch format {
	case hosttypes.FormatUncompressed:
		return data, nil
	case hosttypes.FormatDeflate:
		r, err = zlib.NewReader(bytes.NewReader(data))
	case hosttypes.FormatGzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
	default:
		return nil, hosttypes.NewError("StreamConverterService.Convert", hosttypes.KindUnsupported, "unknown source format %q", format)
	}
	if err != nil {
		return nil, hosttypes.WrapError("StreamConverterService.Convert", hosttypes.KindInvalidArgument, err)
	}
	defer func() {
		_ = r.Close()
	}()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, hosttypes.WrapError("StreamConverterService.Convert", hosttypes.KindInvalidArgument, err)
	}
	return out, nil
}

func (s *StreamConverterService) encode(data []byte, format string) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	switch format {
	case hosttypes.FormatUncompressed:
		return data, nil
	case hosttypes.FormatDeflate:
		w, err = zlib.NewWriterLevel(&buf, s.level)
	case hosttypes.FormatGzip:
		w, err = gzip.NewWriterLevel(&buf, s.level)
	default:
		return nil, hosttypes.NewError("StreamConverterService.Convert", hosttypes.KindUnsupported, "unknown target format %q", format)
	}
	if err != nil {
		return nil, hosttypes.WrapError("StreamConverterService.Convert", hosttypes.KindHostFault, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, hosttypes.WrapError("StreamConverterService.Convert", hosttypes.KindHostFault, err)
	}
	if err := w.Close(); err != nil {
		return nil, hosttypes.WrapError("StreamConverterService.Convert", hosttypes.KindHostFault, err)
	}
	return buf.Bytes(), nil
}
