package hostkit

import (
	"encoding/hex"
	"hash"
	"io"
	"net/url"
	"strings"

	"hostkit/pkg/hosttypes"
)

const byteOrderMark = "\uFEFF"

// CryptoHash digests strings and files through the hash capability.
type CryptoHash struct {
	k *Kit
}

// Crypt returns the lowercase hex digest of the UTF-8 bytes of s.
func (c *CryptoHash) Crypt(s, algorithm string) (string, error) {
	const op = "CryptoHash.Crypt"
	if algorithm == "" {
		return "", invalid(op, "algorithm is required")
	}
	data, err := c.k.Charset.ConvertFromUnicode(s, "UTF-8")
	if err != nil {
		return "", err
	}
	return c.digest(op, algorithm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CryptFromStream returns the hex digest of the file at path.
func (c *CryptoHash) CryptFromStream(path, algorithm string) (string, error) {
	const op = "CryptoHash.CryptFromStream"
	if algorithm == "" {
		return "", invalid(op, "algorithm is required")
	}
	r, err := c.k.File.GetInputStream(path, hosttypes.ModeRead+hosttypes.ModeBinary)
	if err != nil {
		return "", err
	}
	defer r.Close()

	return c.digest(op, algorithm, func(w io.Writer) error {
		_, err := io.CopyBuffer(w, r, make([]byte, hosttypes.FileChunk))
		return err
	})
}

func (c *CryptoHash) digest(op, algorithm string, feed func(io.Writer) error) (string, error) {
	engine, err := use[hosttypes.HashEngine](c.k, op, hosttypes.CapHash)
	if err != nil {
		return "", err
	}
	h, err := try(op, func() (hash.Hash, error) { return engine.New(algorithm) })
	if err != nil {
		return "", c.k.fail(op, err)
	}
	if err := tryDo(op, func() error { return feed(h) }); err != nil {
		return "", c.k.fail(op, err)
	}
	return c.ArrayToHexString(h.Sum(nil)), nil
}

// MD5 returns the MD5 digest of s.
func (c *CryptoHash) MD5(s string) (string, error) { return c.Crypt(s, "MD5") }

// MD5FromFile returns the MD5 digest of the file at path.
func (c *CryptoHash) MD5FromFile(path string) (string, error) {
	return c.CryptFromStream(path, "MD5")
}

// MD5Sum is MD5FromFile.
func (c *CryptoHash) MD5Sum(path string) (string, error) { return c.MD5FromFile(path) }

// SHA1 returns the SHA-1 digest of s.
func (c *CryptoHash) SHA1(s string) (string, error) { return c.Crypt(s, "SHA1") }

// SHA256 returns the SHA-256 digest of s.
func (c *CryptoHash) SHA256(s string) (string, error) { return c.Crypt(s, "SHA256") }

// SHA384 returns the SHA-384 digest of s.
func (c *CryptoHash) SHA384(s string) (string, error) { return c.Crypt(s, "SHA384") }

// SHA512 returns the SHA-512 digest of s.
func (c *CryptoHash) SHA512(s string) (string, error) { return c.Crypt(s, "SHA512") }

// ToHexString renders one byte as two lowercase hex digits.
func (c *CryptoHash) ToHexString(b byte) string {
	return hex.EncodeToString([]byte{b})
}

// ArrayToHexString renders data as lowercase hex.
func (c *CryptoHash) ArrayToHexString(data []byte) string {
	return hex.EncodeToString(data)
}

// Charset converts between named charsets through the unicodeconverter capability.
type Charset struct {
	k *Kit
}

// ConvertToUnicode decodes data from charset. On failure the bytes are
// returned as-is.
func (c *Charset) ConvertToUnicode(data []byte, charset string) (string, error) {
	const op = "Charset.ConvertToUnicode"
	conv, err := use[hosttypes.UnicodeConverter](c.k, op, hosttypes.CapUnicodeConverter)
	if err != nil {
		return string(data), err
	}
	text, err := try(op, func() (string, error) { return conv.ToUnicode(data, charset) })
	if err != nil {
		return string(data), c.k.fail(op, err)
	}
	return text, nil
}

// ConvertFromUnicode encodes text into charset. On failure the UTF-8 bytes
// of text are returned.
func (c *Charset) ConvertFromUnicode(text, charset string) ([]byte, error) {
	const op = "Charset.ConvertFromUnicode"
	conv, err := use[hosttypes.UnicodeConverter](c.k, op, hosttypes.CapUnicodeConverter)
	if err != nil {
		return []byte(text), err
	}
	data, err := try(op, func() ([]byte, error) { return conv.FromUnicode(text, charset) })
	if err != nil {
		return []byte(text), c.k.fail(op, err)
	}
	return data, nil
}

// ConvertCharset re-encodes data from charset in to charset out.
func (c *Charset) ConvertCharset(data []byte, in, out string) ([]byte, error) {
	text, err := c.ConvertToUnicode(data, in)
	if err != nil {
		return data, err
	}
	return c.ConvertFromUnicode(text, out)
}

// JSON decodes and encodes documents through the json capability.
type JSON struct {
	k *Kit
}

func (j *JSON) codec(op string) (hosttypes.JSONCodec, error) {
	return use[hosttypes.JSONCodec](j.k, op, hosttypes.CapJSON)
}

// Decode parses s.
func (j *JSON) Decode(s string) (any, error) {
	return j.decode("JSON.Decode", []byte(s))
}

func (j *JSON) decode(op string, data []byte) (any, error) {
	codec, err := j.codec(op)
	if err != nil {
		return nil, err
	}
	v, err := try(op, func() (any, error) { return codec.Decode(data) })
	if err != nil {
		return nil, j.k.fail(op, err)
	}
	return v, nil
}

// Encode renders v as compact JSON.
func (j *JSON) Encode(v any) (string, error) {
	data, err := j.encode("JSON.Encode", v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (j *JSON) encode(op string, v any) ([]byte, error) {
	codec, err := j.codec(op)
	if err != nil {
		return nil, err
	}
	data, err := try(op, func() ([]byte, error) { return codec.Encode(v) })
	if err != nil {
		return nil, j.k.fail(op, err)
	}
	return data, nil
}

// DecodeFromStream reads at most contentLength bytes from r and decodes
// them. A contentLength of zero or less reads to EOF.
func (j *JSON) DecodeFromStream(r io.Reader, contentLength int64) (any, error) {
	const op = "JSON.DecodeFromStream"
	if r == nil {
		return nil, invalid(op, "reader is required")
	}
	if contentLength > 0 {
		r = io.LimitReader(r, contentLength)
	}
	data, err := try(op, func() ([]byte, error) { return io.ReadAll(r) })
	if err != nil {
		return nil, j.k.fail(op, err)
	}
	return j.decode(op, []byte(strings.TrimPrefix(string(data), byteOrderMark)))
}

// EncodeToStream writes v to w in charset, UTF-8 when empty, optionally
// preceded by a byte order mark.
func (j *JSON) EncodeToStream(w io.Writer, v any, charset string, writeBOM bool) error {
	const op = "JSON.EncodeToStream"
	if w == nil {
		return invalid(op, "writer is required")
	}
	data, err := j.encode(op, v)
	if err != nil {
		return err
	}
	text := string(data)
	if writeBOM {
		text = byteOrderMark + text
	}
	if charset == "" {
		charset = "UTF-8"
	}
	out, err := j.k.Charset.ConvertFromUnicode(text, charset)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return j.k.fail(op, err)
	}
	return nil
}

// DecodeFromFile reads path as UTF-8 and decodes it.
func (j *JSON) DecodeFromFile(path string) (any, error) {
	data, err := j.k.File.ReadAllBytes(path)
	if err != nil {
		return nil, err
	}
	text, err := j.k.Charset.ConvertToUnicode(data, "UTF-8")
	if err != nil {
		return nil, err
	}
	return j.decode("JSON.DecodeFromFile", []byte(strings.TrimPrefix(text, byteOrderMark)))
}

// EncodeToFile replaces the content of path with the encoding of v.
func (j *JSON) EncodeToFile(path string, v any) error {
	data, err := j.encode("JSON.EncodeToFile", v)
	if err != nil {
		return err
	}
	return j.k.File.WriteAllBytes(path, data)
}

// Query evaluates a gjson path against doc. A missing path is KindNotFound
// and is not logged.
func (j *JSON) Query(doc, path string) (any, error) {
	const op = "JSON.Query"
	codec, err := j.codec(op)
	if err != nil {
		return nil, err
	}
	v, found := codec.Query([]byte(doc), path)
	if !found {
		return nil, hosttypes.NewError(op, hosttypes.KindNotFound, "no value at %q", path)
	}
	return v, nil
}

// Set returns doc with value stored at path.
func (j *JSON) Set(doc, path string, value any) (string, error) {
	const op = "JSON.Set"
	if path == "" {
		return doc, invalid(op, "path is required")
	}
	codec, err := j.codec(op)
	if err != nil {
		return doc, err
	}
	out, err := try(op, func() ([]byte, error) { return codec.Set([]byte(doc), path, value) })
	if err != nil {
		return doc, j.k.fail(op, err)
	}
	return string(out), nil
}

// Gzip compresses through the stream-converter capability.
type Gzip struct {
	k *Kit
}

func (g *Gzip) convert(op string, data []byte, from, to string) ([]byte, error) {
	conv, err := use[hosttypes.StreamConverter](g.k, op, hosttypes.CapStreamConverter)
	if err != nil {
		return nil, err
	}
	out, err := try(op, func() ([]byte, error) { return conv.Convert(data, from, to) })
	if err != nil {
		return nil, g.k.fail(op, err)
	}
	return out, nil
}

// Deflate escapes s as a URI component and zlib compresses the result.
func (g *Gzip) Deflate(s string) ([]byte, error) {
	escaped := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	return g.convert("Gzip.Deflate", []byte(escaped), hosttypes.FormatUncompressed, hosttypes.FormatDeflate)
}

// Inflate reverses Deflate.
func (g *Gzip) Inflate(data []byte) (string, error) {
	const op = "Gzip.Inflate"
	raw, err := g.convert(op, data, hosttypes.FormatDeflate, hosttypes.FormatUncompressed)
	if err != nil {
		return "", err
	}
	s, err := url.PathUnescape(string(raw))
	if err != nil {
		return "", g.k.fail(op, err)
	}
	return s, nil
}

// Gzip compresses data in the gzip container format.
func (g *Gzip) Gzip(data []byte) ([]byte, error) {
	return g.convert("Gzip.Gzip", data, hosttypes.FormatUncompressed, hosttypes.FormatGzip)
}

// Gunzip reverses Gzip.
func (g *Gzip) Gunzip(data []byte) ([]byte, error) {
	return g.convert("Gzip.Gunzip", data, hosttypes.FormatGzip, hosttypes.FormatUncompressed)
}
