package services

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostkit/pkg/hosttypes"
)

func TestHashService(t *testing.T) {
	h := NewHashService()

	tests := []struct {
		algorithm string
		want      string
	}{
		{"md5", "900150983cd24fb0d6963f7d28e17f72"},
		{"SHA1", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"sha-256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"md4", "a448017aaf21d8525fc10ae87aa6729d"},
		{"ripemd160", "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc"},
	}
	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			d, err := h.New(tt.algorithm)
			require.NoError(t, err)
			d.Write([]byte("abc"))
			assert.Equal(t, tt.want, hex.EncodeToString(d.Sum(nil)))
		})
	}

	_, err := h.New("md2")
	assert.ErrorIs(t, err, hosttypes.ErrUnsupported)
	_, err = h.New("whirlpool")
	assert.Error(t, err)
	assert.Contains(t, h.Algorithms(), "SHA512")
}

func TestUnicodeService(t *testing.T) {
	u := NewUnicodeService()

	text, err := u.ToUnicode([]byte{0x63, 0x61, 0x66, 0xe9}, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", text)

	data, err := u.FromUnicode("café", "latin1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x63, 0x61, 0x66, 0xe9}, data)

	text, err = u.ToUnicode([]byte("plain"), "")
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	_, err = u.ToUnicode([]byte("x"), "no-such-charset")
	assert.Error(t, err)

	_, err = u.FromUnicode("日本", "ISO-8859-1")
	assert.Error(t, err)
}

func TestJSONService(t *testing.T) {
	j := NewJSONService()

	v, err := j.Decode([]byte(`{"a":[1,2],"b":"x"}`))
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", m["b"])

	_, err = j.Decode([]byte(`{"a":1} trailing`))
	assert.Error(t, err)

	out, err := j.Encode(map[string]any{"html": "<b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<b>"}`, string(out))

	q, found := j.Query([]byte(`{"a":{"b":[10,20]}}`), "a.b.1")
	assert.True(t, found)
	assert.Equal(t, float64(20), q)

	_, found = j.Query([]byte(`{"a":1}`), "missing")
	assert.False(t, found)

	doc, err := j.Set([]byte(`{"a":1}`), "b.c", "d")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":{"c":"d"}}`, string(doc))
}

func TestStreamConverterService(t *testing.T) {
	s := NewStreamConverterService()
	input := []byte("hello hello hello hello")

	for _, format := range []string{hosttypes.FormatDeflate, hosttypes.FormatGzip} {
		t.Run(format, func(t *testing.T) {
			packed, err := s.Convert(input, hosttypes.FormatUncompressed, format)
			require.NoError(t, err)
			assert.NotEqual(t, input, packed)

			unpacked, err := s.Convert(packed, format, hosttypes.FormatUncompressed)
			require.NoError(t, err)
			assert.Equal(t, input, unpacked)
		})
	}

	_, err := s.Convert(input, hosttypes.FormatUncompressed, "brotli")
	assert.Error(t, err)
	_, err = s.Convert([]byte("not compressed"), hosttypes.FormatGzip, hosttypes.FormatUncompressed)
	assert.Error(t, err)
}
