package services

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"

	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"

	"hostkit/pkg/hosttypes"
)

var hashConstructors = map[string]func() hash.Hash{
	"MD4":       md4.New,
	"MD5":       md5.New,
	"SHA1":      sha1.New,
	"SHA224":    sha256.New224,
	"SHA256":    sha256.New,
	"SHA384":    sha512.New384,
	"SHA512":    sha512.New,
	"SHA3-256":  sha3.New256,
	"SHA3-512":  sha3.New512,
	"RIPEMD160": ripemd160.New,
}

// HashService creates digest state for named algorithms.
type HashService struct{}

// NewHashService creates a new HashService instance.
func NewHashService() *HashService {
	return &HashService{}
}

// Name returns the service name "hash" for registration.
func (h *HashService) Name() string {
	return "hash"
}

// Initialize is a no-op; the service is stateless.
func (h *HashService) Initialize() error {
	return nil
}

// New returns a fresh hash for algorithm. Names are case-insensitive and
// "SHA-256" style spellings are accepted.
func (h *HashService) New(algorithm string) (hash.Hash, error) {
	name := normalizeAlgorithm(algorithm)
	if name == "MD2" {
		return nil, hosttypes.NewError("HashService.New", hosttypes.KindUnsupported, "MD2 is not available")
	}
	ctor, ok := hashConstructors[name]
	if !ok {
		return nil, hosttypes.NewError("HashService.New", hosttypes.KindUnsupported, "unknown hash algorithm %q", algorithm)
	}
	return ctor(), nil
}

// Algorithms lists the supported algorithm names.
func (h *HashService) Algorithms() []string {
	return []string{"MD4", "MD5", "SHA1", "SHA224", "SHA256", "SHA384", "SHA512", "SHA3-256", "SHA3-512", "RIPEMD160"}
}

func normalizeAlgorithm(algorithm string) string {
	name := strings.ToUpper(strings.TrimSpace(algorithm))
	name = strings.ReplaceAll(name, "_", "-")
	if strings.HasPrefix(name, "SHA3") {
		return "SHA3-" + strings.TrimLeft(strings.TrimPrefix(name, "SHA3"), "-")
	}
	return strings.ReplaceAll(name, "-", "")
}
