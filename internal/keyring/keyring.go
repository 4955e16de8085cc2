package keyring

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// Source supplies the wallet seed phrase from secure storage. The core never
// persists the phrase itself.
type Source interface {
	Phrase(ctx context.Context) (string, error)
}

// EnvSource reads the seed phrase from an environment variable.
type EnvSource struct {
	Var string
}

func (s EnvSource) Phrase(context.Context) (string, error) {
	phrase := os.Getenv(s.Var)
	if phrase == "" {
		return "", fmt.Errorf("seed phrase not set in %s", s.Var)
	}
	return phrase, nil
}

// StaticSource holds a phrase in memory, for tests and tooling.
type StaticSource struct {
	Mnemonic string
}

func (s StaticSource) Phrase(context.Context) (string, error) {
	if s.Mnemonic == "" {
		return "", fmt.Errorf("mnemonic phrase cannot be empty")
	}
	return s.Mnemonic, nil
}

// ParsePath parses a BIP44-style derivation path such as
// "m/44'/60'/0'/0/0" into child indexes with the hardened bit applied.
func ParsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || strings.ToLower(parts[0]) != "m" {
		return nil, fmt.Errorf("derivation path must start with m: %q", path)
	}
	if len(parts) == 1 {
		return nil, fmt.Errorf("derivation path has no segments: %q", path)
	}

	out := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		idx, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q: %w", part, err)
		}
		if idx >= uint64(bip32.FirstHardenedChild) {
			return nil, fmt.Errorf("path segment out of range: %s", part)
		}
		child := uint32(idx)
		if hardened {
			child += bip32.FirstHardenedChild
		}
		out = append(out, child)
	}
	return out, nil
}

// Deriver derives 32-byte private keys from a seed phrase along BIP32 paths.
// Derivation is pure; the session cache only avoids recomputing the PBKDF2
// seed stretch on every send.
type Deriver struct {
	mu    sync.Mutex
	cache map[cacheKey][]byte
}

type cacheKey struct {
	phraseDigest [32]byte
	path         string
}

func NewDeriver() *Deriver {
	return &Deriver{cache: make(map[cacheKey][]byte)}
}

// PrivateKey derives the private key seed for the given phrase and path.
// The same inputs always yield the same key.
func (d *Deriver) PrivateKey(seedPhrase, derivationPath string) ([]byte, error) {
	if seedPhrase == "" {
		return nil, fmt.Errorf("mnemonic phrase cannot be empty")
	}
	if !bip39.IsMnemonicValid(seedPhrase) {
		return nil, fmt.Errorf("invalid mnemonic phrase")
	}

	key := cacheKey{phraseDigest: sha256.Sum256([]byte(seedPhrase)), path: derivationPath}
	d.mu.Lock()
	if cached, ok := d.cache[key]; ok {
		d.mu.Unlock()
		out := make([]byte, len(cached))
		copy(out, cached)
		return out, nil
	}
	d.mu.Unlock()

	children, err := ParsePath(derivationPath)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(seedPhrase, "")
	node, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	for _, child := range children {
		node, err = node.NewChildKey(child)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child key: %w", err)
		}
	}

	priv := make([]byte, len(node.Key))
	copy(priv, node.Key)

	d.mu.Lock()
	d.cache[key] = priv
	d.mu.Unlock()

	out := make([]byte, len(priv))
	copy(out, priv)
	return out, nil
}
