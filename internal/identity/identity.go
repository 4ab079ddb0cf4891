// Package identity defines the 32-byte account identities used across the
// ledger, the queue program and clients, and ed25519 keypairs that sign for
// them.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the byte length of an identity.
const Size = 32

var (
	ErrMalformed = errors.New("identity: malformed")
)

// Identity is an account address: either an ed25519 public key or a
// program-derived address.
type Identity [Size]byte

// Zero is the all-zero identity. It doubles as the system program ID.
var Zero Identity

// Parse decodes a base58 identity.
func Parse(s string) (Identity, error) {
	var id Identity
	b, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("%w: %q: %v", ErrMalformed, s, err)
	}
	if len(b) != Size {
		return id, fmt.Errorf("%w: %q decodes to %d bytes", ErrMalformed, s, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// MustParse is Parse for constants in tests and examples.
func MustParse(s string) Identity {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FromBytes copies a 32-byte slice.
func FromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != Size {
		return id, fmt.Errorf("%w: %d bytes", ErrMalformed, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (id Identity) String() string { return base58.Encode(id[:]) }
func (id Identity) Bytes() []byte  { return append([]byte(nil), id[:]...) }
func (id Identity) IsZero() bool   { return id == Zero }

// MarshalText encodes as base58 so identities read naturally in JSON/YAML.
func (id Identity) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *Identity) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Verify checks an ed25519 signature made by the key behind id.
func (id Identity) Verify(msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(id[:]), msg, sig)
}

// Keypair is an ed25519 signing key and its identity.
type Keypair struct {
	priv ed25519.PrivateKey
}

// Generate creates a random keypair.
func Generate() (Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{priv: priv}, nil
}

// FromSeed builds a deterministic keypair from a 32-byte seed.
func FromSeed(seed []byte) (Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return Keypair{}, fmt.Errorf("%w: seed must be %d bytes", ErrMalformed, ed25519.SeedSize)
	}
	return Keypair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// FromPrivateKey accepts the 64-byte seed||public form.
func FromPrivateKey(b []byte) (Keypair, error) {
	if len(b) != ed25519.PrivateKeySize {
		return Keypair{}, fmt.Errorf("%w: private key must be %d bytes", ErrMalformed, ed25519.PrivateKeySize)
	}
	return Keypair{priv: append(ed25519.PrivateKey(nil), b...)}, nil
}

func (k Keypair) Identity() Identity {
	var id Identity
	copy(id[:], k.priv.Public().(ed25519.PublicKey))
	return id
}

func (k Keypair) Sign(msg []byte) []byte { return ed25519.Sign(k.priv, msg) }

// PrivateKey returns the 64-byte key for persistence.
func (k Keypair) PrivateKey() []byte { return append([]byte(nil), k.priv...) }
