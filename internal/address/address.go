// Package address derives program-controlled storage addresses.
//
// A derived address is the SHA-256 of the seeds, the owning program and a
// fixed marker. Candidates that decode as an ed25519 point are rejected so no
// private key can ever sign for the address; FindProgramAddress walks a one
// byte bump seed from 255 down until it lands off the curve.
package address

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/solanafuns/ddmonitor/internal/identity"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

const marker = "ProgramDerivedAddress"

var (
	ErrMaxSeedLength    = errors.New("address: seed count or length exceeded")
	ErrOnCurve          = errors.New("address: candidate lies on the ed25519 curve")
	ErrAddressExhausted = errors.New("address: no valid bump seed")
)

// CreateProgramAddress hashes seeds under programID. It fails with ErrOnCurve
// when the digest is a valid curve point.
func CreateProgramAddress(seeds [][]byte, programID identity.Identity) (identity.Identity, error) {
	if len(seeds) > MaxSeeds {
		return identity.Zero, fmt.Errorf("%w: %d seeds", ErrMaxSeedLength, len(seeds))
	}
	h := sha256.New()
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return identity.Zero, fmt.Errorf("%w: seed %d is %d bytes", ErrMaxSeedLength, i, len(s))
		}
		h.Write(s)
	}
	h.Write(programID[:])
	h.Write([]byte(marker))

	var out identity.Identity
	copy(out[:], h.Sum(nil))
	if OnCurve(out) {
		return identity.Zero, ErrOnCurve
	}
	return out, nil
}

// FindProgramAddress returns the first off-curve address for bump 255..1
// together with the bump that produced it.
func FindProgramAddress(seeds [][]byte, programID identity.Identity) (identity.Identity, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return identity.Zero, 0, fmt.Errorf("%w: %d seeds plus bump", ErrMaxSeedLength, len(seeds))
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	withBump[len(seeds)] = bump

	for b := 255; b > 0; b-- {
		bump[0] = uint8(b)
		addr, err := CreateProgramAddress(withBump, programID)
		switch {
		case err == nil:
			return addr, uint8(b), nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return identity.Zero, 0, err
		}
	}
	return identity.Zero, 0, ErrAddressExhausted
}

// QueueSeeds are the derivation seeds for the queue called name.
func QueueSeeds(programID identity.Identity, name string) [][]byte {
	return [][]byte{programID.Bytes(), []byte(name)}
}

// QueueAddress derives the storage address of the named queue.
func QueueAddress(programID identity.Identity, name string) (identity.Identity, uint8, error) {
	return FindProgramAddress(QueueSeeds(programID, name), programID)
}

// OnCurve reports whether id decodes as an ed25519 point. Non-canonical
// encodings are accepted, matching how signature verifiers decompress keys.
func OnCurve(id identity.Identity) bool {
	_, err := new(edwards25519.Point).SetBytes(id[:])
	return err == nil
}
