package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the size of a decoded Solana address.
const PublicKeyLength = 32

const (
	maxSeeds      = 16
	maxSeedLength = 32
	pdaMarker     = "ProgramDerivedAddress"
)

var (
	// ErrInvalidAddress is returned for strings that are not base58 32-byte keys.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNoViableBump is returned when every bump yields an on-curve point.
	ErrNoViableBump = errors.New("unable to find a viable program address bump seed")
)

// DecodeAddress decodes a base58 address and checks its length.
func DecodeAddress(address string) ([]byte, error) {
	if address == "" {
		return nil, ErrInvalidAddress
	}
	b, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(b) != PublicKeyLength {
		return nil, fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(b))
	}
	return b, nil
}

// IsValidAddress reports whether address decodes to a 32-byte key.
func IsValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}

// FindProgramAddress derives a Program Derived Address for seeds under programID.
// Bumps are tried from 255 down to 1; the first hash that is not a valid
// ed25519 point wins.
func FindProgramAddress(seeds [][]byte, programID []byte) (string, uint8, error) {
	if len(seeds) > maxSeeds-1 {
		return "", 0, fmt.Errorf("too many seeds: %d", len(seeds))
	}
	for _, seed := range seeds {
		if len(seed) > maxSeedLength {
			return "", 0, fmt.Errorf("seed longer than %d bytes", maxSeedLength)
		}
	}

	for bump := 255; bump > 0; bump-- {
		hash := programAddressHash(seeds, uint8(bump), programID)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), uint8(bump), nil
		}
	}

	return "", 0, ErrNoViableBump
}

// MetadataAddress returns the Metaplex metadata PDA of mint:
// seeds ["metadata", metadata program id, mint].
func MetadataAddress(mint string) (string, error) {
	mintKey, err := DecodeAddress(mint)
	if err != nil {
		return "", err
	}
	programKey, err := DecodeAddress(MetaplexMetadataProgID)
	if err != nil {
		return "", err
	}

	addr, _, err := FindProgramAddress([][]byte{[]byte("metadata"), programKey, mintKey}, programKey)
	return addr, err
}

func programAddressHash(seeds [][]byte, bump uint8, programID []byte) [32]byte {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(programID)
	h.Write([]byte(pdaMarker))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
