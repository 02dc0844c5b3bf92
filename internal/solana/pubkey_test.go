package solana

import (
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

func TestDecodeAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"wrapped SOL", "So11111111111111111111111111111111111111112", false},
		{"USDC", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", false},
		{"system program", "11111111111111111111111111111111", false},
		{"empty", "", true},
		{"invalid characters", "bad!!invalid", true},
		{"zero is not base58", "0OIl", true},
		{"too short", "abc", true},
		{"too long", "So11111111111111111111111111111111111111112So111", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := DecodeAddress(tt.address)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Fatalf("expected ErrInvalidAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeAddress: %v", err)
			}
			if len(b) != PublicKeyLength {
				t.Errorf("expected %d bytes, got %d", PublicKeyLength, len(b))
			}
		})
	}
}

func TestFindProgramAddress_OffCurveAndFirstBump(t *testing.T) {
	program, err := DecodeAddress(MetaplexMetadataProgID)
	if err != nil {
		t.Fatalf("decode program: %v", err)
	}
	mint, err := DecodeAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	if err != nil {
		t.Fatalf("decode mint: %v", err)
	}
	seeds := [][]byte{[]byte("metadata"), program, mint}

	addr, bump, err := FindProgramAddress(seeds, program)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != PublicKeyLength {
		t.Fatalf("derived address is not a 32-byte key: %q", addr)
	}
	if isOnCurve(raw) {
		t.Error("derived address must be off the ed25519 curve")
	}

	want := programAddressHash(seeds, bump, program)
	if base58.Encode(want[:]) != addr {
		t.Error("address does not match hash for returned bump")
	}

	// Every higher bump must have landed on the curve.
	for b := 255; b > int(bump); b-- {
		h := programAddressHash(seeds, uint8(b), program)
		if !isOnCurve(h[:]) {
			t.Errorf("bump %d is off-curve but was skipped", b)
		}
	}
}

func TestMetadataAddress_Deterministic(t *testing.T) {
	a, err := MetadataAddress("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("MetadataAddress: %v", err)
	}
	b, err := MetadataAddress("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("MetadataAddress: %v", err)
	}
	if a != b {
		t.Errorf("expected deterministic derivation, got %s and %s", a, b)
	}

	other, err := MetadataAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	if err != nil {
		t.Fatalf("MetadataAddress: %v", err)
	}
	if other == a {
		t.Error("different mints must derive different addresses")
	}

	if _, err := MetadataAddress("bad!!invalid"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestFindProgramAddress_SeedLimits(t *testing.T) {
	program := make([]byte, 32)

	if _, _, err := FindProgramAddress([][]byte{make([]byte, 33)}, program); err == nil {
		t.Error("expected error for oversized seed")
	}

	seeds := make([][]byte, 16)
	if _, _, err := FindProgramAddress(seeds, program); err == nil {
		t.Error("expected error for too many seeds")
	}
}
