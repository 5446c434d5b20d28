package bytes

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// HexBytes is a wrapper around []byte that encodes data as upper-case
// hexadecimal strings in JSON and when printed. Hashes and addresses in the
// light client are HexBytes.
type HexBytes []byte

// MarshalText encodes a HexBytes value as hexadecimal digits.
// This method is used by json.Marshal.
func (bz HexBytes) MarshalText() ([]byte, error) {
	enc := hex.EncodeToString([]byte(bz))
	return []byte(strings.ToUpper(enc)), nil
}

// UnmarshalText handles decoding of HexBytes from JSON strings.
// This method is used by json.Unmarshal.
func (bz *HexBytes) UnmarshalText(data []byte) error {
	input := string(data)
	if input == "" || input == "null" {
		*bz = nil
		return nil
	}
	dec, err := hex.DecodeString(input)
	if err != nil {
		return fmt.Errorf("decoding hex bytes: %w", err)
	}
	*bz = HexBytes(dec)
	return nil
}

// Bytes returns the underlying byte slice.
func (bz HexBytes) Bytes() []byte {
	return bz
}

// ShortString returns the first three bytes in hex, for log lines.
func (bz HexBytes) ShortString() string {
	if len(bz) < 3 {
		return strings.ToUpper(hex.EncodeToString(bz))
	}
	return strings.ToUpper(hex.EncodeToString(bz[:3]))
}

func (bz HexBytes) String() string {
	return strings.ToUpper(hex.EncodeToString(bz))
}

// Copy creates a deep copy of HexBytes.
func (bz HexBytes) Copy() HexBytes {
	if bz == nil {
		return nil
	}
	copied := make(HexBytes, len(bz))
	copy(copied, bz)
	return copied
}

// Equal reports whether bz and b hold the same bytes. A nil and an empty
// slice are equal.
func (bz HexBytes) Equal(b []byte) bool {
	return bytes.Equal(bz, b)
}
