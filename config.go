// config.go: Key configuration and blinded key container types.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import "fmt"

// KeyType is the tag stored in the upper 16 bits of a key mode.
//
// Tag values are spread over many bits so that a single bit flip turns a valid
// tag into an unrecognized one rather than into another valid tag.
type KeyType uint32

const (
	KeyTypeAES  KeyType = 0x8e9 // AES block cipher key
	KeyTypeHMAC KeyType = 0xe3f // HMAC key
	KeyTypeKMAC KeyType = 0xb74 // KMAC key
	KeyTypeRSA  KeyType = 0x7ee // RSA private key
	KeyTypeECC  KeyType = 0x15b // ECC private key
	KeyTypeKDF  KeyType = 0xb87 // KDF input key
)

// String returns a short name for the tag, used in logs and metric labels.
func (t KeyType) String() string {
	switch t {
	case KeyTypeAES:
		return "aes"
	case KeyTypeHMAC:
		return "hmac"
	case KeyTypeKMAC:
		return "kmac"
	case KeyTypeRSA:
		return "rsa"
	case KeyTypeECC:
		return "ecc"
	case KeyTypeKDF:
		return "kdf"
	default:
		return "unknown"
	}
}

// keyTypeShift is the position of the key type tag within a KeyMode.
const keyTypeShift = 16

// KeyMode combines a key type tag (upper 16 bits) with an algorithm specific mode
// (lower 16 bits). The lower half is opaque to this package.
type KeyMode uint32

// NewKeyMode builds a KeyMode from a key type tag and an algorithm mode.
func NewKeyMode(keyType KeyType, mode uint16) KeyMode {
	return KeyMode(uint32(keyType)<<keyTypeShift | uint32(mode))
}

// Type returns the key type tag of the mode.
func (m KeyMode) Type() KeyType {
	return KeyType(uint32(m) >> keyTypeShift)
}

// Mode returns the algorithm specific half of the mode.
func (m KeyMode) Mode() uint16 {
	return uint16(m)
}

// KeyConfig describes a blinded key. It holds no key material.
type KeyConfig struct {
	Version    uint32       // Configuration format version
	KeyMode    KeyMode      // Key type tag and algorithm mode
	KeyLength  int          // Length of the unblinded key material in bytes
	HWBacked   HardenedBool // Whether the key is derived by the key manager on demand
	Exportable HardenedBool // Whether the key may leave the device
}

// String renders the configuration without any secret material.
func (c KeyConfig) String() string {
	return fmt.Sprintf("%s/%#04x len=%d hw=%s", c.KeyMode.Type(), c.KeyMode.Mode(), c.KeyLength, c.HWBacked)
}

// BlindedKey is a key held as two XOR shares, or for hardware-backed keys as the
// key manager diversification data.
//
// Keyblob storage belongs to whoever created the key. KeyblobLength is the blob
// size in bytes and is validated on every use; it is never trusted implicitly.
// Checksum covers Config and Keyblob and must be refreshed after any change to
// the blob contents.
type BlindedKey struct {
	Config        KeyConfig
	Keyblob       []uint32
	KeyblobLength int
	Checksum      uint32
}
