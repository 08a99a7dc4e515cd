// sizing.go: Share and keyblob size arithmetic per key type.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

const (
	// KeymgrSaltNumWords is the number of salt words the key manager consumes.
	KeymgrSaltNumWords = 8

	// HWBackedKeyblobWords is the size of a hardware-backed keyblob in words.
	HWBackedKeyblobWords = KeymgrSaltNumWords

	// HWBackedKeyblobBytes is the size of a hardware-backed keyblob in bytes.
	HWBackedKeyblobBytes = HWBackedKeyblobWords * wordBytes

	// eccShareRedundancyBytes is the 64 redundant bits carried by each ECC share.
	eccShareRedundancyBytes = 64 / 8

	wordBytes = 4
)

// shareSizeBytes returns the number of bytes in one share of a blinded key.
//
// Unrecognized key types size like symmetric keys. Rejecting them is the job of
// EnsureXorMaskable, not of the size arithmetic.
func shareSizeBytes(config KeyConfig) int {
	switch KeyType(launder32(uint32(config.KeyMode.Type()))) {
	case KeyTypeECC:
		checkEq("sizing.ecc", uint32(config.KeyMode.Type()), uint32(KeyTypeECC))
		return config.KeyLength + eccShareRedundancyBytes
	case KeyTypeRSA:
		checkEq("sizing.rsa", uint32(config.KeyMode.Type()), uint32(KeyTypeRSA))
		return config.KeyLength
	default:
		checkNe("sizing.default.ecc", uint32(config.KeyMode.Type()), uint32(KeyTypeECC))
		checkNe("sizing.default.rsa", uint32(config.KeyMode.Type()), uint32(KeyTypeRSA))
		return config.KeyLength
	}
}

// ShareSizeWords returns the number of 32-bit words in one share of a key with
// the given configuration.
func ShareSizeWords(config KeyConfig) int {
	n := shareSizeBytes(config)
	return (n + wordBytes - 1) / wordBytes
}

// TotalBlobWords returns the number of 32-bit words in the keyblob of a key with
// the given configuration: the fixed diversification size for hardware-backed
// keys, two shares otherwise.
func TotalBlobWords(config KeyConfig) int {
	if HardenedBool(launder32(uint32(config.HWBacked))) == HardenedBoolTrue {
		checkEq("sizing.hw_backed", uint32(config.HWBacked), uint32(HardenedBoolTrue))
		return HWBackedKeyblobWords
	}
	checkNe("sizing.not_hw_backed", uint32(config.HWBacked), uint32(HardenedBoolTrue))
	return 2 * ShareSizeWords(config)
}
