// checksum.go: Integrity checksum over a blinded key's configuration and keyblob.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"encoding/binary"
	"hash/crc32"
)

// ChecksumFunc computes the integrity value stored in BlindedKey.Checksum.
type ChecksumFunc func(config KeyConfig, keyblob []uint32) uint32

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// DefaultChecksum is CRC32C over the configuration fields and the keyblob words,
// each encoded little-endian.
//
// It detects accidental corruption and stale checksums; it is not a MAC.
func DefaultChecksum(config KeyConfig, keyblob []uint32) uint32 {
	var word [wordBytes]byte
	crc := uint32(0)

	update := func(v uint32) {
		binary.LittleEndian.PutUint32(word[:], v)
		crc = crc32.Update(crc, castagnoli, word[:])
	}

	update(config.Version)
	update(uint32(config.KeyMode))
	update(uint32(config.KeyLength))
	update(uint32(config.HWBacked))
	update(uint32(config.Exportable))
	for _, w := range keyblob {
		update(w)
	}
	return crc
}

// VerifyChecksum recomputes the checksum of key with fn (DefaultChecksum if nil)
// and compares it with the stored value.
func VerifyChecksum(key *BlindedKey, fn ChecksumFunc) HardenedBool {
	if key == nil {
		return HardenedBoolFalse
	}
	if fn == nil {
		fn = DefaultChecksum
	}

	got := fn(key.Config, blobWords(key))
	if launder32(got) == key.Checksum {
		checkEq("checksum.verify", got, key.Checksum)
		return HardenedBoolTrue
	}
	return HardenedBoolFalse
}

// blobWords returns the words of key covered by KeyblobLength, or the whole slice
// if the length is out of range.
func blobWords(key *BlindedKey) []uint32 {
	n := key.KeyblobLength / wordBytes
	if n < 0 || n > len(key.Keyblob) {
		return key.Keyblob
	}
	return key.Keyblob[:n]
}
