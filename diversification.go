// diversification.go: Key manager diversification data held by hardware-backed keys.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import "fmt"

// Diversification is the input the key manager needs to derive a
// hardware-backed key. It is produced on demand and never stored.
type Diversification struct {
	Version uint32
	Salt    [KeymgrSaltNumWords]uint32
}

// ExtractDiversification reads the diversification data of a hardware-backed key.
//
// The keyblob holds the version followed by all salt words but the last; the last
// salt word is the key mode, so a key cannot be derived under another mode.
func ExtractDiversification(key *BlindedKey) (Diversification, error) {
	var div Diversification

	if key == nil {
		return div, badArgs(ErrCodeNilKey, "blinded key is nil")
	}
	if HardenedBool(launder32(uint32(key.Config.HWBacked))) != HardenedBoolTrue || key.Keyblob == nil {
		return div, badArgs(ErrCodeNotHWBacked, "diversification requires a hardware-backed key")
	}
	checkEq("diversification.hw_backed", uint32(key.Config.HWBacked), uint32(HardenedBoolTrue))

	if key.KeyblobLength != HWBackedKeyblobBytes || len(key.Keyblob) < HWBackedKeyblobWords {
		return div, badLength(fmt.Sprintf("hardware-backed keyblob must be %d bytes, got %d", HWBackedKeyblobBytes, key.KeyblobLength))
	}

	div.Version = launder32(key.Keyblob[0])
	hardenedCopy(div.Salt[:], key.Keyblob[1:], KeymgrSaltNumWords-1)
	div.Salt[KeymgrSaltNumWords-1] = launder32(uint32(key.Config.KeyMode))

	checkEq("diversification.version", div.Version, key.Keyblob[0])
	checkEq("diversification.salt", uint32(hardenedEqual(div.Salt[:], key.Keyblob[1:], KeymgrSaltNumWords-1)), uint32(HardenedBoolTrue))
	checkEq("diversification.mode", div.Salt[KeymgrSaltNumWords-1], uint32(key.Config.KeyMode))

	recordOperation(OpDiversify, nil)
	return div, nil
}

// HWBackedKeyblob lays out the keyblob of a hardware-backed key from a version and
// the stored salt words. The last salt word is not stored; it is taken from the
// key mode at extraction time. keyblob must hold HWBackedKeyblobWords words.
func HWBackedKeyblob(version uint32, salt [KeymgrSaltNumWords - 1]uint32, keyblob []uint32) error {
	if len(keyblob) < HWBackedKeyblobWords {
		return badArgs(ErrCodeShortBuffer, fmt.Sprintf("keyblob must hold %d words, got %d", HWBackedKeyblobWords, len(keyblob)))
	}
	keyblob[0] = version
	hardenedCopy(keyblob[1:], salt[:], KeymgrSaltNumWords-1)
	return nil
}
