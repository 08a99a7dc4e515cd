// codec.go: Splitting keyblobs into share views and combining shares into keyblobs.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"fmt"
	"math"
)

// CheckLength verifies that key.KeyblobLength matches the size implied by
// key.Config and that the Keyblob slice actually holds that many words.
//
// Returns an error wrapping ErrBadLength (and therefore ErrBadArgs) on mismatch.
func CheckLength(key *BlindedKey) error {
	if key == nil {
		return badArgs(ErrCodeNilKey, "blinded key is nil")
	}

	numWords := TotalBlobWords(key.Config)
	// Lengths outside the 32-bit range would alias a valid one once laundered
	if key.KeyblobLength < 0 || uint64(key.KeyblobLength) > math.MaxUint32 ||
		int(launder32(uint32(key.KeyblobLength))) != numWords*wordBytes {
		return badLength(fmt.Sprintf("keyblob length %d, expected %d bytes for %s", key.KeyblobLength, numWords*wordBytes, key.Config))
	}
	checkEq("codec.length", uint32(key.KeyblobLength), uint32(numWords*wordBytes))
	checkLe("codec.length_words", uint32(key.KeyblobLength/wordBytes), uint32(numWords))

	if len(key.Keyblob) < numWords {
		return badLength(fmt.Sprintf("keyblob holds %d words, expected %d", len(key.Keyblob), numWords))
	}
	return nil
}

// SplitIntoShares returns the two shares of a blinded key as views into its
// keyblob. Nothing is copied: writes through either view change the key, and
// the views must not be used after the keyblob storage is released.
//
// Each view's capacity ends at its own last word, so appending to share0 cannot
// overwrite share1.
func SplitIntoShares(key *BlindedKey) (share0, share1 []uint32, err error) {
	if err := CheckLength(key); err != nil {
		return nil, nil, err
	}

	w := ShareSizeWords(key.Config)
	total := TotalBlobWords(key.Config)
	if w < 0 || w > total {
		return nil, nil, badArgs(ErrCodeShortBuffer, fmt.Sprintf("share of %d words does not fit a %d word keyblob", w, total))
	}
	return key.Keyblob[0:w:w], key.Keyblob[w:total:total], nil
}

// CombineFromShares copies ShareSizeWords(config) words from share0 and then from
// share1 into keyblob. Share contents are not inspected.
//
// keyblob must be sized by the caller to hold both shares. Buffers that are too
// short are rejected with ErrBadArgs before anything is written.
func CombineFromShares(share0, share1 []uint32, config KeyConfig, keyblob []uint32) error {
	w := ShareSizeWords(config)
	if len(share0) < w || len(share1) < w {
		return badArgs(ErrCodeShortBuffer, fmt.Sprintf("shares must hold %d words", w))
	}
	if len(keyblob) < 2*w {
		return badArgs(ErrCodeShortBuffer, fmt.Sprintf("keyblob must hold %d words, got %d", 2*w, len(keyblob)))
	}

	hardenedCopy(keyblob, share0, w)
	hardenedCopy(keyblob[w:], share1, w)
	return nil
}
