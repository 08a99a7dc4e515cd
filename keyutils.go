// keyutils.go: Mask generation, word/byte conversion and zeroization helpers.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"

	goerrors "github.com/agilira/go-errors"
)

// randReader is the source of mask randomness.
var randReader io.Reader = rand.Reader

// GenerateMask returns ShareSizeWords(config) random words suitable as a mask for
// FromKeyAndMask or Remask.
//
// The mask quality is that of crypto/rand; callers with a hardware entropy
// source may supply their own masks instead.
//
// Example:
//
//	mask, err := keyblob.GenerateMask(key.Config)
//	if err != nil {
//		return err
//	}
//	defer keyblob.ZeroizeWords(mask)
//	err = keyblob.Remask(key, mask)
func GenerateMask(config KeyConfig) ([]uint32, error) {
	w := ShareSizeWords(config)
	if w <= 0 {
		return nil, badArgs(ErrCodeInvalidLength, fmt.Sprintf("key length must be positive, got %d", config.KeyLength))
	}

	buf := make([]byte, w*wordBytes)
	defer Zeroize(buf)
	if _, err := io.ReadFull(randReader, buf); err != nil {
		return nil, goerrors.Wrap(err, ErrCodeMaskGen, "failed to generate mask")
	}
	return WordsFromBytes(buf), nil
}

// WordsFromBytes packs b into little-endian 32-bit words. A trailing partial word
// is zero padded.
func WordsFromBytes(b []byte) []uint32 {
	words := make([]uint32, (len(b)+wordBytes-1)/wordBytes)
	for i := range words {
		var w [wordBytes]byte
		copy(w[:], b[i*wordBytes:])
		words[i] = binary.LittleEndian.Uint32(w[:])
	}
	return words
}

// WordsToBytes unpacks words into n little-endian bytes. n larger than the word
// data is clipped.
func WordsToBytes(words []uint32, n int) []byte {
	full := make([]byte, len(words)*wordBytes)
	for i, w := range words {
		binary.LittleEndian.PutUint32(full[i*wordBytes:], w)
	}
	if n < 0 || n > len(full) {
		n = len(full)
	}
	out := make([]byte, n)
	copy(out, full)
	Zeroize(full)
	return out
}

// Zeroize overwrites b with zeros.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroizeWords overwrites words with zeros.
func ZeroizeWords(words []uint32) {
	clearWords(words)
}
