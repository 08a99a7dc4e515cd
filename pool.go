// pool.go: Scratch word buffers for share computation, zeroed on return
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"runtime"
	"sync"
)

const (
	smallShareWords = 16  // up to 512-bit symmetric keys and ECC P-384 shares
	largeShareWords = 128 // up to RSA-4096 shares
)

var (
	smallWordPool = sync.Pool{
		New: func() interface{} {
			buf := make([]uint32, smallShareWords)
			return &buf
		},
	}

	largeWordPool = sync.Pool{
		New: func() interface{} {
			buf := make([]uint32, largeShareWords)
			return &buf
		},
	}
)

// getWords returns a scratch buffer of n words from the matching pool
func getWords(n int) *[]uint32 {
	switch {
	case n <= smallShareWords:
		buf := smallWordPool.Get().(*[]uint32)
		*buf = (*buf)[:n]
		return buf
	case n <= largeShareWords:
		buf := largeWordPool.Get().(*[]uint32)
		*buf = (*buf)[:n]
		return buf
	default:
		// Oversized requests bypass the pools
		buf := make([]uint32, n)
		return &buf
	}
}

// clearWords zeroes buf; KeepAlive keeps the stores from being dropped
func clearWords(buf []uint32) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}

// putWords zeroes the whole capacity of buf and returns it to its pool.
// Scratch buffers hold masked key words, so they are always cleared.
func putWords(buf *[]uint32) {
	if buf == nil {
		return
	}

	full := (*buf)[:cap(*buf)]
	clearWords(full)

	switch cap(full) {
	case smallShareWords:
		*buf = full
		smallWordPool.Put(buf)
	case largeShareWords:
		*buf = full
		largeWordPool.Put(buf)
		// Non-standard capacities are left to the garbage collector
	}
}
