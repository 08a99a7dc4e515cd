// codec_test.go: Tests for keyblob length checks, share views and share combination.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyWithBlob(config KeyConfig) *BlindedKey {
	total := TotalBlobWords(config)
	blob := make([]uint32, total)
	for i := range blob {
		blob[i] = uint32(i + 1)
	}
	return &BlindedKey{Config: config, Keyblob: blob, KeyblobLength: total * wordBytes}
}

func TestCheckLength_Boundaries(t *testing.T) {
	configs := map[string]KeyConfig{
		"aes":       symmetricConfig(KeyTypeAES, 16),
		"ecc":       symmetricConfig(KeyTypeECC, 32),
		"hw-backed": hwBackedConfig(KeyTypeKDF, 32),
	}

	for name, config := range configs {
		t.Run(name, func(t *testing.T) {
			key := newKeyWithBlob(config)
			key.Keyblob = append(key.Keyblob, 0, 0) // room for the +1 word case
			exact := TotalBlobWords(config) * wordBytes

			key.KeyblobLength = exact
			require.NoError(t, CheckLength(key))

			for _, length := range []int{exact - wordBytes, exact + wordBytes, exact - 1, exact + 1, 0} {
				key.KeyblobLength = length
				err := CheckLength(key)
				require.Error(t, err, "length %d", length)
				assert.True(t, errors.Is(err, ErrBadLength))
				assert.True(t, errors.Is(err, ErrBadArgs))
			}
		})
	}
}

func TestCheckLength_LengthsBeyond32Bits(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("int cannot hold lengths beyond 32 bits")
	}
	shift := 32

	for _, config := range []KeyConfig{symmetricConfig(KeyTypeAES, 16), hwBackedConfig(KeyTypeHMAC, 32)} {
		exact := TotalBlobWords(config) * wordBytes
		for _, length := range []int{exact + 1<<shift, exact + 3<<shift, 1 << shift, -exact} {
			key := newKeyWithBlob(config)
			key.KeyblobLength = length

			err := CheckLength(key)
			assert.True(t, errors.Is(err, ErrBadLength), "%s length %d: %v", config, length, err)

			_, _, err = SplitIntoShares(key)
			assert.True(t, errors.Is(err, ErrBadLength), "split %d", length)
		}
	}

	key := newKeyWithBlob(symmetricConfig(KeyTypeAES, 16))
	key.KeyblobLength = 32 + 1<<shift
	assert.True(t, errors.Is(Remask(key, []uint32{1, 1, 1, 1}), ErrBadLength))
	assert.True(t, errors.Is(Unmask(key, make([]uint32, 4)), ErrBadLength))
	assert.Equal(t, []uint32{1, 2, 3, 4, 5, 6, 7, 8}, key.Keyblob)
}

func TestCheckLength_NilAndShortSlice(t *testing.T) {
	err := CheckLength(nil)
	assert.True(t, errors.Is(err, ErrBadArgs))
	assert.False(t, errors.Is(err, ErrBadLength))

	key := newKeyWithBlob(symmetricConfig(KeyTypeAES, 16))
	key.Keyblob = key.Keyblob[:7]
	assert.True(t, errors.Is(CheckLength(key), ErrBadLength))
}

func TestSplitIntoShares_ViewsAliasKeyblob(t *testing.T) {
	key := newKeyWithBlob(symmetricConfig(KeyTypeAES, 16))

	share0, share1, err := SplitIntoShares(key)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 4}, share0)
	assert.Equal(t, []uint32{5, 6, 7, 8}, share1)

	share0[0] = 0xaaaa
	share1[3] = 0xbbbb
	assert.Equal(t, uint32(0xaaaa), key.Keyblob[0])
	assert.Equal(t, uint32(0xbbbb), key.Keyblob[7])
}

func TestSplitIntoShares_CapacityClipped(t *testing.T) {
	key := newKeyWithBlob(symmetricConfig(KeyTypeHMAC, 32))
	key.Keyblob = append(key.Keyblob, 0xdead) // extra word past the blob

	share0, share1, err := SplitIntoShares(key)
	require.NoError(t, err)
	assert.Equal(t, 8, cap(share0))
	assert.Equal(t, 8, cap(share1))

	before := key.Keyblob[8]
	_ = append(share0, 0xffff)
	_ = append(share1, 0xffff)
	assert.Equal(t, before, key.Keyblob[8], "append to share0 must not reach share1")
	assert.Equal(t, uint32(0xdead), key.Keyblob[16], "append to share1 must not reach past the blob")
}

func TestSplitIntoShares_ECCShares(t *testing.T) {
	key := newKeyWithBlob(symmetricConfig(KeyTypeECC, 32))

	share0, share1, err := SplitIntoShares(key)
	require.NoError(t, err)
	assert.Len(t, share0, 10)
	assert.Len(t, share1, 10)
	assert.Equal(t, uint32(11), share1[0])
}

func TestSplitIntoShares_RejectsBadLength(t *testing.T) {
	key := newKeyWithBlob(symmetricConfig(KeyTypeAES, 16))
	key.KeyblobLength -= wordBytes

	share0, share1, err := SplitIntoShares(key)
	assert.True(t, errors.Is(err, ErrBadLength))
	assert.Nil(t, share0)
	assert.Nil(t, share1)
}

func TestSplitIntoShares_HWBackedOversizedShare(t *testing.T) {
	key := newKeyWithBlob(hwBackedConfig(KeyTypeAES, 64))

	_, _, err := SplitIntoShares(key)
	assert.True(t, errors.Is(err, ErrBadArgs))
}

func TestCombineFromShares_CopiesBothShares(t *testing.T) {
	config := symmetricConfig(KeyTypeAES, 16)
	share0 := []uint32{1, 2, 3, 4, 99}
	share1 := []uint32{5, 6, 7, 8, 99}
	blob := make([]uint32, 8)

	require.NoError(t, CombineFromShares(share0, share1, config, blob))
	assert.Equal(t, []uint32{1, 2, 3, 4, 5, 6, 7, 8}, blob)

	share0[0] = 42
	assert.Equal(t, uint32(1), blob[0], "combine must copy, not alias")
}

func TestCombineFromShares_ShortBuffers(t *testing.T) {
	config := symmetricConfig(KeyTypeAES, 16)
	full := []uint32{1, 2, 3, 4}

	tests := []struct {
		name           string
		share0, share1 []uint32
		blob           []uint32
	}{
		{"short share0", full[:3], full, make([]uint32, 8)},
		{"short share1", full, full[:3], make([]uint32, 8)},
		{"short keyblob", full, full, make([]uint32, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CombineFromShares(tt.share0, tt.share1, config, tt.blob)
			assert.True(t, errors.Is(err, ErrBadArgs))
			for _, w := range tt.blob {
				assert.Zero(t, w, "nothing may be written on error")
			}
		})
	}
}

func TestCheckLength_GlitchedComparisonFaults(t *testing.T) {
	key := newKeyWithBlob(symmetricConfig(KeyTypeAES, 16))
	key.KeyblobLength = 36
	// A glitch makes the bad length read as the expected one.
	glitch(t, 36, 1, 32)

	event := expectFault(t, func() { _ = CheckLength(key) })
	assert.Equal(t, "codec.length", event.Site)
}
