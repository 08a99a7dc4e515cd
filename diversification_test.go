// diversification_test.go: Tests for hardware-backed keyblob layout and extraction.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHWBackedKey(t *testing.T, config KeyConfig, version uint32, salt [KeymgrSaltNumWords - 1]uint32) *BlindedKey {
	t.Helper()

	blob := make([]uint32, HWBackedKeyblobWords)
	require.NoError(t, HWBackedKeyblob(version, salt, blob))
	return &BlindedKey{Config: config, Keyblob: blob, KeyblobLength: HWBackedKeyblobBytes}
}

func TestExtractDiversification_Layout(t *testing.T) {
	config := hwBackedConfig(KeyTypeAES, 32)
	salt := [KeymgrSaltNumWords - 1]uint32{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16}
	key := newHWBackedKey(t, config, 0xcafe, salt)

	assert.Equal(t, []uint32{0xcafe, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16}, key.Keyblob)

	div, err := ExtractDiversification(key)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcafe), div.Version)
	assert.Equal(t, [KeymgrSaltNumWords]uint32{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, uint32(config.KeyMode)}, div.Salt)
}

func TestExtractDiversification_ModeSelectsLastSaltWord(t *testing.T) {
	salt := [KeymgrSaltNumWords - 1]uint32{1, 2, 3, 4, 5, 6, 7}
	aes := newHWBackedKey(t, hwBackedConfig(KeyTypeAES, 32), 3, salt)
	hmac := newHWBackedKey(t, hwBackedConfig(KeyTypeHMAC, 32), 3, salt)

	divAES, err := ExtractDiversification(aes)
	require.NoError(t, err)
	divHMAC, err := ExtractDiversification(hmac)
	require.NoError(t, err)

	assert.Equal(t, divAES.Salt[:KeymgrSaltNumWords-1], divHMAC.Salt[:KeymgrSaltNumWords-1])
	assert.NotEqual(t, divAES.Salt[KeymgrSaltNumWords-1], divHMAC.Salt[KeymgrSaltNumWords-1])
}

func TestExtractDiversification_Rejects(t *testing.T) {
	salt := [KeymgrSaltNumWords - 1]uint32{}

	t.Run("nil key", func(t *testing.T) {
		_, err := ExtractDiversification(nil)
		assert.True(t, errors.Is(err, ErrBadArgs))
	})

	t.Run("not hw-backed", func(t *testing.T) {
		key := newHWBackedKey(t, symmetricConfig(KeyTypeAES, 16), 1, salt)
		_, err := ExtractDiversification(key)
		assert.True(t, errors.Is(err, ErrBadArgs))
	})

	t.Run("invalid hardened flag", func(t *testing.T) {
		config := hwBackedConfig(KeyTypeAES, 16)
		config.HWBacked = HardenedBoolTrue ^ 1
		key := newHWBackedKey(t, config, 1, salt)
		_, err := ExtractDiversification(key)
		assert.True(t, errors.Is(err, ErrBadArgs))
	})

	t.Run("nil keyblob", func(t *testing.T) {
		key := &BlindedKey{Config: hwBackedConfig(KeyTypeAES, 16), KeyblobLength: HWBackedKeyblobBytes}
		_, err := ExtractDiversification(key)
		assert.True(t, errors.Is(err, ErrBadArgs))
	})

	for _, length := range []int{HWBackedKeyblobBytes - 4, HWBackedKeyblobBytes + 4, HWBackedKeyblobBytes - 1} {
		key := newHWBackedKey(t, hwBackedConfig(KeyTypeAES, 16), 1, salt)
		key.KeyblobLength = length
		_, err := ExtractDiversification(key)
		assert.True(t, errors.Is(err, ErrBadArgs), "length %d", length)
	}
}

func TestHWBackedKeyblob_ShortBuffer(t *testing.T) {
	err := HWBackedKeyblob(1, [KeymgrSaltNumWords - 1]uint32{}, make([]uint32, HWBackedKeyblobWords-1))
	assert.True(t, errors.Is(err, ErrBadArgs))
}

func TestExtractDiversification_GlitchedFlagFaults(t *testing.T) {
	key := newHWBackedKey(t, symmetricConfig(KeyTypeAES, 16), 1, [KeymgrSaltNumWords - 1]uint32{})
	glitch(t, uint32(HardenedBoolFalse), 1, uint32(HardenedBoolTrue))

	event := expectFault(t, func() { _, _ = ExtractDiversification(key) })
	assert.Equal(t, "diversification.hw_backed", event.Site)
}

func TestExtractDiversification_GlitchedVersionFaults(t *testing.T) {
	key := newHWBackedKey(t, hwBackedConfig(KeyTypeAES, 16), 0x5a5a, [KeymgrSaltNumWords - 1]uint32{})
	glitch(t, 0x5a5a, 1, 0)

	event := expectFault(t, func() { _, _ = ExtractDiversification(key) })
	assert.Equal(t, "diversification.version", event.Site)
}
