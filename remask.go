// remask.go: Building blinded keys from key and mask, re-masking and unmasking.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"fmt"
	"log/slog"
)

// RemaskerConfig configures a Remasker. Nil fields take the package defaults.
type RemaskerConfig struct {
	Checksum ChecksumFunc // Integrity checksum, DefaultChecksum if nil
	Logger   *slog.Logger // Debug logging, Logger() if nil
}

// Remasker creates and re-randomizes XOR-masked blinded keys, keeping their
// checksum current.
//
// A Remasker holds no key state. The keys it operates on must not be used
// concurrently from several goroutines.
type Remasker struct {
	checksum ChecksumFunc
	logger   *slog.Logger
}

// NewRemasker creates a Remasker. A nil config uses DefaultChecksum and the
// package logger.
func NewRemasker(config *RemaskerConfig) *Remasker {
	r := &Remasker{checksum: DefaultChecksum}
	if config != nil {
		if config.Checksum != nil {
			r.checksum = config.Checksum
		}
		r.logger = config.Logger
	}
	return r
}

var defaultRemasker = NewRemasker(nil)

func (r *Remasker) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

// FromKeyAndMask writes the keyblob of rawKey masked with mask into keyblob:
// share0 = rawKey ^ mask, share1 = mask.
//
// rawKey and mask must hold at least ShareSizeWords(config) words; extra words are
// ignored. keyblob must hold TotalBlobWords(config) words. Every check runs before
// keyblob is written.
func (r *Remasker) FromKeyAndMask(rawKey, mask []uint32, config KeyConfig, keyblob []uint32) (err error) {
	defer func() { recordOperation(OpFromKeyAndMask, err) }()

	if err := EnsureXorMaskable(config); err != nil {
		r.log().Debug("rejected key import", "config", config.String(), "error", err)
		return err
	}
	if config.KeyLength <= 0 {
		return badArgs(ErrCodeInvalidLength, fmt.Sprintf("key length must be positive, got %d", config.KeyLength))
	}

	w := ShareSizeWords(config)
	if len(rawKey) < w || len(mask) < w {
		return badArgs(ErrCodeShortBuffer, fmt.Sprintf("key and mask must hold %d words", w))
	}
	if len(keyblob) < TotalBlobWords(config) {
		return badArgs(ErrCodeShortBuffer, fmt.Sprintf("keyblob must hold %d words, got %d", TotalBlobWords(config), len(keyblob)))
	}

	scratch := getWords(w)
	defer putWords(scratch)
	share0 := *scratch

	i := 0
	for ; int(launder32(uint32(i))) < w; i++ {
		share0[i] = rawKey[i] ^ mask[i]
	}
	checkEq("remask.from_key.count", uint32(i), uint32(w))

	return CombineFromShares(share0, mask, config, keyblob)
}

// NewBlindedKey imports rawKey as a new blinded key masked with mask. The key owns
// a freshly allocated keyblob and carries a valid checksum.
func (r *Remasker) NewBlindedKey(rawKey, mask []uint32, config KeyConfig) (*BlindedKey, error) {
	if err := EnsureXorMaskable(config); err != nil {
		return nil, err
	}

	total := TotalBlobWords(config)
	key := &BlindedKey{
		Config:        config,
		Keyblob:       make([]uint32, total),
		KeyblobLength: total * wordBytes,
	}
	if err := r.FromKeyAndMask(rawKey, mask, config, key.Keyblob); err != nil {
		return nil, err
	}
	key.Checksum = r.checksum(key.Config, key.Keyblob)
	return key, nil
}

// Remask re-randomizes both shares of key in place with mask and refreshes its
// checksum. The unmasked key value does not change.
//
// mask must hold ShareSizeWords(key.Config) words; it is applied to each share.
// Applying the same mask twice restores the original keyblob. On error the key is
// left untouched.
func (r *Remasker) Remask(key *BlindedKey, mask []uint32) (err error) {
	defer func() { recordOperation(OpRemask, err) }()

	if key == nil {
		return badArgs(ErrCodeNilKey, "blinded key is nil")
	}
	if err := EnsureXorMaskable(key.Config); err != nil {
		r.log().Debug("rejected remask", "config", key.Config.String(), "error", err)
		return err
	}
	if key.Config.KeyLength <= 0 {
		return badArgs(ErrCodeInvalidLength, fmt.Sprintf("key length must be positive, got %d", key.Config.KeyLength))
	}
	if err := CheckLength(key); err != nil {
		r.log().Debug("rejected remask", "config", key.Config.String(), "error", err)
		return err
	}

	shareWords := ShareSizeWords(key.Config)
	totalWords := TotalBlobWords(key.Config)
	if len(mask) < shareWords {
		return badArgs(ErrCodeShortBuffer, fmt.Sprintf("mask must hold %d words, got %d", shareWords, len(mask)))
	}

	i := 0
	for ; int(launder32(uint32(i))) < totalWords; i++ {
		key.Keyblob[i] ^= mask[i%shareWords]
	}
	checkEq("remask.count", uint32(i), uint32(totalWords))

	key.Checksum = r.checksum(key.Config, key.Keyblob[:totalWords])
	r.log().Debug("remasked key", "config", key.Config.String())
	return nil
}

// Unmask writes share0 ^ share1 of key, the unblinded key words, into out.
//
// out must hold ShareSizeWords(key.Config) words. The caller is responsible for
// wiping out after use.
func (r *Remasker) Unmask(key *BlindedKey, out []uint32) (err error) {
	defer func() { recordOperation(OpUnmask, err) }()

	if key == nil {
		return badArgs(ErrCodeNilKey, "blinded key is nil")
	}
	if err := EnsureXorMaskable(key.Config); err != nil {
		return err
	}
	if key.Config.KeyLength <= 0 {
		return badArgs(ErrCodeInvalidLength, fmt.Sprintf("key length must be positive, got %d", key.Config.KeyLength))
	}
	share0, share1, err := SplitIntoShares(key)
	if err != nil {
		return err
	}
	w := len(share0)
	if len(out) < w {
		return badArgs(ErrCodeShortBuffer, fmt.Sprintf("output must hold %d words, got %d", w, len(out)))
	}

	i := 0
	for ; int(launder32(uint32(i))) < w; i++ {
		out[i] = share0[i] ^ share1[i]
	}
	checkEq("unmask.count", uint32(i), uint32(w))
	return nil
}

// Verify reports whether the stored checksum of key matches its contents.
func (r *Remasker) Verify(key *BlindedKey) HardenedBool {
	return VerifyChecksum(key, r.checksum)
}

// FromKeyAndMask uses the default Remasker; see Remasker.FromKeyAndMask.
func FromKeyAndMask(rawKey, mask []uint32, config KeyConfig, keyblob []uint32) error {
	return defaultRemasker.FromKeyAndMask(rawKey, mask, config, keyblob)
}

// NewBlindedKey uses the default Remasker; see Remasker.NewBlindedKey.
func NewBlindedKey(rawKey, mask []uint32, config KeyConfig) (*BlindedKey, error) {
	return defaultRemasker.NewBlindedKey(rawKey, mask, config)
}

// Remask uses the default Remasker; see Remasker.Remask.
func Remask(key *BlindedKey, mask []uint32) error {
	return defaultRemasker.Remask(key, mask)
}

// Unmask uses the default Remasker; see Remasker.Unmask.
func Unmask(key *BlindedKey, out []uint32) error {
	return defaultRemasker.Unmask(key, out)
}
