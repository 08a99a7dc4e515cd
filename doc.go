// Package keyblob manages blinded keys: secrets held as two 32-bit word shares
// whose XOR is the key, so that cryptographic primitives never hold raw key
// material.
//
// The package offers:
//   - Share and keyblob sizing per key type (AES, HMAC, KMAC, KDF, ECC, RSA)
//   - Zero-copy splitting of a keyblob into share views and copying combination
//   - XOR masking of raw keys, in-place re-masking and unmasking
//   - Diversification data extraction for hardware-backed keys
//   - A key manager provider registry for deriving hardware-backed keys
//
// # Blinding a key
//
//	config := keyblob.KeyConfig{
//		KeyMode:    keyblob.NewKeyMode(keyblob.KeyTypeAES, 0),
//		KeyLength:  16,
//		HWBacked:   keyblob.HardenedBoolFalse,
//		Exportable: keyblob.HardenedBoolFalse,
//	}
//	mask, err := keyblob.GenerateMask(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	key, err := keyblob.NewBlindedKey(rawKeyWords, mask, config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Refresh the shares without changing the key
//	fresh, _ := keyblob.GenerateMask(key.Config)
//	if err := keyblob.Remask(key, fresh); err != nil {
//		log.Fatal(err)
//	}
//
// # Keyblob layout
//
// An XOR-masked keyblob is share0 followed by share1, each ShareSizeWords words.
// ECC shares carry 64 extra redundant bits. A hardware-backed keyblob is
// HWBackedKeyblobWords words: the key manager version followed by the salt
// without its last word, which is the key mode. Callers go through the
// functions of this package rather than indexing Keyblob.
//
// # Errors and faults
//
// Invalid configurations, lengths and key types return errors wrapping
// ErrBadArgs (ErrBadLength for length mismatches), with go-errors codes
// attached. Nothing is written when an error is returned.
//
// Every security-relevant branch is re-verified right after it is taken. A
// failed re-verification means the branch was glitched; it is never returned
// as an error. It is counted, logged and handed to the FaultHandler, and the
// process is then terminated with FaultExitCode.
//
// Booleans that drive security decisions are HardenedBool values compared
// against HardenedBoolTrue and HardenedBoolFalse explicitly. The zero value is
// neither.
//
// Copyright (c) 2025 AGILira
// Series: an AGLIra library
// SPDX-License-Identifier: MPL-2.0
package keyblob
