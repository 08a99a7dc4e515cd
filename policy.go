// policy.go: Eligibility of a key configuration for two-share XOR masking.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import "fmt"

// EnsureXorMaskable returns nil if keys with this configuration are stored as two
// XOR shares, and an error wrapping ErrBadArgs otherwise.
//
// Hardware-backed keys are rejected because their keyblob is diversification
// data, not key material. ECC, RSA and unrecognized key types are rejected
// because they are not masked with XOR. Only AES, HMAC, KMAC and KDF keys pass.
func EnsureXorMaskable(config KeyConfig) error {
	if HardenedBool(launder32(uint32(config.HWBacked))) != HardenedBoolFalse {
		return badArgs(ErrCodeHWBacked, fmt.Sprintf("hardware-backed key is not XOR-masked: %s", config))
	}
	checkEq("policy.hw_backed", uint32(config.HWBacked), uint32(HardenedBoolFalse))

	keyType := KeyType(launder32(uint32(config.KeyMode)) >> keyTypeShift)

	// result folds back to statusOK only if the matched arm agrees with keyType.
	result := launder32(statusOK ^ uint32(keyType))
	switch KeyType(launder32(uint32(keyType))) {
	case KeyTypeAES:
		checkEq("policy.aes", uint32(config.KeyMode.Type()), uint32(KeyTypeAES))
		result ^= launder32(uint32(KeyTypeAES))
	case KeyTypeHMAC:
		checkEq("policy.hmac", uint32(config.KeyMode.Type()), uint32(KeyTypeHMAC))
		result ^= launder32(uint32(KeyTypeHMAC))
	case KeyTypeKMAC:
		checkEq("policy.kmac", uint32(config.KeyMode.Type()), uint32(KeyTypeKMAC))
		result ^= launder32(uint32(KeyTypeKMAC))
	case KeyTypeKDF:
		checkEq("policy.kdf", uint32(config.KeyMode.Type()), uint32(KeyTypeKDF))
		result ^= launder32(uint32(KeyTypeKDF))
	case KeyTypeECC, KeyTypeRSA:
		return badArgs(ErrCodeAsymmetric, fmt.Sprintf("asymmetric key is not XOR-masked: %s", config))
	default:
		return badArgs(ErrCodeUnknownType, fmt.Sprintf("unrecognized key type %#x", uint32(keyType)))
	}
	checkNe("policy.not_ecc", uint32(config.KeyMode.Type()), uint32(KeyTypeECC))
	checkNe("policy.not_rsa", uint32(config.KeyMode.Type()), uint32(KeyTypeRSA))
	checkEq("policy.result", result, statusOK)

	return nil
}
