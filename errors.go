// errors.go: Error values returned by keyblob operations.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"errors"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Public standard errors, usable with errors.Is().
//
// Detected faults are never reported through these values: they terminate the
// process through the installed FaultHandler.
var (
	// ErrBadArgs is returned for an invalid configuration, length or key type.
	// The operation has not written anything when it is returned.
	ErrBadArgs = errors.New("keyblob: bad arguments")

	// ErrBadLength is returned when a keyblob length disagrees with its configuration.
	ErrBadLength = fmt.Errorf("%w: keyblob length mismatch", ErrBadArgs)
)

// Error codes for rich error handling
const (
	ErrCodeNilKey        goerrors.ErrorCode = "KEYBLOB_NIL_KEY"
	ErrCodeBadLength     goerrors.ErrorCode = "KEYBLOB_BAD_LENGTH"
	ErrCodeShortBuffer   goerrors.ErrorCode = "KEYBLOB_SHORT_BUFFER"
	ErrCodeHWBacked      goerrors.ErrorCode = "KEYBLOB_HW_BACKED"
	ErrCodeNotHWBacked   goerrors.ErrorCode = "KEYBLOB_NOT_HW_BACKED"
	ErrCodeAsymmetric    goerrors.ErrorCode = "KEYBLOB_ASYMMETRIC"
	ErrCodeUnknownType   goerrors.ErrorCode = "KEYBLOB_UNKNOWN_KEY_TYPE"
	ErrCodeMaskGen       goerrors.ErrorCode = "KEYBLOB_MASK_GEN"
	ErrCodeInvalidLength goerrors.ErrorCode = "KEYBLOB_INVALID_KEY_LENGTH"
)

func badArgs(code goerrors.ErrorCode, msg string) error {
	return fmt.Errorf("%w: %w", ErrBadArgs, goerrors.New(code, msg))
}

func badLength(msg string) error {
	return fmt.Errorf("%w: %w", ErrBadLength, goerrors.New(ErrCodeBadLength, msg))
}
