// helpers_test.go: Shared helpers for white-box tests: fault capture and glitch injection.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"os"
	"testing"
)

// faultPanic carries a FaultEvent out of fault() in tests.
type faultPanic struct {
	event FaultEvent
}

// exitPanic is raised by the test replacement of exit.
type exitPanic struct {
	code int
}

// expectFault runs fn with a panicking fault handler and returns the captured
// event. The test fails if fn completes without a fault.
func expectFault(t *testing.T, fn func()) (event FaultEvent) {
	t.Helper()

	prev := SetFaultHandler(func(e FaultEvent) {
		panic(faultPanic{event: e})
	})
	defer SetFaultHandler(prev)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a fault, none was raised")
		}
		fp, ok := r.(faultPanic)
		if !ok {
			panic(r)
		}
		event = fp.event
	}()

	fn()
	return FaultEvent{}
}

// glitch makes the nth launder32 call (1-based) whose input is in return out
// instead, modelling a corrupted register read. It is undone when the test ends.
func glitch(t *testing.T, in uint32, nth int, out uint32) {
	t.Helper()

	seen := 0
	launder32 = func(v uint32) uint32 {
		if v == in {
			seen++
			if seen == nth {
				return out
			}
		}
		return v
	}
	t.Cleanup(func() { launder32 = launderIdentity })
}

// stubExit replaces the process exit with a panic for the duration of the test.
func stubExit(t *testing.T) {
	t.Helper()

	exit = func(code int) {
		panic(exitPanic{code: code})
	}
	t.Cleanup(func() { exit = os.Exit })
}

func symmetricConfig(keyType KeyType, length int) KeyConfig {
	return KeyConfig{
		Version:    1,
		KeyMode:    NewKeyMode(keyType, 0x1),
		KeyLength:  length,
		HWBacked:   HardenedBoolFalse,
		Exportable: HardenedBoolFalse,
	}
}

func hwBackedConfig(keyType KeyType, length int) KeyConfig {
	config := symmetricConfig(keyType, length)
	config.HWBacked = HardenedBoolTrue
	return config
}
