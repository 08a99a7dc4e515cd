// hardened.go: Fault-injection hardened primitives shared by every keyblob operation.
//
// Security-relevant branches are followed by an independent re-check of the same
// condition. The re-check reads its operands through launder32, which the compiler
// cannot see through, so it survives optimization. A failed re-check means the
// primary branch was glitched and the process is terminated.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"crypto/subtle"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// HardenedBool is a boolean encoded as one of two bit-distant words.
//
// Compare only against HardenedBoolTrue or HardenedBoolFalse. Any other value,
// including the zero value, is neither true nor false.
type HardenedBool uint32

const (
	HardenedBoolTrue  HardenedBool = 0x739
	HardenedBoolFalse HardenedBool = 0x1d4
)

// Harden converts a native bool into its hardened encoding.
func Harden(b bool) HardenedBool {
	if b {
		return HardenedBoolTrue
	}
	return HardenedBoolFalse
}

func (b HardenedBool) String() string {
	switch b {
	case HardenedBoolTrue:
		return "true"
	case HardenedBoolFalse:
		return "false"
	default:
		return fmt.Sprintf("invalid(%#x)", uint32(b))
	}
}

// statusOK is the word an OK policy decision must fold back to.
const statusOK = uint32(HardenedBoolTrue)

// launder32 is reached through a variable so tests can model a corrupted read.
var launder32 = launderIdentity

//go:noinline
func launderIdentity(v uint32) uint32 {
	return v
}

// FaultExitCode is the process exit status used when a fault is detected.
const FaultExitCode = 134

// FaultEvent describes a failed redundant check.
type FaultEvent struct {
	Site string    // Check site, e.g. "policy.result"
	Got  uint32    // Value observed by the re-check
	Want uint32    // Value the primary branch implied
	At   time.Time // Detection time
}

func (e FaultEvent) String() string {
	return fmt.Sprintf("keyblob: fault at %s (got %#x, want %#x)", e.Site, e.Got, e.Want)
}

// FaultHandler reacts to a detected fault. It must not return normally; if it
// does, the process is terminated anyway.
type FaultHandler func(FaultEvent)

var (
	faultMu      sync.RWMutex
	faultHandler FaultHandler = haltOnFault

	// exit terminates the process after the handler has run.
	exit = os.Exit
)

func haltOnFault(FaultEvent) {
	exit(FaultExitCode)
}

// SetFaultHandler installs h and returns the previous handler. A nil handler
// restores the default, which terminates the process.
func SetFaultHandler(h FaultHandler) FaultHandler {
	faultMu.Lock()
	defer faultMu.Unlock()

	prev := faultHandler
	if h == nil {
		h = haltOnFault
	}
	faultHandler = h
	return prev
}

// fault records the event and never returns.
func fault(site string, got, want uint32) {
	event := FaultEvent{
		Site: site,
		Got:  got,
		Want: want,
		At:   timecache.CachedTime(),
	}

	recordFault(site)
	Logger().Error("redundant check failed", "site", site, "got", got, "want", want)

	faultMu.RLock()
	handler := faultHandler
	faultMu.RUnlock()

	handler(event)
	exit(FaultExitCode)
}

func checkEq(site string, got, want uint32) {
	if launder32(got) != launder32(want) {
		fault(site, got, want)
	}
}

func checkNe(site string, got, unwanted uint32) {
	if launder32(got) == launder32(unwanted) {
		fault(site, got, unwanted)
	}
}

func checkLe(site string, got, limit uint32) {
	if launder32(got) > launder32(limit) {
		fault(site, got, limit)
	}
}

// trap marks a path that earlier checks make unreachable.
func trap(site string) {
	fault(site, 0, 0)
}

// hardenedCopy copies the first n words of src into dst. Callers guarantee that
// both slices hold at least n words.
func hardenedCopy(dst, src []uint32, n int) {
	i := 0
	for ; int(launder32(uint32(i))) < n; i++ {
		dst[i] = src[i]
	}
	checkEq("copy.count", uint32(i), uint32(n))
}

// hardenedEqual compares the first n words of a and b without early exit.
func hardenedEqual(a, b []uint32, n int) HardenedBool {
	var diff uint32
	i := 0
	for ; int(launder32(uint32(i))) < n; i++ {
		diff |= a[i] ^ b[i]
	}
	checkEq("equal.count", uint32(i), uint32(n))

	if subtle.ConstantTimeEq(int32(launder32(diff)), 0) == 1 {
		checkEq("equal.diff", diff, 0)
		return HardenedBoolTrue
	}
	return HardenedBoolFalse
}
