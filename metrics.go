// metrics.go: Prometheus instrumentation for keyblob operations and detected faults.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package keyblob

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all keyblob metrics
	Namespace = "keyblob"

	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelSite      = "site"

	StatusSuccess = "success"
	StatusBadArgs = "bad_args"
	StatusError   = "error"

	OpFromKeyAndMask = "from_key_and_mask"
	OpRemask         = "remask"
	OpUnmask         = "unmask"
	OpDiversify      = "diversify"
	OpDerive         = "derive"
)

var (
	// OperationsTotal counts mutating and deriving operations by outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of keyblob operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// FaultsTotal counts failed redundant checks by site. Any non-zero value
	// means the process observed a glitch.
	FaultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "faults_total",
			Help:      "Total number of failed redundant checks by site",
		},
		[]string{LabelSite},
	)
)

func operationStatus(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrBadArgs):
		return StatusBadArgs
	default:
		return StatusError
	}
}

// recordOperation increments OperationsTotal for op with the status derived from err.
func recordOperation(op string, err error) {
	OperationsTotal.WithLabelValues(op, operationStatus(err)).Inc()
}

func recordFault(site string) {
	FaultsTotal.WithLabelValues(site).Inc()
}
