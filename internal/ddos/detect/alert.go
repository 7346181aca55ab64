// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package detect implements the three pure, side-effect-free anomaly
// detectors that turn a window of flow records into a bounded sequence of
// alerts: Shannon entropy over source IPs, a Mahalanobis-style PCA outlier
// distance, and a CUSUM change-point statistic on per-IP byte rate.
package detect

import "ddosguard/pkg/flow"

// Kind identifies which detector raised an Alert.
type Kind int

const (
	Entropy Kind = iota + 1
	PCA
	CUSUM
)

func (k Kind) String() string {
	switch k {
	case Entropy:
		return "entropy"
	case PCA:
		return "pca"
	case CUSUM:
		return "cusum"
	default:
		return "unknown"
	}
}

// Alert is the output of a detector: a flagged source IP with a confidence
// score relative to the detector's own threshold.
type Alert struct {
	SrcIP      string
	Timestamp  float64 // reserved, always 0 — no detector sets it
	Kind       Kind
	Confidence float64
}

// MaxUniqueIPs bounds the number of distinct source IPs any detector will
// track within a single window; overflow IPs are silently ignored, per the
// same cap used by all three detectors.
const MaxUniqueIPs = 1000

// ipOrder provides an insertion-ordered, capped set of per-IP accumulators
// shared by the three detectors so that tie-breaks are deterministic and
// first-seen order is preserved without an on-stack array cap.
type ipOrder struct {
	index map[string]int
	order []string
}

func newIPOrder() *ipOrder {
	return &ipOrder{index: make(map[string]int)}
}

// indexOf returns the slot for ip, creating one if under MaxUniqueIPs and
// ip is new. ok is false only when ip is new and the cap has been reached.
func (o *ipOrder) indexOf(ip string) (idx int, ok bool) {
	if i, present := o.index[ip]; present {
		return i, true
	}
	if len(o.order) >= MaxUniqueIPs {
		return 0, false
	}
	idx = len(o.order)
	o.order = append(o.order, ip)
	o.index[ip] = idx
	return idx, true
}

func (o *ipOrder) ips() []string { return o.order }

// RunAll applies all three detectors to window and concatenates their
// alerts, matching the reference's combined run_detection entrypoint.
func RunAll(window []flow.Record) []Alert {
	var alerts []Alert
	alerts = append(alerts, DetectEntropy(window)...)
	alerts = append(alerts, DetectPCA(window)...)
	alerts = append(alerts, DetectCUSUM(window)...)
	return alerts
}

// CapabilityProbe reports whether an accelerated (GPU) entropy kernel is
// available. This implementation always reports false: no such kernel is
// wired in, and the rest of the pipeline must not observe any difference if
// one were.
func CapabilityProbe() bool { return false }
