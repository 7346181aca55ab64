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

package detect

import (
	"math"

	"ddosguard/pkg/flow"
)

// EntropyThreshold is the Shannon-entropy cutoff below which source traffic
// is considered suspiciously concentrated.
const EntropyThreshold = 1.5

// DetectEntropy computes the Shannon entropy of the source-IP distribution
// in window and, if it falls below EntropyThreshold, emits a single alert
// for the most-frequent source IP (ties broken by first-seen order).
func DetectEntropy(window []flow.Record) []Alert {
	if len(window) < 10 {
		return nil
	}

	ips := newIPOrder()
	counts := make([]int, 0, MaxUniqueIPs)
	for _, rec := range window {
		idx, ok := ips.indexOf(rec.SrcIP)
		if !ok {
			continue
		}
		if idx == len(counts) {
			counts = append(counts, 0)
		}
		counts[idx]++
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return nil
	}

	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}

	if entropy >= EntropyThreshold {
		return nil
	}

	maxIdx := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[maxIdx] {
			maxIdx = i
		}
	}

	return []Alert{{
		SrcIP:      ips.ips()[maxIdx],
		Kind:       Entropy,
		Confidence: (EntropyThreshold - entropy) / EntropyThreshold,
	}}
}
