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

import "ddosguard/pkg/flow"

// CUSUM tuning constants, unchanged from the reference.
const (
	CUSUMBaseline  = 50000.0
	CUSUMDrift     = 0.5
	CUSUMThreshold = 5.0
)

type ipRate struct {
	totalBytesPerSec float64
	count            int
}

// DetectCUSUM computes a per-IP cumulative-sum statistic on byte rate
// against a fixed baseline. State is deliberately fresh every call — there
// is no cross-window carry (see the CUSUM open question recorded in
// DESIGN.md).
func DetectCUSUM(window []flow.Record) []Alert {
	ips := newIPOrder()
	agg := make([]ipRate, 0, MaxUniqueIPs)

	for _, rec := range window {
		idx, ok := ips.indexOf(rec.SrcIP)
		if !ok {
			continue
		}
		if idx == len(agg) {
			agg = append(agg, ipRate{})
		}
		agg[idx].totalBytesPerSec += rec.FlowBytesPerSec
		agg[idx].count++
	}

	var alerts []Alert
	names := ips.ips()
	for i, a := range agg {
		if a.count == 0 {
			continue
		}
		avgRate := a.totalBytesPerSec / float64(a.count)
		deviation := avgRate - CUSUMBaseline

		sHigh := deviation - CUSUMDrift*CUSUMBaseline
		if sHigh < 0 {
			sHigh = 0
		}
		sLow := -deviation - CUSUMDrift*CUSUMBaseline
		if sLow < 0 {
			sLow = 0
		}
		_ = sLow // computed for parity with the reference; never triggers

		if sHigh > CUSUMThreshold*CUSUMBaseline {
			alerts = append(alerts, Alert{
				SrcIP:      names[i],
				Kind:       CUSUM,
				Confidence: sHigh / (CUSUMThreshold * CUSUMBaseline),
			})
		}
	}
	return alerts
}
