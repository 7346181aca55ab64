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

// PCAThreshold is the Mahalanobis-style distance above which an IP's
// aggregate feature vector is flagged anomalous.
const PCAThreshold = 3.0

const pcaFeatures = 5

type ipFeatures struct {
	sums  [pcaFeatures]float64
	count int
}

// DetectPCA aggregates five features per source IP (bytes/sec, total
// packets, flow duration, packet-length mean, IAT mean), z-scores them
// across IPs, and flags any IP whose z-scored Euclidean norm exceeds
// PCAThreshold.
func DetectPCA(window []flow.Record) []Alert {
	ips := newIPOrder()
	agg := make([]ipFeatures, 0, MaxUniqueIPs)

	for _, rec := range window {
		idx, ok := ips.indexOf(rec.SrcIP)
		if !ok {
			continue
		}
		if idx == len(agg) {
			agg = append(agg, ipFeatures{})
		}
		a := &agg[idx]
		a.sums[0] += rec.FlowBytesPerSec
		a.sums[1] += rec.TotalFwdPackets + rec.TotalBwdPackets
		a.sums[2] += rec.FlowDuration
		a.sums[3] += rec.PacketLengthMean
		a.sums[4] += rec.FlowIATMean
		a.count++
	}

	n := len(agg)
	if n == 0 {
		return nil
	}

	avgs := make([][pcaFeatures]float64, n)
	for i, a := range agg {
		for f := 0; f < pcaFeatures; f++ {
			avgs[i][f] = a.sums[f] / float64(a.count)
		}
	}

	var mean, stddev [pcaFeatures]float64
	for f := 0; f < pcaFeatures; f++ {
		for i := 0; i < n; i++ {
			mean[f] += avgs[i][f]
		}
		mean[f] /= float64(n)

		for i := 0; i < n; i++ {
			d := avgs[i][f] - mean[f]
			stddev[f] += d * d
		}
		stddev[f] = math.Sqrt(stddev[f] / float64(n))
		if stddev[f] < 1e-6 {
			stddev[f] = 1.0
		}
	}

	var alerts []Alert
	names := ips.ips()
	for i := 0; i < n; i++ {
		dist := 0.0
		for f := 0; f < pcaFeatures; f++ {
			z := (avgs[i][f] - mean[f]) / stddev[f]
			dist += z * z
		}
		dist = math.Sqrt(dist)
		if dist > PCAThreshold {
			alerts = append(alerts, Alert{
				SrcIP:      names[i],
				Kind:       PCA,
				Confidence: dist / PCAThreshold,
			})
		}
	}
	return alerts
}
