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

package metrics

// Derived holds the rates computed from a Snapshot's confusion matrix at
// report time.
type Derived struct {
	Precision float64
	Recall    float64
	F1        float64
	FPR       float64
	Accuracy  float64
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Derive computes precision/recall/F1/false-positive-rate/accuracy from a
// Snapshot's confusion matrix, using the 0/0 -> 0 convention throughout.
func Derive(s Snapshot) Derived {
	tp := float64(s.TruePositives)
	fp := float64(s.FalsePositives)
	tn := float64(s.TrueNegatives)
	fn := float64(s.FalseNegatives)

	precision := safeDiv(tp, tp+fp)
	recall := safeDiv(tp, tp+fn)
	f1 := safeDiv(2*precision*recall, precision+recall)
	fpr := safeDiv(fp, fp+tn)
	accuracy := safeDiv(tp+tn, tp+fp+tn+fn)

	return Derived{
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		FPR:       fpr,
		Accuracy:  accuracy,
	}
}

// Aggregate combines per-worker snapshots into one report-level snapshot.
// Counters are summed; cross-worker resource/latency estimates that are not
// meaningful summed are averaged instead, matching the reference's
// aggregation discipline exactly (including DetectionLeadTimeMs, which the
// reference overwrites rather than sums or averages — the last worker's
// value wins).
func Aggregate(workers []Snapshot) Snapshot {
	var out Snapshot
	n := len(workers)
	for _, w := range workers {
		out.TruePositives += w.TruePositives
		out.FalsePositives += w.FalsePositives
		out.TrueNegatives += w.TrueNegatives
		out.FalseNegatives += w.FalseNegatives
		out.TotalFlows += w.TotalFlows
		out.BlockedFlows += w.BlockedFlows
		out.LegitimateBlocked += w.LegitimateBlocked
		out.DDoSFlows += w.DDoSFlows
		out.BenignFlows += w.BenignFlows

		out.TotalLatencyMs += w.TotalLatencyMs
		out.ThroughputFlowsPerSec += w.ThroughputFlowsPerSec
		out.TransportOverheadMs += w.TransportOverheadMs
		out.LocalDetectionTimeMs += w.LocalDetectionTimeMs
		out.GlobalDetectionTimeMs += w.GlobalDetectionTimeMs
		out.DetectionLeadTimeMs = w.DetectionLeadTimeMs

		out.CPUUsagePercent += w.CPUUsagePercent
		out.MemoryUsageMB += w.MemoryUsageMB
		out.LatencyP95Ms += w.LatencyP95Ms
		out.LatencyP99Ms += w.LatencyP99Ms
		out.AttackTrafficDroppedPct += w.AttackTrafficDroppedPct
	}
	if n > 0 {
		out.CPUUsagePercent /= float64(n)
		out.LatencyP95Ms /= float64(n)
		out.LatencyP99Ms /= float64(n)
		out.AttackTrafficDroppedPct /= float64(n)
	}
	return out
}
