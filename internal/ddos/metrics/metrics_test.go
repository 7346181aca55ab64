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

import (
	"testing"

	"ddosguard/internal/ddos/blocklist"
	"ddosguard/internal/ddos/detect"
	"ddosguard/pkg/flow"
)

func TestUpdate_ConfusionMatrixSumsToTotalFlows(t *testing.T) {
	a := New()
	bl := blocklist.New()
	bl.Add("10.0.0.1", 0)

	window := []flow.Record{
		{SrcIP: "10.0.0.1", IsAttack: true},  // detected + blocked -> TP
		{SrcIP: "1.2.3.4", IsAttack: false},  // TN
		{SrcIP: "5.6.7.8", IsAttack: true},   // not detected -> FN
	}
	alerts := []detect.Alert{{SrcIP: "10.0.0.1", Kind: detect.Entropy}}
	a.Update(window, alerts, bl)

	s := a.Snapshot()
	if sum := s.TruePositives + s.FalsePositives + s.TrueNegatives + s.FalseNegatives; sum != s.TotalFlows {
		t.Fatalf("confusion matrix does not sum to total flows: sum=%d total=%d", sum, s.TotalFlows)
	}
	if s.TruePositives != 1 || s.FalseNegatives != 1 || s.TrueNegatives != 1 {
		t.Fatalf("unexpected confusion matrix: %+v", s)
	}
	if s.DDoSFlows+s.BenignFlows != s.TotalFlows {
		t.Fatalf("ddos+benign does not equal total flows")
	}
}

func TestUpdate_LegitimateBlockedCountsCollateralDamage(t *testing.T) {
	a := New()
	bl := blocklist.New()
	bl.Add("9.9.9.9", 0)

	window := []flow.Record{{SrcIP: "9.9.9.9", IsAttack: false}}
	a.Update(window, nil, bl)

	s := a.Snapshot()
	if s.LegitimateBlocked != 1 {
		t.Fatalf("expected legitimate_blocked=1, got %d", s.LegitimateBlocked)
	}
	if s.FalsePositives != 0 {
		// Blocked does not imply detected in this window (no alert), so
		// confusion matrix still reads as a true negative.
		t.Fatalf("expected no false positive from blocking alone, got %d", s.FalsePositives)
	}
}

func TestDerive_ZeroOverZeroConvention(t *testing.T) {
	d := Derive(Snapshot{})
	if d.Precision != 0 || d.Recall != 0 || d.F1 != 0 || d.FPR != 0 || d.Accuracy != 0 {
		t.Fatalf("expected all derived rates to be 0 on an empty snapshot, got %+v", d)
	}
}

func TestDerive_KnownValues(t *testing.T) {
	s := Snapshot{TruePositives: 80, FalsePositives: 20, TrueNegatives: 880, FalseNegatives: 20}
	d := Derive(s)
	if d.Precision != 0.8 {
		t.Fatalf("expected precision=0.8, got %v", d.Precision)
	}
	if d.Recall != 0.8 {
		t.Fatalf("expected recall=0.8, got %v", d.Recall)
	}
	if d.Accuracy != 0.96 {
		t.Fatalf("expected accuracy=0.96, got %v", d.Accuracy)
	}
}

func TestAggregate_SumsCountersAveragesEstimates(t *testing.T) {
	workers := []Snapshot{
		{TotalFlows: 100, TruePositives: 10, CPUUsagePercent: 40, LatencyP95Ms: 5, DetectionLeadTimeMs: 50},
		{TotalFlows: 200, TruePositives: 20, CPUUsagePercent: 60, LatencyP95Ms: 7, DetectionLeadTimeMs: 50},
	}
	agg := Aggregate(workers)
	if agg.TotalFlows != 300 {
		t.Fatalf("expected summed TotalFlows=300, got %d", agg.TotalFlows)
	}
	if agg.TruePositives != 30 {
		t.Fatalf("expected summed TruePositives=30, got %d", agg.TruePositives)
	}
	if agg.CPUUsagePercent != 50 {
		t.Fatalf("expected averaged CPUUsagePercent=50, got %v", agg.CPUUsagePercent)
	}
	if agg.LatencyP95Ms != 6 {
		t.Fatalf("expected averaged LatencyP95Ms=6, got %v", agg.LatencyP95Ms)
	}
}

func TestAggregate_EmptyIsZeroValue(t *testing.T) {
	agg := Aggregate(nil)
	if agg != (Snapshot{}) {
		t.Fatalf("expected zero-value snapshot for empty aggregate input")
	}
}
