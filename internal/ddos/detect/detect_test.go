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
	"fmt"
	"math"
	"testing"

	"ddosguard/pkg/flow"
)

func benignWindow(n int) []flow.Record {
	recs := make([]flow.Record, n)
	for i := 0; i < n; i++ {
		recs[i] = flow.Record{
			SrcIP:           fmt.Sprintf("a.b.c.%d", i+1),
			FlowBytesPerSec: 1000,
			IsAttack:        false,
		}
	}
	return recs
}

func floodWindow(n int) []flow.Record {
	recs := make([]flow.Record, n)
	for i := 0; i < n; i++ {
		recs[i] = flow.Record{
			SrcIP:           "10.0.0.1",
			FlowBytesPerSec: 1e7,
			IsAttack:        true,
		}
	}
	return recs
}

// TestScenario_UniformBenign matches end-to-end scenario 1: 100 distinct
// benign IPs at a steady rate should raise no alerts.
func TestScenario_UniformBenign(t *testing.T) {
	w := benignWindow(100)
	if a := DetectEntropy(w); len(a) != 0 {
		t.Fatalf("expected no entropy alerts, got %d", len(a))
	}
	if a := DetectPCA(w); len(a) != 0 {
		t.Fatalf("expected no pca alerts, got %d", len(a))
	}
	if a := DetectCUSUM(w); len(a) != 0 {
		t.Fatalf("expected no cusum alerts, got %d", len(a))
	}
}

// TestScenario_SingleSourceFlood matches end-to-end scenario 2: a single
// source flooding at 1e7 bytes/sec triggers entropy and CUSUM but not PCA (only one
// IP means stdev=0 substituted to 1.0, z-score is 0).
func TestScenario_SingleSourceFlood(t *testing.T) {
	w := floodWindow(100)

	entropyAlerts := DetectEntropy(w)
	if len(entropyAlerts) != 1 {
		t.Fatalf("expected 1 entropy alert, got %d", len(entropyAlerts))
	}
	if entropyAlerts[0].Confidence != 1.0 {
		t.Fatalf("expected confidence=1.0 for zero-entropy window, got %v", entropyAlerts[0].Confidence)
	}
	if entropyAlerts[0].SrcIP != "10.0.0.1" {
		t.Fatalf("expected flagged ip 10.0.0.1, got %s", entropyAlerts[0].SrcIP)
	}

	if a := DetectPCA(w); len(a) != 0 {
		t.Fatalf("expected no pca alert for a single IP, got %d", len(a))
	}

	cusumAlerts := DetectCUSUM(w)
	if len(cusumAlerts) != 1 {
		t.Fatalf("expected 1 cusum alert, got %d", len(cusumAlerts))
	}
}

// TestScenario_BelowMinimum matches end-to-end scenario 4: fewer than 10
// flows never produce an entropy alert, regardless of content.
func TestScenario_BelowMinimum(t *testing.T) {
	w := floodWindow(5)
	if a := DetectEntropy(w); len(a) != 0 {
		t.Fatalf("expected no entropy alerts below minimum window size, got %d", len(a))
	}
}

func TestDetectEntropy_EmptyWindow(t *testing.T) {
	if a := DetectEntropy(nil); len(a) != 0 {
		t.Fatalf("expected no alerts for empty window")
	}
}

func TestDetectEntropy_AtMostOneAlert(t *testing.T) {
	w := floodWindow(50)
	a := DetectEntropy(w)
	if len(a) > 1 {
		t.Fatalf("entropy detector must emit at most one alert, got %d", len(a))
	}
}

func TestDetectPCA_StdevZeroSubstituted(t *testing.T) {
	// A single IP means every feature has zero variance; the 1.0
	// substitution should leave the z-scored distance at exactly 0, never
	// NaN or Inf.
	w := floodWindow(20)
	alerts := DetectPCA(w)
	if len(alerts) != 0 {
		t.Fatalf("expected no pca alert when all flows share one IP, got %d", len(alerts))
	}
}

func TestDetectPCA_OutlierFlagged(t *testing.T) {
	var w []flow.Record
	for i := 0; i < 50; i++ {
		w = append(w, flow.Record{
			SrcIP:             fmt.Sprintf("benign-%d", i),
			FlowBytesPerSec:   1000,
			TotalFwdPackets:   10,
			FlowDuration:      1,
			PacketLengthMean:  500,
			FlowIATMean:       10,
		})
	}
	for i := 0; i < 20; i++ {
		w = append(w, flow.Record{
			SrcIP:             "10.0.0.1",
			FlowBytesPerSec:   1e6,
			TotalFwdPackets:   5000,
			FlowDuration:      0.01,
			PacketLengthMean:  1500,
			FlowIATMean:       0.001,
		})
	}
	alerts := DetectPCA(w)
	found := false
	for _, a := range alerts {
		if a.SrcIP == "10.0.0.1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected outlier IP 10.0.0.1 to be flagged by pca, got %+v", alerts)
	}
}

func TestDetectCUSUM_NoAlertBelowBaseline(t *testing.T) {
	w := benignWindow(50)
	if a := DetectCUSUM(w); len(a) != 0 {
		t.Fatalf("expected no cusum alert for below-baseline rate, got %d", len(a))
	}
}

func TestDetectCUSUM_ConfidenceMatchesFormula(t *testing.T) {
	w := floodWindow(10)
	alerts := DetectCUSUM(w)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 cusum alert, got %d", len(alerts))
	}
	avgRate := 1e7
	deviation := avgRate - CUSUMBaseline
	sHigh := deviation - CUSUMDrift*CUSUMBaseline
	want := sHigh / (CUSUMThreshold * CUSUMBaseline)
	if math.Abs(alerts[0].Confidence-want) > 1e-9 {
		t.Fatalf("expected confidence=%v, got %v", want, alerts[0].Confidence)
	}
}

func TestRunAll_ConcatenatesAllThree(t *testing.T) {
	w := floodWindow(100)
	alerts := RunAll(w)
	var kinds []Kind
	for _, a := range alerts {
		kinds = append(kinds, a.Kind)
	}
	if len(kinds) < 2 {
		t.Fatalf("expected at least entropy and cusum alerts, got %v", kinds)
	}
}

func TestCapabilityProbe_AlwaysUnavailable(t *testing.T) {
	if CapabilityProbe() {
		t.Fatalf("expected no accelerated kernel to be available")
	}
}
