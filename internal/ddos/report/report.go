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

// Package report renders the end-of-run performance analysis: a seven
// section human-readable summary, a top-attackers table, a results log
// append, and a per-worker-count scalability CSV used to compare runs.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ddosguard/internal/ddos/detect"
	"ddosguard/internal/ddos/metrics"
)

// topAttacker tracks one source IP's alert history for the top-attackers
// table.
type topAttacker struct {
	ip             string
	attackCount    int
	confidenceSum  float64
}

// TopAttackers returns up to limit source IPs ranked by alert count,
// highest first, each with its average confidence across its alerts.
func TopAttackers(alerts []detect.Alert, limit int) []struct {
	IP            string
	AttackCount   int
	AvgConfidence float64
} {
	byIP := make(map[string]*topAttacker)
	order := make([]string, 0)
	for _, a := range alerts {
		t, ok := byIP[a.SrcIP]
		if !ok {
			t = &topAttacker{ip: a.SrcIP}
			byIP[a.SrcIP] = t
			order = append(order, a.SrcIP)
		}
		t.attackCount++
		t.confidenceSum += a.Confidence
	}

	result := make([]struct {
		IP            string
		AttackCount   int
		AvgConfidence float64
	}, 0, len(order))
	for _, ip := range order {
		t := byIP[ip]
		result = append(result, struct {
			IP            string
			AttackCount   int
			AvgConfidence float64
		}{IP: t.ip, AttackCount: t.attackCount, AvgConfidence: t.confidenceSum / float64(t.attackCount)})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AttackCount > result[j].AttackCount
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Params bundles everything WriteComprehensiveReport needs beyond the
// aggregated metrics themselves.
type Params struct {
	DatasetFile   string
	Workers       int
	TotalTimeSec  float64
	Alerts        []detect.Alert
	BlocklistSize int
}

// WriteComprehensiveReport renders the full seven-section performance
// analysis to w.
func WriteComprehensiveReport(w io.Writer, m metrics.Snapshot, p Params) error {
	d := metrics.Derive(m)

	totalBytes := float64(m.TotalFlows) * 1500
	packetsPerSec := 0.0
	mbps := 0.0
	if p.TotalTimeSec > 0 {
		packetsPerSec = float64(m.TotalFlows) / p.TotalTimeSec
		mbps = (totalBytes * 8) / (p.TotalTimeSec * 1_000_000)
	}
	gbps := mbps / 1000

	avgLatency := 0.0
	if m.TotalFlows > 0 {
		avgLatency = m.TotalLatencyMs / float64(m.TotalFlows)
	}
	avgLocal := 0.0
	avgGlobal := 0.0
	if p.Workers > 0 {
		avgLocal = m.LocalDetectionTimeMs / float64(p.Workers)
		avgGlobal = m.GlobalDetectionTimeMs / float64(p.Workers)
	}
	transportOverheadPct := 0.0
	if avgGlobal > 0 {
		transportOverheadPct = (m.TransportOverheadMs / avgGlobal) * 100.0
	}

	name := p.DatasetFile
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}

	fmt.Fprintf(w, "\n=====================================================\n")
	fmt.Fprintf(w, "    Distributed DDoS Detection & Mitigation Report\n")
	fmt.Fprintf(w, "=====================================================\n")
	fmt.Fprintf(w, "Workers: %d\n", p.Workers)
	fmt.Fprintf(w, "Input: %s\n", name)
	fmt.Fprintf(w, "=====================================================\n\n")

	fmt.Fprintf(w, "1. DATASET OVERVIEW:\n")
	fmt.Fprintf(w, "   Total rows processed:                %d\n", m.TotalFlows)
	fmt.Fprintf(w, "   DDoS traffic:                        %d (%s)\n", m.DDoSFlows, pct(m.DDoSFlows, m.TotalFlows))
	fmt.Fprintf(w, "   Benign traffic:                      %d (%s)\n", m.BenignFlows, pct(m.BenignFlows, m.TotalFlows))
	fmt.Fprintf(w, "   Total alerts generated:              %d (%s)\n", len(p.Alerts), pct(int64(len(p.Alerts)), m.TotalFlows))
	fmt.Fprintf(w, "   Processing time (wall):              %.2f sec\n", p.TotalTimeSec)
	fmt.Fprintf(w, "   Number of workers:                   %d\n\n", p.Workers)

	fmt.Fprintf(w, "2. THROUGHPUT:\n")
	fmt.Fprintf(w, "   Flows/second:                        %.2f fps\n", packetsPerSec)
	fmt.Fprintf(w, "   Megabits/second:                     %.2f Mbps\n", mbps)
	fmt.Fprintf(w, "   Gigabits/second:                     %.4f Gbps\n", gbps)
	fmt.Fprintf(w, "   Total bytes processed (est.):        %.0f bytes\n\n", totalBytes)

	fmt.Fprintf(w, "3. LATENCY & TRANSPORT OVERHEAD:\n")
	fmt.Fprintf(w, "   Per-flow latency (avg):              %.4f ms\n", avgLatency)
	fmt.Fprintf(w, "   Per-flow latency (P95):              %.4f ms\n", m.LatencyP95Ms)
	fmt.Fprintf(w, "   Per-flow latency (P99):              %.4f ms\n", m.LatencyP99Ms)
	fmt.Fprintf(w, "   Detection lead time:                 %.2f ms\n", m.DetectionLeadTimeMs)
	fmt.Fprintf(w, "   Local detection time (avg/worker):   %.2f ms\n", avgLocal)
	fmt.Fprintf(w, "   Global detection time (avg/worker):  %.2f ms\n", avgGlobal)
	fmt.Fprintf(w, "   Transport overhead:                  %.2f ms (%.2f%%)\n\n", m.TransportOverheadMs, transportOverheadPct)

	fmt.Fprintf(w, "4. RESOURCE UTILIZATION:\n")
	fmt.Fprintf(w, "   CPU usage (avg):                     %.2f%%\n", m.CPUUsagePercent)
	fmt.Fprintf(w, "   Memory usage (total):                %.2f MB\n\n", m.MemoryUsageMB)

	fmt.Fprintf(w, "5. BLOCKING EFFECTIVENESS & MECHANISMS:\n")
	fmt.Fprintf(w, "   Mechanisms:                          RTBH, FlowSpec, ACL\n")
	fmt.Fprintf(w, "   Attack traffic detected:             %d (%s)\n", m.TruePositives, pct(m.TruePositives, m.TotalFlows))
	fmt.Fprintf(w, "   Attack traffic dropped:              %.2f%%\n", m.AttackTrafficDroppedPct)
	fmt.Fprintf(w, "   Flows to be blocked:                 %d (%s)\n", m.BlockedFlows, pct(m.BlockedFlows, m.TotalFlows))
	fmt.Fprintf(w, "   Collateral damage:                   %d flows (%s)\n\n", m.LegitimateBlocked, pct(m.LegitimateBlocked, m.TotalFlows))

	fmt.Fprintf(w, "6. DETECTION ACCURACY:\n")
	fmt.Fprintf(w, "   True Positives (TP):                 %d\n", m.TruePositives)
	fmt.Fprintf(w, "   False Positives (FP):                %d\n", m.FalsePositives)
	fmt.Fprintf(w, "   True Negatives (TN):                 %d\n", m.TrueNegatives)
	fmt.Fprintf(w, "   False Negatives (FN):                %d\n", m.FalseNegatives)
	fmt.Fprintf(w, "   Precision:                           %.4f (%.2f%%)\n", d.Precision, d.Precision*100)
	fmt.Fprintf(w, "   Recall/TPR:                          %.4f (%.2f%%)\n", d.Recall, d.Recall*100)
	fmt.Fprintf(w, "   F1-Score:                            %.4f\n", d.F1)
	fmt.Fprintf(w, "   False Positive Rate:                 %.4f (%.2f%%)\n", d.FPR, d.FPR*100)
	fmt.Fprintf(w, "   Accuracy:                            %.4f (%.2f%%)\n\n", d.Accuracy, d.Accuracy*100)

	fmt.Fprintf(w, "7. OUTPUT FILES:\n")
	fmt.Fprintf(w, "   RTBH blocklist:                      rtbh_rules.txt\n")
	fmt.Fprintf(w, "   FlowSpec BGP rules:                  flowspec_rules.txt\n")
	fmt.Fprintf(w, "   ACL rules (Cisco):                   acl_rules.txt\n")
	fmt.Fprintf(w, "   Blocklist entries:                   %d\n", p.BlocklistSize)
	fmt.Fprintf(w, "=====================================================\n\n")

	fmt.Fprintf(w, "=== TOP ATTACKING IPs ===\n")
	fmt.Fprintf(w, "%-20s %-15s %-15s\n", "Source IP", "Attacks", "Avg Confidence")
	for _, t := range TopAttackers(p.Alerts, 10) {
		fmt.Fprintf(w, "%-20s %-15d %.4f\n", t.IP, t.AttackCount, t.AvgConfidence)
	}
	fmt.Fprintf(w, "\n")

	return nil
}

func pct(n, total int64) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(n)*100.0/float64(total))
}

// AppendResultsLog writes a timestamped line for one run to path, creating
// it if necessary.
func AppendResultsLog(path string, workers int, m metrics.Snapshot) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s workers=%d total_flows=%d tp=%d fp=%d tn=%d fn=%d throughput_fps=%.2f\n",
		time.Now().UTC().Format(time.RFC3339), workers, m.TotalFlows,
		m.TruePositives, m.FalsePositives, m.TrueNegatives, m.FalseNegatives,
		m.ThroughputFlowsPerSec)
	return err
}

// scalabilityHeader is written once when the summary CSV does not yet exist.
const scalabilityHeader = "Workers,Processes,Throughput_pps,Latency_ms,TransportOverhead_ms,Wall_Time_sec\n"

// UpdateScalabilitySummary rewrites (or creates) a CSV at path with one row
// per distinct worker count, replacing the row for workers if it already
// exists rather than appending a duplicate. processes is the total process
// count (workers plus the coordinator), matching the reference's
// num_ranks column.
func UpdateScalabilitySummary(path string, workers, processes int, wallTimeSec float64, m metrics.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	avgLatency := 0.0
	if m.TotalFlows > 0 {
		avgLatency = m.TotalLatencyMs / float64(m.TotalFlows)
	}
	newRow := fmt.Sprintf("%d,%d,%.2f,%.4f,%.2f,%.2f\n",
		workers, processes, m.ThroughputFlowsPerSec, avgLatency, m.TransportOverheadMs, wallTimeSec)

	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		return os.WriteFile(path, []byte(scalabilityHeader+newRow), 0o644)
	}

	lines := strings.Split(string(existing), "\n")
	out := make([]string, 0, len(lines)+1)
	found := false
	for i, line := range lines {
		if line == "" {
			continue
		}
		if i == 0 {
			out = append(out, line)
			continue
		}
		var existingWorkers int
		if _, err := fmt.Sscanf(line, "%d,", &existingWorkers); err == nil && existingWorkers == workers {
			out = append(out, strings.TrimSuffix(newRow, "\n"))
			found = true
			continue
		}
		out = append(out, line)
	}
	if !found {
		out = append(out, strings.TrimSuffix(newRow, "\n"))
	}

	return os.WriteFile(path, []byte(strings.Join(out, "\n")+"\n"), 0o644)
}
