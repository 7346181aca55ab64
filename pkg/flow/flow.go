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

// Package flow defines the flow record schema consumed by the detection
// pipeline and the parser that turns a preprocessed CSV line into one.
package flow

import "strings"

// MaxFieldLen is the byte cap applied to every textual field; longer values
// are truncated rather than rejected.
const MaxFieldLen = 255

// MaxIPLen is the cap applied to the IP fields specifically.
const MaxIPLen = 31

// Record is an immutable snapshot of one network flow. It is produced by
// Parse, lives for the duration of one window, and never crosses a worker
// boundary.
type Record struct {
	SrcIP               string
	SrcPort             int
	DstIP               string
	DstPort             int
	Protocol            int
	FlowDuration        float64
	TotalFwdPackets     float64
	TotalBwdPackets     float64
	TotalFwdBytes       float64
	TotalBwdBytes       float64
	FlowBytesPerSec     float64
	FlowPacketsPerSec   float64
	MinPacketLength     float64
	MaxPacketLength     float64
	PacketLengthMean    float64
	PacketLengthStd     float64
	FlowIATMean         float64
	FlowIATStd          float64
	IsAttack            bool
}

// field extracts the n-th comma-separated field from line, stopping at a
// trailing '\r'/'\n', and caps it at MaxFieldLen bytes. It mirrors the
// fixed-width field scanner used by the reference preprocessor: missing
// trailing fields come back as the empty string rather than an error.
func field(line string, n int) string {
	start := 0
	current := 0
	for current < n {
		idx := strings.IndexByte(line[start:], ',')
		if idx < 0 {
			return ""
		}
		start += idx + 1
		current++
	}
	end := start
	for end < len(line) {
		c := line[end]
		if c == ',' || c == '\n' || c == '\r' {
			break
		}
		end++
	}
	if end-start > MaxFieldLen {
		end = start + MaxFieldLen
	}
	return line[start:end]
}

// atoi reproduces C's atoi: skip leading whitespace, optional sign, digits
// until the first non-digit, 0 if nothing parses.
func atoi(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if neg {
		n = -n
	}
	return n
}

// atof reproduces C's atof closely enough for this column set: leading
// whitespace, optional sign, integer part, optional fractional part,
// optional exponent. Empty or unparseable input yields 0.0.
func atof(s string) float64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	whole := 0.0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		whole = whole*10 + float64(s[i]-'0')
		i++
	}
	frac := 0.0
	scale := 1.0
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			frac = frac*10 + float64(s[i]-'0')
			scale *= 10
			i++
		}
	}
	val := whole + frac/scale
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		expNeg := false
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			expNeg = s[j] == '-'
			j++
		}
		exp := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			exp = exp*10 + int(s[j]-'0')
			j++
		}
		for k := 0; k < exp; k++ {
			if expNeg {
				val /= 10
			} else {
				val *= 10
			}
		}
	}
	if neg {
		val = -val
	}
	return val
}

func truncIP(s string) string {
	if len(s) > MaxIPLen {
		return s[:MaxIPLen]
	}
	return s
}

// isLabelAttack tests the label column by substring, case-sensitive, for
// "DDoS" or "DrDoS" — the only ground-truth signal the input carries.
func isLabelAttack(label string) bool {
	return strings.Contains(label, "DrDoS") || strings.Contains(label, "DDoS")
}

// Parse turns one CSV line into a Record. It returns ok=false for lines
// shorter than 10 bytes or missing any of the 19 fields, which the reader
// must skip without advancing its output index.
func Parse(line string) (Record, bool) {
	if len(line) < 10 {
		return Record{}, false
	}
	if strings.Count(line, ",") < 18 {
		return Record{}, false
	}

	r := Record{
		SrcIP:             truncIP(field(line, 0)),
		SrcPort:           atoi(field(line, 1)),
		DstIP:             truncIP(field(line, 2)),
		DstPort:           atoi(field(line, 3)),
		Protocol:          atoi(field(line, 4)),
		FlowDuration:      atof(field(line, 5)),
		TotalFwdPackets:   atof(field(line, 6)),
		TotalBwdPackets:   atof(field(line, 7)),
		TotalFwdBytes:     atof(field(line, 8)),
		TotalBwdBytes:     atof(field(line, 9)),
		FlowBytesPerSec:   atof(field(line, 10)),
		FlowPacketsPerSec: atof(field(line, 11)),
		MinPacketLength:   atof(field(line, 12)),
		MaxPacketLength:   atof(field(line, 13)),
		PacketLengthMean:  atof(field(line, 14)),
		PacketLengthStd:   atof(field(line, 15)),
		FlowIATMean:       atof(field(line, 16)),
		FlowIATStd:        atof(field(line, 17)),
	}
	r.IsAttack = isLabelAttack(field(line, 18))
	return r, true
}

// IsHeader reports whether line is the preprocessing header line, identified
// solely by its first byte being 'U' (as in "Unnamed: 0,...").
func IsHeader(line string) bool {
	return len(line) > 0 && line[0] == 'U'
}
