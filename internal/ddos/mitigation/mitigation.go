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

// Package mitigation turns a blocklist into the text-based rule formats a
// network operator would push downstream: RTBH, FlowSpec and router ACLs.
// Generating the rules is in scope; pushing them to a live router is not —
// Emitter implementations here only write files.
package mitigation

import (
	"fmt"
	"os"
	"path/filepath"

	"ddosguard/internal/ddos/blocklist"
)

// Emitter writes one mitigation rule format for a blocklist snapshot to a
// directory.
type Emitter interface {
	Emit(dir string, entries []blocklist.Entry) (path string, err error)
}

// RTBHEmitter writes a remote-triggered-blackhole style list: one blocked IP
// per line with its block time, mirroring the original tool's plain-text
// blocklist file.
type RTBHEmitter struct{ FileName string }

func (e RTBHEmitter) Emit(dir string, entries []blocklist.Entry) (string, error) {
	name := e.FileName
	if name == "" {
		name = "rtbh_rules.txt"
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "=== BLOCKED IPs (RTBH) ==="); err != nil {
		return "", err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(f, "%s (blocked at %.2f)\n", e.IP, e.BlockedTime); err != nil {
			return "", err
		}
	}
	return path, nil
}

// FlowSpecEmitter writes BGP FlowSpec discard rules, one per blocked IP.
type FlowSpecEmitter struct{ FileName string }

func (e FlowSpecEmitter) Emit(dir string, entries []blocklist.Entry) (string, error) {
	name := e.FileName
	if name == "" {
		name = "flowspec_rules.txt"
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, e := range entries {
		if _, err := fmt.Fprintf(f, "flowspec rule match source %s/32 then discard\n", e.IP); err != nil {
			return "", err
		}
	}
	return path, nil
}

// ACLEmitter writes Cisco-style extended ACL deny lines, one per blocked IP.
type ACLEmitter struct {
	FileName string
	ACLName  string
}

func (e ACLEmitter) Emit(dir string, entries []blocklist.Entry) (string, error) {
	name := e.FileName
	if name == "" {
		name = "acl_rules.txt"
	}
	aclName := e.ACLName
	if aclName == "" {
		aclName = "DDOS-BLOCK"
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "ip access-list extended %s\n", aclName); err != nil {
		return "", err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(f, " deny ip host %s any\n", e.IP); err != nil {
			return "", err
		}
	}
	if _, err := fmt.Fprintln(f, " permit ip any any"); err != nil {
		return "", err
	}
	return path, nil
}

// EmitAll runs every standard emitter against the same blocklist snapshot
// and returns the paths it wrote, in RTBH/FlowSpec/ACL order.
func EmitAll(dir string, entries []blocklist.Entry) ([]string, error) {
	emitters := []Emitter{RTBHEmitter{}, FlowSpecEmitter{}, ACLEmitter{}}
	paths := make([]string, 0, len(emitters))
	for _, e := range emitters {
		p, err := e.Emit(dir, entries)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
