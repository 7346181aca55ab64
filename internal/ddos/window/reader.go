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

package window

import (
	"bufio"
	"os"

	"ddosguard/pkg/flow"
)

// bufferSize is the minimum buffered-read size required for throughput on
// large input files.
const bufferSize = 64 * 1024

// maxLineLen bounds a single scanned line; generously larger than any
// well-formed preprocessed row.
const maxLineLen = 1 << 20

// CountDataLines counts the data lines in path, excluding a leading header
// line (one whose first byte is 'U'). It is used to size partitions before
// any worker starts reading.
func CountDataLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(bufio.NewReaderSize(f, bufferSize))
	scanner.Buffer(make([]byte, bufferSize), maxLineLen)

	count := 0
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first && flow.IsHeader(line) {
			first = false
			continue
		}
		first = false
		count++
	}
	return count, scanner.Err()
}

// Reader streams successive windows of up to Size records from the line
// range [start, start+count) of a flow file, reopening nothing between
// windows. A window reader is owned by exactly one worker.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner

	firstLine bool
	lineIdx   int // data-line index of the next unread line (0-based)
	end       int // exclusive upper bound: start + count
}

// NewReader opens path and positions the reader at the start of the given
// partition, skipping the header (if present) and any preceding lines.
func NewReader(path string, start, count int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(bufio.NewReaderSize(f, bufferSize))
	scanner.Buffer(make([]byte, bufferSize), maxLineLen)

	r := &Reader{
		file:      f,
		scanner:   scanner,
		firstLine: true,
		end:       start + count,
	}

	for r.lineIdx < start {
		if _, ok := r.nextLine(); !ok {
			break
		}
	}
	return r, nil
}

func (r *Reader) nextLine() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}
	line := r.scanner.Text()
	if r.firstLine {
		r.firstLine = false
		if flow.IsHeader(line) {
			return r.nextLine()
		}
	}
	r.lineIdx++
	return line, true
}

// Next returns the next window of records, up to Size long. A zero-length
// result with a nil error signals the end of the partition.
func (r *Reader) Next() ([]flow.Record, error) {
	records := make([]flow.Record, 0, Size)
	for len(records) < Size && r.lineIdx < r.end {
		line, ok := r.nextLine()
		if !ok {
			break
		}
		if rec, ok := flow.Parse(line); ok {
			records = append(records, rec)
		}
	}
	return records, r.scanner.Err()
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}
