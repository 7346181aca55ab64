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

// Package window partitions a preprocessed flow file across workers and
// streams it back as fixed-size windows of parsed flow.Record values.
package window

// Size is the maximum number of records delivered per window.
const Size = 50000

// Partition computes the line range assigned to worker index idx (0-based)
// out of workers total workers, over a file of totalLines data lines
// (header excluded). The last worker absorbs any remainder so that every
// line is covered exactly once.
func Partition(totalLines, workers, idx int) (start, count int) {
	if workers <= 0 {
		return 0, 0
	}
	perWorker := totalLines / workers
	start = idx * perWorker
	if idx == workers-1 {
		count = totalLines - start
	} else {
		count = perWorker
	}
	if count < 0 {
		count = 0
	}
	return start, count
}
