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

package transport

import "fmt"

// Build constructs a CoordinatorTransport and one WorkerTransport per
// worker for the named backend ("inproc" or "redis").
func Build(kind string, workers int, redisOpts RedisOptions) (CoordinatorTransport, []WorkerTransport, error) {
	switch kind {
	case "", "inproc":
		coord, ws := NewInProc(workers)
		return coord, ws, nil
	case "redis":
		coord, err := NewRedisCoordinatorTransport(redisOpts, workers)
		if err != nil {
			return nil, nil, err
		}
		ws := make([]WorkerTransport, workers)
		for i := range ws {
			w, err := NewRedisWorkerTransport(redisOpts, i)
			if err != nil {
				_ = coord.Close()
				return nil, nil, err
			}
			ws[i] = w
		}
		return coord, ws, nil
	default:
		return nil, nil, fmt.Errorf("transport: unknown backend %q", kind)
	}
}
