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

// Package limiter bounds the number of in-flight requests for the two
// expensive read-side endpoints. Acquisition is non-blocking: when the cap
// is exhausted the caller rejects the request immediately with 429 rather
// than queueing it. Creates are not gated here — proof of work already
// imposes an external CPU cost on every create.
package limiter

import "sync/atomic"

// Default caps for the two limited request kinds.
const (
	DefaultMaxConcurrentReads      = 50
	DefaultMaxConcurrentChallenges = 100
)

// Limiter is a fixed-capacity permit counter. The zero value is unusable;
// construct with New.
type Limiter struct {
	avail atomic.Int64
	cap   int64
}

// New returns a limiter holding capacity permits.
func New(capacity int64) *Limiter {
	l := &Limiter{cap: capacity}
	l.avail.Store(capacity)
	return l
}

// TryAcquire takes one permit without blocking. It reports whether a permit
// was available; on true the caller must Release on every exit path.
func (l *Limiter) TryAcquire() bool {
	for {
		old := l.avail.Load()
		if old <= 0 {
			return false
		}
		if l.avail.CompareAndSwap(old, old-1) {
			return true
		}
	}
}

// Release returns one permit. Releasing more than was acquired is a bug in
// the caller; the count is clamped to the configured capacity to keep the
// damage bounded.
func (l *Limiter) Release() {
	for {
		old := l.avail.Load()
		if old >= l.cap {
			return
		}
		if l.avail.CompareAndSwap(old, old+1) {
			return
		}
	}
}

// Available reports the current number of free permits.
func (l *Limiter) Available() int64 { return l.avail.Load() }
