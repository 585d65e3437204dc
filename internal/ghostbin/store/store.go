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

// Package store defines the typed operations the paste service needs from a
// TTL-capable key-value store, and provides the Redis implementation plus an
// in-memory fake for tests.
//
// The surface is deliberately minimal: five operations, each a single store
// round trip. Multi-step compositions (read TTL then set, check then write)
// are excluded on purpose — they race against expiry and against concurrent
// burns, and everything the lifecycle needs collapses into these primitives.
package store

import (
	"context"
	"fmt"
	"time"
)

// Store is the adapter consumed by the paste lifecycle and the PoW
// verifier. All operations are idempotent in meaning and return an error
// only when the backend itself fails; "key absent" is a normal result.
type Store interface {
	// CreateIfAbsent writes value under key with the given TTL only if the
	// key does not already exist (SET NX EX). It reports whether the write
	// happened. No overwrite, ever.
	CreateIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (created bool, err error)

	// Get returns the value under key. An absent key is (_, false, nil),
	// never an error.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// UpdatePreservingTTL rewrites the value while the key's remaining TTL
	// is preserved atomically (SET KEEPTTL).
	UpdatePreservingTTL(ctx context.Context, key, value string) error

	// SetTTL resets the key's expiry to ttl from now. Used only to shorten
	// a TTL when scheduling a burn.
	SetTTL(ctx context.Context, key string, ttl time.Duration) error

	// Delete removes the key unconditionally.
	Delete(ctx context.Context, key string) error
}

// Keyspace layout helpers, public for interoperability with tests and tooling.

// PasteKey returns the store key for a paste record.
func PasteKey(id string) string { return fmt.Sprintf("paste:%s", id) }

// SaltKey returns the store key for a consumed proof-of-work salt marker.
func SaltKey(salt string) string { return fmt.Sprintf("pow:salt:%s", salt) }
