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

package core

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ghostbin/internal/ghostbin/store"
	"ghostbin/internal/ghostbin/telemetry/requests"
)

// Lifecycle TTLs. The default and the cap coincide: nothing outlives 30
// days regardless of what the client asks for.
const (
	DefaultTTL = 30 * 24 * time.Hour
	MaxTTL     = DefaultTTL

	// BurnGraceTTL is the window left on a burn-after-read paste once it
	// has been read. Scheduling deletion instead of deleting immediately
	// lets a client whose response was dropped retry without losing the
	// ciphertext mid-delivery.
	BurnGraceTTL = 90 * time.Second
)

// Service implements the paste lifecycle over a Store. It holds no state
// of its own; every multi-step semantic collapses into a single store
// round trip.
type Service struct {
	store store.Store
	now   func() time.Time
	newID func() string
}

// NewService returns a lifecycle service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now, newID: uuid.NewString}
}

// SetClock overrides the service clock for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// SetIDGenerator overrides UUID generation for tests (collision paths).
func (s *Service) SetIDGenerator(newID func() string) { s.newID = newID }

// Create validates req, assigns a UUIDv4, computes the effective TTL and
// writes the record conditionally. Proof of work must already have been
// verified by the caller. The conditional write is mandatory collision
// defense: if a flawed RNG ever produced a duplicate id, the existing
// paste must not be overwritten.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Paste, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ttl := DefaultTTL
	if req.ExpiresAt != nil && *req.ExpiresAt > 0 {
		diff := *req.ExpiresAt - s.now().UnixMilli()
		if diff <= 0 {
			return nil, BadRequest("Paste already expired")
		}
		ttl = time.Duration(diff/1000) * time.Second
		if ttl == 0 {
			// Sub-second remainder; the store needs a positive expiry.
			ttl = time.Second
		}
	}
	if ttl > MaxTTL {
		ttl = MaxTTL
	}

	paste := Paste{
		ID:            s.newID(),
		IV:            req.IV,
		Data:          req.Data,
		CreatedAt:     req.CreatedAt,
		ExpiresAt:     req.ExpiresAt,
		BurnAfterRead: req.BurnAfterRead,
		Views:         req.Views,
		Language:      req.Language,
		HasPassword:   req.HasPassword,
		Salt:          req.Salt,
		EncryptedKey:  req.EncryptedKey,
		KeyIV:         req.KeyIV,
		BurnTokenHash: req.BurnTokenHash,
	}

	encoded, err := json.Marshal(&paste)
	if err != nil {
		return nil, Internal(err)
	}
	created, err := s.store.CreateIfAbsent(ctx, store.PasteKey(paste.ID), string(encoded), ttl)
	if err != nil {
		return nil, Internal(err)
	}
	if !created {
		return nil, Conflict("Paste ID already exists")
	}
	requests.ObservePasteCreated()
	return &paste, nil
}

// Read fetches a paste. A burn-after-read paste without a password has its
// TTL cut to the grace window instead of having views counted; the record
// returned is the pre-update one. All other pastes get views incremented
// with the TTL preserved, so reads never extend a paste's life.
//
// The views read-modify-write is deliberately not transactional: under
// concurrent reads the count may undercount, never overcount. View count
// is advisory and the extra round trip a CAS would cost is not worth it.
func (s *Service) Read(ctx context.Context, id string) (*Paste, error) {
	encoded, found, err := s.store.Get(ctx, store.PasteKey(id))
	if err != nil {
		return nil, Internal(err)
	}
	if !found {
		return nil, ErrPasteNotFound
	}

	var paste Paste
	if err := json.Unmarshal([]byte(encoded), &paste); err != nil {
		return nil, Internal(err)
	}

	if paste.BurnAfterRead && !paste.HasPassword {
		if err := s.store.SetTTL(ctx, store.PasteKey(id), BurnGraceTTL); err != nil {
			return nil, Internal(err)
		}
		requests.ObserveBurnScheduled()
		return &paste, nil
	}

	paste.Views++
	updated, err := json.Marshal(&paste)
	if err != nil {
		return nil, Internal(err)
	}
	if err := s.store.UpdatePreservingTTL(ctx, store.PasteKey(id), string(updated)); err != nil {
		return nil, Internal(err)
	}
	return &paste, nil
}

// Delete removes a paste. A burn paste that carries a burn token hash is
// gated: the caller's token must SHA-256 to the stored hash, compared in
// constant time. Non-burn pastes, and burn pastes whose author attached no
// token, are deletable by anyone holding the id.
func (s *Service) Delete(ctx context.Context, id, token string) error {
	encoded, found, err := s.store.Get(ctx, store.PasteKey(id))
	if err != nil {
		return Internal(err)
	}
	if !found {
		return ErrPasteNotFound
	}

	var paste Paste
	if err := json.Unmarshal([]byte(encoded), &paste); err != nil {
		return Internal(err)
	}

	if paste.BurnAfterRead && paste.BurnTokenHash != nil {
		sum := sha256.Sum256([]byte(token))
		provided := hex.EncodeToString(sum[:])
		if subtle.ConstantTimeCompare([]byte(provided), []byte(*paste.BurnTokenHash)) != 1 {
			return Unauthorized("Invalid burn token")
		}
	}

	if err := s.store.Delete(ctx, store.PasteKey(id)); err != nil {
		return Internal(err)
	}
	requests.ObservePasteDeleted()
	return nil
}

// Metadata probes a paste without consuming it: no view increment, no burn
// scheduling. Absent pastes yield Exists=false rather than an error so the
// endpoint never distinguishes "expired" from "never existed".
func (s *Service) Metadata(ctx context.Context, id string) (Metadata, error) {
	encoded, found, err := s.store.Get(ctx, store.PasteKey(id))
	if err != nil {
		return Metadata{}, Internal(err)
	}
	if !found {
		return Metadata{}, nil
	}

	var paste Paste
	if err := json.Unmarshal([]byte(encoded), &paste); err != nil {
		return Metadata{}, Internal(err)
	}
	return Metadata{
		Exists:        true,
		HasPassword:   paste.HasPassword,
		BurnAfterRead: paste.BurnAfterRead,
		CreatedAt:     paste.CreatedAt,
		ExpiresAt:     paste.ExpiresAt,
	}, nil
}
