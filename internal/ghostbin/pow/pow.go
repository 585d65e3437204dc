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

// Package pow implements the proof-of-work admission protocol that gates
// paste creation.
//
// Challenge issuance is stateless: the server signs {salt, difficulty,
// timestamp} with a process-local HMAC key and keeps nothing. Verification
// is single-use: the salt is consumed through an atomic conditional write
// in the store before any cryptographic check runs, so a valid solution
// can never be replayed even while an adversary races. The HMAC key is
// drawn once at startup and never persisted — a restart invalidates every
// outstanding challenge, and clients recover by fetching a new one.
package pow

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ghostbin/internal/ghostbin/core"
	"ghostbin/internal/ghostbin/store"
)

// Protocol parameters. Difficulty counts leading '0' hex characters on
// hex(SHA-256(salt || nonce)).
const (
	Difficulty   = 4
	ChallengeTTL = 120 * time.Second
)

// Request headers carrying a solution.
const (
	HeaderSalt      = "X-PoW-Salt"
	HeaderNonce     = "X-PoW-Nonce"
	HeaderTimestamp = "X-PoW-Timestamp"
	HeaderSignature = "X-PoW-Signature"
)

// Challenge is the issued tuple. Timestamp is unix seconds.
type Challenge struct {
	Salt       string `json:"salt"`
	Difficulty int    `json:"difficulty"`
	Timestamp  uint64 `json:"timestamp"`
	Signature  string `json:"signature"`
}

// Solution is a client-submitted answer, extracted from request headers.
type Solution struct {
	Salt      string
	Nonce     string
	Timestamp string
	Signature string
}

// SolutionFromHeader pulls the four solution headers from h. A missing
// header fails with the BadRequest message naming it.
func SolutionFromHeader(h http.Header) (Solution, error) {
	var sol Solution
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{HeaderSalt, &sol.Salt},
		{HeaderNonce, &sol.Nonce},
		{HeaderTimestamp, &sol.Timestamp},
		{HeaderSignature, &sol.Signature},
	} {
		v := h.Get(f.name)
		if v == "" {
			return Solution{}, core.BadRequest(fmt.Sprintf("Missing %s header", f.name))
		}
		*f.dst = v
	}
	return sol, nil
}

// Authority issues and verifies challenges. The key is immutable after
// construction; the store provides the atomic single-use salt marker.
type Authority struct {
	key   [32]byte
	store store.Store
	now   func() time.Time
}

// NewAuthority draws a fresh 32-byte HMAC key and returns an authority
// backed by st.
func NewAuthority(st store.Store) (*Authority, error) {
	var key [32]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("generate hmac key: %w", err)
	}
	return &Authority{key: key, store: st, now: time.Now}, nil
}

// SetClock overrides the authority's clock. Tests use this to cross the
// freshness window without sleeping.
func (a *Authority) SetClock(now func() time.Time) { a.now = now }

// Challenge mints a new signed challenge. No server state is created.
func (a *Authority) Challenge() (Challenge, error) {
	var saltBytes [16]byte
	if _, err := rand.Read(saltBytes[:]); err != nil {
		return Challenge{}, core.Internal(fmt.Errorf("generate challenge salt: %w", err))
	}
	salt := hex.EncodeToString(saltBytes[:])
	ts := uint64(a.now().Unix())
	return Challenge{
		Salt:       salt,
		Difficulty: Difficulty,
		Timestamp:  ts,
		Signature:  a.sign(salt, Difficulty, ts),
	}, nil
}

// Verify validates a solution. The salt is consumed first: a salt that
// reaches any later check is burned regardless of the outcome, which is
// what makes replays impossible without opening a TOCTOU window. False
// positives (consuming a salt whose signature then fails) are acceptable —
// a consumed salt is useless either way.
func (a *Authority) Verify(ctx context.Context, sol Solution) error {
	created, err := a.store.CreateIfAbsent(ctx, store.SaltKey(sol.Salt), "used", ChallengeTTL)
	if err != nil {
		return core.Internal(err)
	}
	if !created {
		return core.Unauthorized("PoW salt already used")
	}

	ts, err := strconv.ParseUint(sol.Timestamp, 10, 64)
	if err != nil {
		return core.BadRequest("Invalid X-PoW-Timestamp")
	}

	// Saturating subtraction: a timestamp from a skewed future clock must
	// not be rejected as expired.
	now := uint64(a.now().Unix())
	var age uint64
	if now > ts {
		age = now - ts
	}
	if age > uint64(ChallengeTTL/time.Second) {
		return core.Unauthorized("PoW challenge expired")
	}

	expected := a.sign(sol.Salt, Difficulty, ts)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sol.Signature)) != 1 {
		return core.Unauthorized("Invalid PoW signature")
	}

	sum := sha256.Sum256([]byte(sol.Salt + sol.Nonce))
	if !strings.HasPrefix(hex.EncodeToString(sum[:]), strings.Repeat("0", Difficulty)) {
		return core.Unauthorized("PoW difficulty not met")
	}
	return nil
}

// sign computes hex(HMAC-SHA256(key, salt || itoa(difficulty) || itoa(ts))).
// The three fields are concatenated as UTF-8 bytes without separators;
// issuance and verification must agree byte for byte.
func (a *Authority) sign(salt string, difficulty int, ts uint64) string {
	mac := hmac.New(sha256.New, a.key[:])
	mac.Write([]byte(salt))
	mac.Write([]byte(strconv.Itoa(difficulty)))
	mac.Write([]byte(strconv.FormatUint(ts, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Solve brute-forces a nonce for the given salt and difficulty. The server
// never calls this on the request path; it exists for tests and tooling.
func Solve(ctx context.Context, salt string, difficulty int) (string, error) {
	prefix := strings.Repeat("0", difficulty)
	for nonce := uint64(0); ; nonce++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		candidate := strconv.FormatUint(nonce, 10)
		sum := sha256.Sum256([]byte(salt + candidate))
		if strings.HasPrefix(hex.EncodeToString(sum[:]), prefix) {
			return candidate, nil
		}
	}
}
