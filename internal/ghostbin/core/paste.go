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

// Package core implements the paste lifecycle: creation behind the
// proof-of-work gate, reads with view accounting or burn scheduling, and
// token-authorized deletion. The server never interprets paste contents;
// iv, data and the key-wrap fields are opaque ciphertext produced by the
// client.
package core

import "fmt"

// MaxKeyMaterialLen bounds the client-supplied key-wrap fields (iv, salt,
// encryptedKey, keyIv). 512 characters is generous for any AES-GCM/PBKDF2
// parameter encoding and keeps records small.
const MaxKeyMaterialLen = 512

// Paste is the persisted record, stored as JSON under paste:{id}.
// Field names are camelCase on the wire to match the browser client.
// Once written, only Views and the key's TTL ever change.
type Paste struct {
	ID            string  `json:"id"`
	IV            string  `json:"iv"`
	Data          string  `json:"data"`
	CreatedAt     int64   `json:"createdAt"`
	ExpiresAt     *int64  `json:"expiresAt,omitempty"`
	BurnAfterRead bool    `json:"burnAfterRead"`
	Views         int64   `json:"views"`
	Language      string  `json:"language,omitempty"`
	HasPassword   bool    `json:"hasPassword"`
	Salt          *string `json:"salt,omitempty"`
	EncryptedKey  *string `json:"encryptedKey,omitempty"`
	KeyIV         *string `json:"keyIv,omitempty"`
	BurnTokenHash *string `json:"burnTokenHash,omitempty"`
}

// CreateRequest is the client-submitted body for paste creation. It is the
// Paste record minus the server-assigned id. Language is optional-ignored:
// accepted when present, never required, dropped when empty.
type CreateRequest struct {
	IV            string  `json:"iv"`
	Data          string  `json:"data"`
	CreatedAt     int64   `json:"createdAt"`
	ExpiresAt     *int64  `json:"expiresAt,omitempty"`
	BurnAfterRead bool    `json:"burnAfterRead"`
	Views         int64   `json:"views"`
	Language      string  `json:"language,omitempty"`
	HasPassword   bool    `json:"hasPassword"`
	Salt          *string `json:"salt,omitempty"`
	EncryptedKey  *string `json:"encryptedKey,omitempty"`
	KeyIV         *string `json:"keyIv,omitempty"`
	BurnTokenHash *string `json:"burnTokenHash,omitempty"`
}

// Validate enforces the create-request bounds. The payload itself is
// opaque, so the only checks are presence of ciphertext and length caps on
// the key-wrap fields.
func (r *CreateRequest) Validate() error {
	if r.Data == "" {
		return BadRequest("Paste data must not be empty")
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"iv", r.IV},
		{"salt", strOrEmpty(r.Salt)},
		{"encryptedKey", strOrEmpty(r.EncryptedKey)},
		{"keyIv", strOrEmpty(r.KeyIV)},
	} {
		if len(f.value) > MaxKeyMaterialLen {
			return BadRequest(fmt.Sprintf("Field %s exceeds %d characters", f.name, MaxKeyMaterialLen))
		}
	}
	return nil
}

// Metadata is the non-sensitive probe response. Absent pastes report
// Exists=false with zeroed fields; the store cannot distinguish "never
// existed" from "expired", and neither does this.
type Metadata struct {
	Exists        bool   `json:"exists"`
	HasPassword   bool   `json:"hasPassword"`
	BurnAfterRead bool   `json:"burnAfterRead"`
	CreatedAt     int64  `json:"createdAt"`
	ExpiresAt     *int64 `json:"expiresAt,omitempty"`
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
