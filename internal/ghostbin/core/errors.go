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

import "errors"

// Kind classifies a request failure. The API layer maps each kind onto an
// HTTP status code; no other information crosses the request boundary.
type Kind int

const (
	// KindInternal covers store and serialization failures. The cause is
	// logged locally and never returned to the client.
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindBadRequest
	KindConflict
	KindTooManyRequests
)

// Error is the service-wide error type. Message is user-visible and stable
// (tests depend on the exact strings); cause is internal-only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Fixed-message failures.
var (
	ErrPasteNotFound   = &Error{Kind: KindNotFound, Message: "Paste not found"}
	ErrTooManyRequests = &Error{Kind: KindTooManyRequests, Message: "Server busy, please try again later"}
)

// Unauthorized returns a 401-kind error with the given stable message.
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// BadRequest returns a 400-kind error with the given stable message.
func BadRequest(msg string) error {
	return &Error{Kind: KindBadRequest, Message: msg}
}

// Conflict returns a 409-kind error with the given stable message.
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Internal wraps a store or serialization failure. The client only ever
// sees the generic message; the cause stays available for local logging.
func Internal(cause error) error {
	return &Error{Kind: KindInternal, Message: "Internal server error", cause: cause}
}

// KindOf extracts the Kind from err. Unrecognized errors collapse to
// KindInternal so nothing unexpected leaks through the surface.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-visible message for err, falling back to the
// generic internal message for unrecognized errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
