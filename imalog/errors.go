// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package imalog

import (
	"errors"
	"fmt"
)

// Decode error kinds. Any of these aborts the record sequence; events
// already produced and register state already accumulated stay valid.
var (
	// ErrMalformedDigest reports a length-prefixed digest field with no
	// algorithm separator.
	ErrMalformedDigest = errors.New("digest field missing ':' algorithm separator")

	// ErrDigestLength reports a digest whose length does not match its
	// algorithm's output size.
	ErrDigestLength = errors.New("digest length does not match algorithm")

	// ErrMalformedName reports a null-terminated name field whose NUL is
	// missing or not the final byte.
	ErrMalformedName = errors.New("name field is not a well-formed null-terminated string")

	// ErrInvalidUTF8 reports a text field that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("text field is not valid UTF-8")

	// ErrNotImplemented reports a field whose sub-decoder is not
	// implemented. Records using the ima-sig, ima-buf and ima-modsig
	// templates fail with this error rather than decoding partially.
	ErrNotImplemented = errors.New("field decoder not implemented")
)

// UnsupportedTemplateError reports a record whose template name is not
// in the recognized set. The record's raw event data still extends the
// registers before the structural decode fails.
type UnsupportedTemplateError string

// Error returns a human-friendly description of the failure.
func (e UnsupportedTemplateError) Error() string {
	return fmt.Sprintf("unsupported template: %s", string(e))
}
