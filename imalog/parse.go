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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/go-imalog/register"
)

// sha1Size is the width of the legacy digest and template digest fields.
const sha1Size = 20

func readUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// noEOF converts a bare EOF into ErrUnexpectedEOF. Inside a field, any
// exhaustion means truncation; a clean end of log is only recognized at
// a record boundary.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// parseDigest decodes one algorithm-tagged digest field. The legacy
// layout is a bare 20-byte SHA1 with no prefix at all; the modern
// layout is length-prefixed and tags the value with "<algo>:\0".
func parseDigest(r io.Reader, legacy bool) (Digest, error) {
	size := uint32(sha1Size)
	if !legacy {
		var err error
		if size, err = readUint32(r); err != nil {
			return Digest{}, noEOF(err)
		}
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Digest{}, noEOF(err)
	}
	if legacy {
		return Digest{Algo: register.HashSHA1.String(), Digest: buf}, nil
	}

	// The bytes up to the first ':' name the algorithm; the ':' and the
	// NUL after it are skipped, the rest is the digest.
	sep := bytes.IndexByte(buf, ':')
	if sep < 0 || sep+2 > len(buf) {
		return Digest{}, ErrMalformedDigest
	}
	if !utf8.Valid(buf[:sep+2]) {
		return Digest{}, fmt.Errorf("digest algorithm: %w", ErrInvalidUTF8)
	}
	algo := strings.TrimRight(string(buf[:sep+2]), ":\x00")
	alg, err := register.HashAlgFromString(algo)
	if err != nil {
		return Digest{}, err
	}
	digest := buf[sep+2:]
	if len(digest) != alg.CryptoHash().Size() {
		return Digest{}, fmt.Errorf("%s digest is %d bytes, want %d: %w",
			algo, len(digest), alg.CryptoHash().Size(), ErrDigestLength)
	}
	return Digest{Algo: algo, Digest: digest}, nil
}

// parseName decodes one length-prefixed name field. Raw-layout names
// are plain text with any trailing NULs stripped; otherwise the field
// must be a well-formed null-terminated string.
func parseName(r io.Reader, raw bool) (string, error) {
	size, err := readUint32(r)
	if err != nil {
		return "", noEOF(err)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", noEOF(err)
	}
	if !raw {
		nul := bytes.IndexByte(buf, 0)
		if len(buf) == 0 || nul != len(buf)-1 {
			return "", ErrMalformedName
		}
		buf = buf[:nul]
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("name: %w", ErrInvalidUTF8)
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

func parseSignature(r io.Reader) (Signature, error) {
	return Signature{}, fmt.Errorf("signature field: %w", ErrNotImplemented)
}

func parseBuffer(r io.Reader) (Buffer, error) {
	return Buffer{}, fmt.Errorf("buffer field: %w", ErrNotImplemented)
}

func parseModSig(r io.Reader) (ModSig, error) {
	return ModSig{}, fmt.Errorf("modsig field: %w", ErrNotImplemented)
}

// template describes the field layout of one recognized template.
type template struct {
	// legacyDigest selects the bare 20-byte SHA1 digest layout.
	legacyDigest bool
	// rawName selects the unterminated name layout. ima-ng keeps the raw
	// layout despite its modern digest; older logs do not guarantee a
	// terminated name field, so this must not be tightened.
	rawName bool
	// trailer decodes any fields after the digest and name and builds
	// the payload.
	trailer func(r io.Reader, digest Digest, name string) (EventData, error)
}

var templates = map[string]template{
	"ima": {legacyDigest: true, rawName: true,
		trailer: func(_ io.Reader, d Digest, n string) (EventData, error) {
			return Ima{Digest: d, Name: n}, nil
		}},
	"ima-ng": {rawName: true,
		trailer: func(_ io.Reader, d Digest, n string) (EventData, error) {
			return ImaNg{Digest: d, Name: n}, nil
		}},
	"ima-sig": {
		trailer: func(r io.Reader, d Digest, n string) (EventData, error) {
			sig, err := parseSignature(r)
			if err != nil {
				return nil, err
			}
			return ImaSig{Digest: d, Name: n, Signature: sig}, nil
		}},
	"ima-buf": {
		trailer: func(r io.Reader, d Digest, n string) (EventData, error) {
			buf, err := parseBuffer(r)
			if err != nil {
				return nil, err
			}
			return ImaBuf{Digest: d, Name: n, Buffer: buf}, nil
		}},
	"ima-modsig": {
		trailer: func(r io.Reader, d Digest, n string) (EventData, error) {
			sig, err := parseSignature(r)
			if err != nil {
				return nil, err
			}
			modsig, err := parseModSig(r)
			if err != nil {
				return nil, err
			}
			return ImaModsig{Digest: d, Name: n, Signature: sig, ModSig: modsig}, nil
		}},
}

// parseEventData structurally decodes one record's event-data span
// according to its template's field sequence.
func parseEventData(templateName string, r io.Reader) (EventData, error) {
	tmpl, ok := templates[templateName]
	if !ok {
		return nil, UnsupportedTemplateError(templateName)
	}
	digest, err := parseDigest(r, tmpl.legacyDigest)
	if err != nil {
		return nil, err
	}
	name, err := parseName(r, tmpl.rawName)
	if err != nil {
		return nil, err
	}
	return tmpl.trailer(r, digest, name)
}
