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

// Package testutil builds synthetic binary measurement lists for tests.
package testutil

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
)

// LogBuilder assembles a binary measurement list record by record.
type LogBuilder struct {
	buf bytes.Buffer
}

// Add appends one record. The template digest field is filled with the
// SHA1 of the event data, matching what the kernel logs; the parser
// does not verify it.
func (b *LogBuilder) Add(pcrIndex uint32, templateName string, eventData []byte) *LogBuilder {
	binary.Write(&b.buf, binary.LittleEndian, pcrIndex)
	templateDigest := sha1.Sum(eventData)
	b.buf.Write(templateDigest[:])
	binary.Write(&b.buf, binary.LittleEndian, uint32(len(templateName)))
	b.buf.WriteString(templateName)
	binary.Write(&b.buf, binary.LittleEndian, uint32(len(eventData)))
	b.buf.Write(eventData)
	return b
}

// Bytes returns the assembled log.
func (b *LogBuilder) Bytes() []byte {
	return b.buf.Bytes()
}

// NgEventData encodes an ima-ng style event-data span: a
// length-prefixed "<algo>:\0<digest>" field followed by a
// length-prefixed raw name.
func NgEventData(algo string, digest []byte, name string) []byte {
	var buf bytes.Buffer
	tagged := append([]byte(algo+":\x00"), digest...)
	binary.Write(&buf, binary.LittleEndian, uint32(len(tagged)))
	buf.Write(tagged)
	binary.Write(&buf, binary.LittleEndian, uint32(len(name)))
	buf.WriteString(name)
	return buf.Bytes()
}

// LegacyEventData encodes an "ima" template event-data span: a bare
// 20-byte digest followed by a length-prefixed raw name.
func LegacyEventData(digest [20]byte, name string) []byte {
	var buf bytes.Buffer
	buf.Write(digest[:])
	binary.Write(&buf, binary.LittleEndian, uint32(len(name)))
	buf.WriteString(name)
	return buf.Bytes()
}

// StrictEventData encodes an event-data span whose name field carries a
// NUL terminator, as the ima-sig, ima-buf and ima-modsig templates do,
// followed by any trailing field bytes verbatim.
func StrictEventData(algo string, digest []byte, name string, trailer []byte) []byte {
	var buf bytes.Buffer
	tagged := append([]byte(algo+":\x00"), digest...)
	binary.Write(&buf, binary.LittleEndian, uint32(len(tagged)))
	buf.Write(tagged)
	binary.Write(&buf, binary.LittleEndian, uint32(len(name)+1))
	buf.WriteString(name)
	buf.WriteByte(0)
	buf.Write(trailer)
	return buf.Bytes()
}
