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

// Package imalog implements parsing and PCR replay for the Linux IMA
// binary measurement list (the kernel's binary_runtime_measurements
// file). It reconstructs the register values a TPM would hold after
// being fed every measurement in the log, without access to the TPM
// that produced it.
package imalog

// Event is a single measurement from an IMA log. Events report discrete
// measured items such as file hashes, keyed by the template that
// structured them.
//
// The TemplateDigest carried in the log is not verified during replay;
// only the raw event data extends the registers.
type Event struct {
	// PCRIndex is the register the kernel extended with this event.
	PCRIndex uint32
	// TemplateDigest is the log's SHA1 digest of the event data. This is
	// a fixed legacy field and stays 20 bytes regardless of the digest
	// algorithms the event data itself uses.
	TemplateDigest [20]byte
	// Data is the decoded template-specific payload.
	Data EventData
}

// EventData is the template-specific payload of an event. The concrete
// type is one of Ima, ImaNg, ImaSig, ImaBuf or ImaModsig, selected by
// the record's template name; the set is closed.
type EventData interface {
	// TemplateName returns the template that produced this payload.
	TemplateName() string

	isEventData()
}

// Digest is a hash value tagged with the algorithm that produced it.
type Digest struct {
	Algo   string
	Digest []byte
}

// Signature is the file signature field of ima-sig and ima-modsig
// records. Decoding it is not implemented; see ErrNotImplemented.
type Signature struct{}

// Buffer is the inline buffer field of ima-buf records. Decoding it is
// not implemented; see ErrNotImplemented.
type Buffer struct{}

// ModSig is the appended kernel-module signature field of ima-modsig
// records. Decoding it is not implemented; see ErrNotImplemented.
type ModSig struct{}

// Ima is the payload of the legacy "ima" template: a bare SHA1 digest
// and a raw file name.
type Ima struct {
	Digest Digest
	Name   string
}

// ImaNg is the payload of the "ima-ng" template: an algorithm-tagged
// digest and a file name.
type ImaNg struct {
	Digest Digest
	Name   string
}

// ImaSig is the payload of the "ima-sig" template: ima-ng fields plus a
// file signature.
type ImaSig struct {
	Digest    Digest
	Name      string
	Signature Signature
}

// ImaBuf is the payload of the "ima-buf" template: an algorithm-tagged
// digest of an arbitrary buffer, the buffer's name, and the buffer
// contents.
type ImaBuf struct {
	Digest Digest
	Name   string
	Buffer Buffer
}

// ImaModsig is the payload of the "ima-modsig" template: ima-sig fields
// plus the module signature appended to the measured file.
type ImaModsig struct {
	Digest    Digest
	Name      string
	Signature Signature
	ModSig    ModSig
}

// TemplateName returns "ima".
func (Ima) TemplateName() string { return "ima" }

// TemplateName returns "ima-ng".
func (ImaNg) TemplateName() string { return "ima-ng" }

// TemplateName returns "ima-sig".
func (ImaSig) TemplateName() string { return "ima-sig" }

// TemplateName returns "ima-buf".
func (ImaBuf) TemplateName() string { return "ima-buf" }

// TemplateName returns "ima-modsig".
func (ImaModsig) TemplateName() string { return "ima-modsig" }

func (Ima) isEventData()       {}
func (ImaNg) isEventData()     {}
func (ImaSig) isEventData()    {}
func (ImaBuf) isEventData()    {}
func (ImaModsig) isEventData() {}
