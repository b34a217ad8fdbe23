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
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/google/go-imalog/register"
)

// Parser reads events from a binary measurement list, replaying each
// event's raw data against an internal register tracker as it goes.
// Records must be consumed in log order; the tracker's output depends
// on it. A Parser owns its reader for the lifetime of parsing and is
// not safe for concurrent use — verify independent logs with
// independent parsers.
type Parser struct {
	r       io.Reader
	tracker *register.PCRTracker
	err     error
}

// NewParser returns a parser reading from r, with all registers at
// their never-extended state.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r, tracker: register.NewPCRTracker()}
}

// Next decodes the next event and extends the tracker with its raw
// event data. It returns (nil, nil) at a clean end of log, i.e. when
// the source is exhausted exactly at a record boundary; exhaustion
// anywhere inside a record is an io.ErrUnexpectedEOF truncation error.
// Errors are sticky: after any failure the parser produces no further
// events, but the events and register state accumulated before the
// failure remain valid.
func (p *Parser) Next() (*Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	ev, err := p.next()
	if err != nil {
		p.err = err
		return nil, err
	}
	return ev, nil
}

func (p *Parser) next() (*Event, error) {
	// A clean end of log can only be detected here: the PCR index is the
	// first field of a record, so EOF with nothing consumed means the
	// previous record was the last.
	index, err := readUint32(p.r)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("reading PCR index: %w", err)
	}

	ev := Event{PCRIndex: index}
	if _, err := io.ReadFull(p.r, ev.TemplateDigest[:]); err != nil {
		return nil, fmt.Errorf("reading template digest: %w", noEOF(err))
	}

	nameLen, err := readUint32(p.r)
	if err != nil {
		return nil, fmt.Errorf("reading template name length: %w", noEOF(err))
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(p.r, nameBuf); err != nil {
		return nil, fmt.Errorf("reading template name: %w", noEOF(err))
	}
	if !utf8.Valid(nameBuf) {
		return nil, fmt.Errorf("template name: %w", ErrInvalidUTF8)
	}
	templateName := string(nameBuf)

	dataLen, err := readUint32(p.r)
	if err != nil {
		return nil, fmt.Errorf("reading event data length: %w", noEOF(err))
	}
	data := make([]byte, dataLen)
	if _, err := io.ReadFull(p.r, data); err != nil {
		return nil, fmt.Errorf("reading event data: %w", noEOF(err))
	}

	// The verbatim span extends the registers even if its structural
	// decode fails below.
	p.tracker.Extend(index, data)

	ev.Data, err = parseEventData(templateName, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// PCRValues snapshots the registers replayed so far. After the log is
// exhausted this is the final register state; if iteration stopped
// after N events it reflects exactly those N extensions.
func (p *Parser) PCRValues() register.PCRValues {
	return p.tracker.Snapshot()
}

// ParseAndReplay decodes every event in the log and returns them along
// with the final register snapshot.
func ParseAndReplay(r io.Reader) ([]Event, register.PCRValues, error) {
	p := NewParser(r)
	var events []Event
	for {
		ev, err := p.Next()
		if err != nil {
			return nil, nil, err
		}
		if ev == nil {
			return events, p.PCRValues(), nil
		}
		events = append(events, *ev)
	}
}
