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

package main

import (
	"encoding/hex"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/google/go-imalog/imalog"
	"github.com/google/go-imalog/register"
)

// The YAML layer renders digests as lowercase hex and tags every event
// with its template name.

type digestOut struct {
	Algo   string `yaml:"algo"`
	Digest string `yaml:"digest"`
}

type eventOut struct {
	PCRIndex     uint32    `yaml:"pcr_index"`
	TemplateSHA1 string    `yaml:"template_sha1"`
	Type         string    `yaml:"type"`
	Digest       digestOut `yaml:"digest"`
	Name         string    `yaml:"name"`
}

type pcrOut struct {
	SHA1   string `yaml:"sha1"`
	SHA256 string `yaml:"sha256"`
	SHA384 string `yaml:"sha384"`
	SHA512 string `yaml:"sha512"`
}

type results struct {
	Events    []eventOut        `yaml:"events"`
	PCRValues map[uint32]pcrOut `yaml:"pcr_values"`
}

func makeResults(events []imalog.Event, pcrs register.PCRValues) results {
	out := results{
		Events:    make([]eventOut, 0, len(events)),
		PCRValues: make(map[uint32]pcrOut, len(pcrs)),
	}
	for _, ev := range events {
		digest, name := digestAndName(ev.Data)
		out.Events = append(out.Events, eventOut{
			PCRIndex:     ev.PCRIndex,
			TemplateSHA1: hex.EncodeToString(ev.TemplateDigest[:]),
			Type:         ev.Data.TemplateName(),
			Digest:       digestOut{Algo: digest.Algo, Digest: hex.EncodeToString(digest.Digest)},
			Name:         name,
		})
	}
	for index, value := range pcrs {
		out.PCRValues[index] = pcrOut{
			SHA1:   hex.EncodeToString(value.SHA1),
			SHA256: hex.EncodeToString(value.SHA256),
			SHA384: hex.EncodeToString(value.SHA384),
			SHA512: hex.EncodeToString(value.SHA512),
		}
	}
	return out
}

func digestAndName(data imalog.EventData) (imalog.Digest, string) {
	switch d := data.(type) {
	case imalog.Ima:
		return d.Digest, d.Name
	case imalog.ImaNg:
		return d.Digest, d.Name
	case imalog.ImaSig:
		return d.Digest, d.Name
	case imalog.ImaBuf:
		return d.Digest, d.Name
	case imalog.ImaModsig:
		return d.Digest, d.Name
	}
	return imalog.Digest{}, ""
}

func writeResults(w io.Writer, r results) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}
