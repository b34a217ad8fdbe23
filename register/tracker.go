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

package register

import (
	"bytes"
	"fmt"
	"sort"
)

// PCRTracker accumulates register extensions the way a TPM would,
// maintaining one bank per algorithm in BankAlgs. A register that was
// never extended has no entry; its logical value is all zeroes.
type PCRTracker struct {
	banks map[HashAlg]map[uint32][]byte
}

// NewPCRTracker returns a tracker with every bank empty.
func NewPCRTracker() *PCRTracker {
	banks := make(map[HashAlg]map[uint32][]byte, len(BankAlgs))
	for _, alg := range BankAlgs {
		banks[alg] = make(map[uint32][]byte)
	}
	return &PCRTracker{banks: banks}
}

// Extend folds data into the register at index for every bank,
// computing new = H(old || H(data)). Extensions are order-sensitive;
// callers must apply them in log order.
func (t *PCRTracker) Extend(index uint32, data []byte) {
	for _, alg := range BankAlgs {
		h := alg.CryptoHash()
		hasher := h.New()
		hasher.Write(data)
		eventDigest := hasher.Sum(nil)

		old, ok := t.banks[alg][index]
		if !ok {
			old = make([]byte, h.Size())
		}
		hasher = h.New()
		hasher.Write(old)
		hasher.Write(eventDigest)
		t.banks[alg][index] = hasher.Sum(nil)
	}
}

// PCRValue holds the accumulated register value for one index, per bank.
type PCRValue struct {
	SHA1   []byte
	SHA256 []byte
	SHA384 []byte
	SHA512 []byte
}

// PCRValues maps a register index to its accumulated per-bank values.
// Indices that were never extended are absent.
type PCRValues map[uint32]PCRValue

// Snapshot projects the tracker's current state. It does not mutate the
// tracker and may be taken mid-replay; the result then reflects exactly
// the extensions applied so far.
func (t *PCRTracker) Snapshot() PCRValues {
	values := make(PCRValues, len(t.banks[HashSHA1]))
	for index := range t.banks[HashSHA1] {
		values[index] = PCRValue{
			SHA1:   append([]byte(nil), t.banks[HashSHA1][index]...),
			SHA256: append([]byte(nil), t.banks[HashSHA256][index]...),
			SHA384: append([]byte(nil), t.banks[HashSHA384][index]...),
			SHA512: append([]byte(nil), t.banks[HashSHA512][index]...),
		}
	}
	return values
}

func (v PCRValue) bank(alg HashAlg) []byte {
	switch alg {
	case HashSHA1:
		return v.SHA1
	case HashSHA256:
		return v.SHA256
	case HashSHA384:
		return v.SHA384
	case HashSHA512:
		return v.SHA512
	}
	return nil
}

// PCRs flattens the snapshot into PCR values for a single bank, sorted
// by index.
func (v PCRValues) PCRs(alg HashAlg) []PCR {
	pcrs := make([]PCR, 0, len(v))
	for index, value := range v {
		pcrs = append(pcrs, PCR{
			Index:     int(index),
			Digest:    value.bank(alg),
			DigestAlg: alg.CryptoHash(),
		})
	}
	sort.Slice(pcrs, func(i, j int) bool { return pcrs[i].Index < pcrs[j].Index })
	return pcrs
}

// MismatchError describes the registers whose attested values did not
// match the replayed snapshot.
type MismatchError struct {
	// InvalidMRs reports the set of MRs where the comparison failed.
	InvalidMRs []int
}

// Error returns a human-friendly description of comparison failures.
func (e MismatchError) Error() string {
	return fmt.Sprintf("the following registers failed to match the replayed log: %v", e.InvalidMRs)
}

// Check compares attested register values against the replayed snapshot.
// A register absent from the snapshot only matches an all-zero attested
// value of the same width.
func (v PCRValues) Check(mrs []MR) error {
	var invalid []int
	for _, mr := range mrs {
		alg := HashAlg(0)
		for _, bankAlg := range BankAlgs {
			if bankAlg.CryptoHash() == mr.DgstAlg() {
				alg = bankAlg
				break
			}
		}
		if alg == 0 {
			invalid = append(invalid, mr.Idx())
			continue
		}
		want := v[uint32(mr.Idx())].bank(alg)
		if want == nil {
			want = make([]byte, alg.CryptoHash().Size())
		}
		if !bytes.Equal(want, mr.Dgst()) {
			invalid = append(invalid, mr.Idx())
		}
	}
	if len(invalid) > 0 {
		sort.Ints(invalid)
		return MismatchError{InvalidMRs: invalid}
	}
	return nil
}
