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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtendRecurrence(t *testing.T) {
	data := []byte("measurement event data")
	tracker := NewPCRTracker()
	tracker.Extend(10, data)
	tracker.Extend(10, data)
	snapshot := tracker.Snapshot()

	for _, alg := range BankAlgs {
		h := alg.CryptoHash()
		hasher := h.New()
		hasher.Write(data)
		eventDigest := hasher.Sum(nil)

		// new = H(old || H(data)), twice from the zero register.
		value := make([]byte, h.Size())
		for i := 0; i < 2; i++ {
			hasher = h.New()
			hasher.Write(value)
			hasher.Write(eventDigest)
			value = hasher.Sum(nil)
		}
		if got := snapshot[10].bank(alg); !bytes.Equal(got, value) {
			t.Errorf("%v register 10 = %x, want %x", alg, got, value)
		}
	}
}

func TestExtendOrderSensitive(t *testing.T) {
	a, b := []byte("first"), []byte("second")

	ab := NewPCRTracker()
	ab.Extend(0, a)
	ab.Extend(0, b)
	ba := NewPCRTracker()
	ba.Extend(0, b)
	ba.Extend(0, a)

	if bytes.Equal(ab.Snapshot()[0].SHA256, ba.Snapshot()[0].SHA256) {
		t.Error("extending with A then B matched B then A; extension must be order-sensitive")
	}
}

func TestSnapshotOmitsUntouched(t *testing.T) {
	tracker := NewPCRTracker()
	tracker.Extend(3, []byte("data"))
	snapshot := tracker.Snapshot()

	if len(snapshot) != 1 {
		t.Fatalf("Snapshot() has %d entries, want 1", len(snapshot))
	}
	if _, ok := snapshot[3]; !ok {
		t.Error("Snapshot() is missing register 3")
	}
	if _, ok := snapshot[0]; ok {
		t.Error("Snapshot() contains never-extended register 0")
	}
}

func TestSnapshotIndependent(t *testing.T) {
	tracker := NewPCRTracker()
	tracker.Extend(5, []byte("one"))
	before := tracker.Snapshot()
	beforeSHA256 := append([]byte(nil), before[5].SHA256...)

	tracker.Extend(5, []byte("two"))
	if !bytes.Equal(before[5].SHA256, beforeSHA256) {
		t.Error("earlier snapshot changed after a later Extend")
	}
	if bytes.Equal(tracker.Snapshot()[5].SHA256, beforeSHA256) {
		t.Error("later Extend did not change the register")
	}
}

func TestPCRs(t *testing.T) {
	tracker := NewPCRTracker()
	tracker.Extend(14, []byte("b"))
	tracker.Extend(10, []byte("a"))
	snapshot := tracker.Snapshot()

	pcrs := snapshot.PCRs(HashSHA256)
	if len(pcrs) != 2 || pcrs[0].Index != 10 || pcrs[1].Index != 14 {
		t.Fatalf("PCRs() = %+v, want registers 10 and 14 in order", pcrs)
	}
	for _, pcr := range pcrs {
		if pcr.DgstAlg() != HashSHA256.CryptoHash() {
			t.Errorf("register %d algorithm = %v, want SHA-256", pcr.Idx(), pcr.DgstAlg())
		}
		if !bytes.Equal(pcr.Dgst(), snapshot[uint32(pcr.Index)].SHA256) {
			t.Errorf("register %d digest does not match the snapshot", pcr.Idx())
		}
	}
}

func TestCheck(t *testing.T) {
	tracker := NewPCRTracker()
	tracker.Extend(10, []byte("data"))
	snapshot := tracker.Snapshot()

	good := PCR{Index: 10, Digest: snapshot[10].SHA256, DigestAlg: HashSHA256.CryptoHash()}
	bad := PCR{Index: 10, Digest: make([]byte, 32), DigestAlg: HashSHA256.CryptoHash()}
	zero := PCR{Index: 11, Digest: make([]byte, 32), DigestAlg: HashSHA256.CryptoHash()}
	nonzero := PCR{Index: 11, Digest: bytes.Repeat([]byte{1}, 32), DigestAlg: HashSHA256.CryptoHash()}

	tests := []struct {
		name        string
		mrs         []MR
		wantInvalid []int
	}{
		{name: "match", mrs: []MR{good}},
		{name: "mismatch", mrs: []MR{bad}, wantInvalid: []int{10}},
		{name: "untouched register is zero", mrs: []MR{good, zero}},
		{name: "untouched register nonzero", mrs: []MR{nonzero, good}, wantInvalid: []int{11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := snapshot.Check(tt.mrs)
			if tt.wantInvalid == nil {
				if err != nil {
					t.Fatalf("Check() failed: %v", err)
				}
				return
			}
			var mismatch MismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("Check() err = %v, want MismatchError", err)
			}
			if diff := cmp.Diff(tt.wantInvalid, mismatch.InvalidMRs); diff != "" {
				t.Errorf("Check() invalid registers returned diff (-want +got):\n%s", diff)
			}
		})
	}
}
