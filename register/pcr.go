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

// Package register contains measurement register-specific implementations,
// including the PCR tracker that replays IMA measurement extensions.
package register

import (
	"crypto"
	"fmt"

	// Ensure the bank hashes are available.
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"

	"github.com/google/go-tpm/legacy/tpm2"
)

// HashAlg identifies a hashing Algorithm.
type HashAlg uint16

// Valid hash algorithms, identified by their TCG Algorithm Registry IDs.
var (
	HashSHA1   = HashAlg(tpm2.AlgSHA1)
	HashSHA256 = HashAlg(tpm2.AlgSHA256)
	HashSHA384 = HashAlg(tpm2.AlgSHA384)
	HashSHA512 = HashAlg(tpm2.AlgSHA512)
)

// BankAlgs is the fixed set of algorithms a PCRTracker maintains a bank
// for. The extension recurrence is algorithm-agnostic; growing the
// tracker only means adding an algorithm here.
var BankAlgs = []HashAlg{HashSHA1, HashSHA256, HashSHA384, HashSHA512}

// CryptoHash turns the hash algo into a crypto.Hash.
func (a HashAlg) CryptoHash() crypto.Hash {
	switch a {
	case HashSHA1:
		return crypto.SHA1
	case HashSHA256:
		return crypto.SHA256
	case HashSHA384:
		return crypto.SHA384
	case HashSHA512:
		return crypto.SHA512
	}
	return 0
}

// GoTPMAlg returns the go-tpm definition of this algorithm, based on the
// TCG Algorithm Registry.
func (a HashAlg) GoTPMAlg() tpm2.Algorithm {
	switch a {
	case HashSHA1:
		return tpm2.AlgSHA1
	case HashSHA256:
		return tpm2.AlgSHA256
	case HashSHA384:
		return tpm2.AlgSHA384
	case HashSHA512:
		return tpm2.AlgSHA512
	}
	return 0
}

// String returns the identifier IMA uses for the algorithm on the wire.
func (a HashAlg) String() string {
	switch a {
	case HashSHA1:
		return "sha1"
	case HashSHA256:
		return "sha256"
	case HashSHA384:
		return "sha384"
	case HashSHA512:
		return "sha512"
	}
	return fmt.Sprintf("HashAlg<%d>", int(a))
}

// UnsupportedAlgorithmError reports a digest field naming an algorithm
// outside the supported bank set.
type UnsupportedAlgorithmError string

func (e UnsupportedAlgorithmError) Error() string {
	return fmt.Sprintf("unsupported hash algorithm: %s", string(e))
}

// HashAlgFromString resolves an IMA wire identifier such as "sha256".
func HashAlgFromString(name string) (HashAlg, error) {
	for _, alg := range BankAlgs {
		if alg.String() == name {
			return alg, nil
		}
	}
	return 0, UnsupportedAlgorithmError(name)
}

// MR provides a generic interface for measurement registers to implement.
type MR interface {
	Idx() int
	Dgst() []byte
	DgstAlg() crypto.Hash
}

// PCR encapsulates the value of a PCR at a point in time.
type PCR struct {
	Index     int
	Digest    []byte
	DigestAlg crypto.Hash
}

// Idx gives the PCR index.
func (p PCR) Idx() int {
	return p.Index
}

// Dgst gives the PCR digest.
func (p PCR) Dgst() []byte {
	return p.Digest
}

// DgstAlg gives the PCR digest algorithm as a crypto.Hash.
func (p PCR) DgstAlg() crypto.Hash {
	return p.DigestAlg
}
