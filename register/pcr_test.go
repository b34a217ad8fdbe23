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
	"errors"
	"testing"
)

func TestHashAlgFromString(t *testing.T) {
	tests := []struct {
		name     string
		want     HashAlg
		wantSize int
	}{
		{name: "sha1", want: HashSHA1, wantSize: 20},
		{name: "sha256", want: HashSHA256, wantSize: 32},
		{name: "sha384", want: HashSHA384, wantSize: 48},
		{name: "sha512", want: HashSHA512, wantSize: 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alg, err := HashAlgFromString(tt.name)
			if err != nil {
				t.Fatalf("HashAlgFromString(%q) failed: %v", tt.name, err)
			}
			if alg != tt.want {
				t.Errorf("HashAlgFromString(%q) = %v, want %v", tt.name, alg, tt.want)
			}
			if got := alg.CryptoHash().Size(); got != tt.wantSize {
				t.Errorf("%s digest size = %d, want %d", tt.name, got, tt.wantSize)
			}
			if alg.String() != tt.name {
				t.Errorf("String() = %q, want %q", alg.String(), tt.name)
			}
			if alg.GoTPMAlg() == 0 {
				t.Errorf("%s has no go-tpm algorithm mapping", tt.name)
			}
		})
	}
}

func TestHashAlgFromStringUnknown(t *testing.T) {
	_, err := HashAlgFromString("md5")
	var unsupported UnsupportedAlgorithmError
	if !errors.As(err, &unsupported) {
		t.Fatalf("HashAlgFromString(md5) err = %v, want UnsupportedAlgorithmError", err)
	}
	if string(unsupported) != "md5" {
		t.Errorf("UnsupportedAlgorithmError = %q, want %q", string(unsupported), "md5")
	}
}
