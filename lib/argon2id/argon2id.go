//
// See the file COPYRIGHT for copyright information.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package argon2id creates and checks PHC-format Argon2id password hashes, e.g.
//
//	$argon2id$v=19$m=65536,t=1,p=2$<salt>$<key>
package argon2id

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"golang.org/x/crypto/argon2"
	"strconv"
	"strings"
)

var (
	ErrInvalidHash         = errors.New("argon2id: hash is not in the correct format")
	ErrIncompatibleVariant = errors.New("argon2id: incompatible variant of argon2")
	ErrIncompatibleVersion = errors.New("argon2id: incompatible version of argon2")
)

// Params are the Argon2id tuning parameters.
type Params struct {
	// Memory is in KiB.
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DevelopmentParams are cheap enough for tests and local servers. Don't use them for
// real officer credentials.
var DevelopmentParams = &Params{
	Memory:      64 * 1024,
	Iterations:  1,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// DefaultParams follow the second recommended option of RFC 9106.
var DefaultParams = &Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

var b64 = base64.RawStdEncoding.Strict()

// CreateHash returns the PHC-format hash of password under a new random salt.
func CreateHash(password string, params *Params) string {
	salt := make([]byte, params.SaltLength)
	// crypto/rand.Read doesn't fail
	_, _ = rand.Read(salt)
	key := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	)
}

// ComparePasswordAndHash reports whether password matches hash.
func ComparePasswordAndHash(password, hash string) (match bool, err error) {
	match, _, err = CheckHash(password, hash)
	return match, err
}

// CheckHash is ComparePasswordAndHash that also returns the hash's parameters.
func CheckHash(password, hash string) (match bool, params *Params, err error) {
	params, salt, key, err := DecodeHash(hash)
	if err != nil {
		return false, nil, err
	}
	other := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)
	if subtle.ConstantTimeEq(int32(len(key)), int32(len(other))) == 0 {
		return false, params, nil
	}
	return subtle.ConstantTimeCompare(key, other) == 1, params, nil
}

// DecodeHash parses a PHC-format Argon2id hash. Parsing is strict: any extra characters
// in a field fail the decode.
func DecodeHash(hash string) (params *Params, salt, key []byte, err error) {
	vals := strings.Split(hash, "$")
	if len(vals) != 6 || vals[0] != "" {
		return nil, nil, nil, ErrInvalidHash
	}
	if vals[1] != "argon2id" {
		return nil, nil, nil, ErrIncompatibleVariant
	}

	version, err := field(vals[2], "v")
	if err != nil {
		return nil, nil, nil, err
	}
	if version != argon2.Version {
		return nil, nil, nil, ErrIncompatibleVersion
	}

	settings := strings.Split(vals[3], ",")
	if len(settings) != 3 {
		return nil, nil, nil, ErrInvalidHash
	}
	memory, err := field(settings[0], "m")
	if err != nil {
		return nil, nil, nil, err
	}
	iterations, err := field(settings[1], "t")
	if err != nil {
		return nil, nil, nil, err
	}
	parallelism, err := field(settings[2], "p")
	if err != nil {
		return nil, nil, nil, err
	}
	if parallelism == 0 || parallelism > 255 || iterations == 0 {
		return nil, nil, nil, ErrInvalidHash
	}

	salt, err = decodeB64(vals[4])
	if err != nil {
		return nil, nil, nil, err
	}
	key, err = decodeB64(vals[5])
	if err != nil {
		return nil, nil, nil, err
	}

	params = &Params{
		Memory:      memory,
		Iterations:  iterations,
		Parallelism: uint8(parallelism),
		SaltLength:  uint32(len(salt)),
		KeyLength:   uint32(len(key)),
	}
	return params, salt, key, nil
}

// field parses "name=123".
func field(s, name string) (uint32, error) {
	v, ok := strings.CutPrefix(s, name+"=")
	if !ok {
		return 0, fmt.Errorf("%w: expected %q field, got %q", ErrInvalidHash, name, s)
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %q field: %w", ErrInvalidHash, name, err)
	}
	return uint32(n), nil
}

// decodeB64 rejects the line breaks the base64 package would otherwise skip over.
func decodeB64(s string) ([]byte, error) {
	if strings.ContainsAny(s, "\r\n") {
		return nil, ErrInvalidHash
	}
	b, err := b64.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	return b, nil
}
