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

// Package authn verifies officer passwords against stored Argon2id hashes.
package authn

import (
	"context"
	"errors"
	"fmt"
	"github.com/fieldcad/cadfield/lib/argon2id"
	"golang.org/x/sync/semaphore"
	"strings"
)

// MaxConcurrentVerifications bounds Argon2id work. Each verification allocates the hash's
// memory parameter (64 MiB for DevelopmentParams), so a burst of logins could otherwise
// push the server past its memory limit.
const MaxConcurrentVerifications = 2

var argonSlots = semaphore.NewWeighted(MaxConcurrentVerifications)

var ErrUnsupportedHash = errors.New("unsupported non-argon2id stored password")

// Verify reports whether password matches storedValue. It waits for a free verification
// slot, or until ctx is done.
func Verify(ctx context.Context, password, storedValue string) (isValid bool, err error) {
	if !strings.HasPrefix(storedValue, "$argon2id") {
		return false, ErrUnsupportedHash
	}
	if err = argonSlots.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("[Acquire]: %w", err)
	}
	defer argonSlots.Release(1)
	return argon2id.ComparePasswordAndHash(password, storedValue)
}

// NewSalted hashes password for storage in the officer directory.
func NewSalted(password string) string {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

func NewSaltedArgon2idDevOnly(password string) string {
	// do not use DevelopmentParams for production use!
	return argon2id.CreateHash(password, argon2id.DevelopmentParams)
}
