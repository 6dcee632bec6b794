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

package argon2id_test

import (
	"github.com/fieldcad/cadfield/lib/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"regexp"
	"strings"
	"testing"
)

// a known-good hash of "test", from the PHP 7.3 argon2id announcement
const phpHash = "$argon2id$v=19$m=1024,t=2,p=2$WS90MHJhd3AwSC5xTDJpZg$8tn2DaIJR2/UX4Cjcy2t3EZaLDL/qh+NbLQAOvTmdAg"

func TestCreateHashFormat(t *testing.T) {
	t.Parallel()
	phc := regexp.MustCompile(`^\$argon2id\$v=19\$m=65536,t=3,p=4\$[A-Za-z0-9+/]{22}\$[A-Za-z0-9+/]{43}$`)

	first := argon2id.CreateHash("Chloe", argon2id.DefaultParams)
	second := argon2id.CreateHash("Chloe", argon2id.DefaultParams)
	assert.Regexp(t, phc, first)
	assert.NotEqual(t, first, second, "each hash gets its own salt")
}

func TestCompareRoundTrip(t *testing.T) {
	t.Parallel()
	hash := argon2id.CreateHash("Ben", argon2id.DevelopmentParams)

	match, params, err := argon2id.CheckHash("Ben", hash)
	require.NoError(t, err)
	assert.True(t, match)
	assert.Equal(t, *argon2id.DevelopmentParams, *params)

	match, err = argon2id.ComparePasswordAndHash("ben", hash)
	require.NoError(t, err)
	assert.False(t, match)

	match, err = argon2id.ComparePasswordAndHash("test", phpHash)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestDecodeHashIsStrict(t *testing.T) {
	t.Parallel()
	_, _, _, err := argon2id.DecodeHash(phpHash)
	require.NoError(t, err)

	lastDollar := strings.LastIndex(phpHash, "$")
	for name, hash := range map[string]string{
		"empty":              "",
		"too few fields":     "$argon2id$v=19$m=1024,t=2,p=2$WS90MHJhd3AwSC5xTDJpZg",
		"argon2i variant":    strings.Replace(phpHash, "argon2id", "argon2i", 1),
		"old version":        strings.Replace(phpHash, "v=19", "v=16", 1),
		"junk before key":    strings.Replace(phpHash, "m=1024", "xm=1024", 1),
		"junk after value":   strings.Replace(phpHash, "t=2", "t=2x", 1),
		"zero parallelism":   strings.Replace(phpHash, "p=2", "p=0", 1),
		"missing setting":    strings.Replace(phpHash, ",p=2", "", 1),
		"newline in base64":  phpHash[:lastDollar] + "$\n" + phpHash[lastDollar+1:],
		"non-strict padding": phpHash[:len(phpHash)-1] + "h",
	} {
		_, _, _, err := argon2id.DecodeHash(hash)
		assert.Errorf(t, err, "%v should fail to decode", name)
	}

	_, _, _, err = argon2id.DecodeHash(strings.Replace(phpHash, "argon2id", "argon2i", 1))
	require.ErrorIs(t, err, argon2id.ErrIncompatibleVariant)
	_, _, _, err = argon2id.DecodeHash(strings.Replace(phpHash, "v=19", "v=16", 1))
	require.ErrorIs(t, err, argon2id.ErrIncompatibleVersion)
	_, _, _, err = argon2id.DecodeHash("$argon2id$v=19")
	require.ErrorIs(t, err, argon2id.ErrInvalidHash)
}
