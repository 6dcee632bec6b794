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

package integration_test

import (
	"github.com/fieldcad/cadfield/conf"
	"github.com/fieldcad/cadfield/store"
	"github.com/fieldcad/cadfield/store/caddb"
	"github.com/stretchr/testify/require"
	"io"
	"log/slog"
	"testing"
)

func newFakeDB(t *testing.T) *store.DBQ {
	t.Helper()
	db, err := store.SqlDB(t.Context(),
		conf.DBStore{
			Type: conf.DBStoreTypeFake,
			Fake: conf.DefaultCAD().Store.Fake,
		},
		true,
	)
	require.NoError(t, err)
	t.Cleanup(func() { shut(db) })
	return store.New(db, caddb.New())
}

func shut(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Error("Failed to close", "error", err)
	}
}
