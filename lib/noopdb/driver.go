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

// Package noopdb registers a database/sql driver named "noop". Every statement succeeds,
// writes go nowhere, and queries return no rows. It backs the audit store when a
// deployment has no database.
package noopdb

import (
	"database/sql"
	"database/sql/driver"
	"io"
)

const DriverName = "noop"

func init() {
	sql.Register(DriverName, Driver{})
}

type Driver struct{}

type Conn struct{}

type Stmt struct{}

type Result struct{}

type Rows struct{}

type Tx struct{}

func (Driver) Open(string) (driver.Conn, error) {
	return Conn{}, nil
}

func (Conn) Prepare(string) (driver.Stmt, error) {
	return Stmt{}, nil
}

func (Conn) Close() error {
	return nil
}

func (Conn) Begin() (driver.Tx, error) {
	return Tx{}, nil
}

func (Stmt) Close() error {
	return nil
}

// NumInput returns -1, so database/sql accepts any number of arguments.
func (Stmt) NumInput() int {
	return -1
}

func (Stmt) Exec([]driver.Value) (driver.Result, error) {
	return Result{}, nil
}

func (Stmt) Query([]driver.Value) (driver.Rows, error) {
	return Rows{}, nil
}

func (Result) LastInsertId() (int64, error) {
	return 0, nil
}

func (Result) RowsAffected() (int64, error) {
	return 0, nil
}

func (Rows) Columns() []string {
	return nil
}

func (Rows) Close() error {
	return nil
}

func (Rows) Next([]driver.Value) error {
	return io.EOF
}

func (Tx) Commit() error {
	return nil
}

func (Tx) Rollback() error {
	return nil
}
