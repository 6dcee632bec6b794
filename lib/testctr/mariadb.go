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

// Package testctr runs throwaway containers for integration tests.
package testctr

import (
	"context"
	"errors"
	"fmt"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"log/slog"
	"os"
	"testing"
)

const (
	MariaDBVersion     = "10.11.13"
	MariaDBDockerImage = "mariadb:" + MariaDBVersion

	// EnableEnvVar must be set for container-backed tests to run.
	EnableEnvVar = "CAD_TEST_CONTAINERS"
)

// RequireContainers skips t unless container-backed tests are enabled.
func RequireContainers(t testing.TB) {
	t.Helper()
	if os.Getenv(EnableEnvVar) == "" {
		t.Skipf("set %v to run tests against a MariaDB container", EnableEnvVar)
	}
}

// MariaDB is a running MariaDB container.
type MariaDB struct {
	Container testcontainers.Container
	Host      string
	Port      int32
	Database  string
	Username  string
	Password  string
}

// Terminate stops and removes the container.
func (m *MariaDB) Terminate(ctx context.Context) {
	if err := m.Container.Terminate(ctx); err != nil {
		slog.Error("Failed to terminate container", "error", err)
	}
}

// DSN is the go-sql-driver/mysql data source name for the container's database.
func (m *MariaDB) DSN() string {
	return fmt.Sprintf("%v:%v@tcp(%v:%v)/%v?parseTime=true&multiStatements=true",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// StartMariaDB creates and runs a MariaDB container. On a startup error the container is
// terminated before returning; otherwise the caller must Terminate it.
func StartMariaDB(ctx context.Context, database, username, password string) (*MariaDB, error) {
	ctr, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        MariaDBDockerImage,
				ExposedPorts: []string{"3306/tcp"},
				WaitingFor:   wait.ForLog("port: 3306  mariadb.org binary distribution"),
				Env: map[string]string{
					"MARIADB_RANDOM_ROOT_PASSWORD": "true",
					"MARIADB_DATABASE":             database,
					"MARIADB_USER":                 username,
					"MARIADB_PASSWORD":             password,
				},
			},
			Started: true,
		},
	)
	m := &MariaDB{Container: ctr, Database: database, Username: username, Password: password}
	if err != nil {
		if ctr != nil {
			m.Terminate(ctx)
		}
		return nil, fmt.Errorf("[GenericContainer]: %w", err)
	}
	host, hostErr := ctr.Host(ctx)
	natPort, portErr := ctr.MappedPort(ctx, "3306/tcp")
	if err = errors.Join(hostErr, portErr); err != nil {
		m.Terminate(ctx)
		return nil, fmt.Errorf("[MappedPort]: %w", err)
	}
	m.Host = host
	m.Port = int32(natPort.Int())
	return m, nil
}
