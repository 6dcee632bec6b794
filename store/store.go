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

package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"github.com/fieldcad/cadfield/conf"
	"github.com/fieldcad/cadfield/lib/noopdb"
	"github.com/fieldcad/cadfield/store/fakecaddb"
	"github.com/go-sql-driver/mysql"
	"log/slog"
	"time"
)

//go:embed schema/current.sql
var CurrentSchema string

//go:embed schema/*-from-*.sql
var Migrations embed.FS

const (
	connMaxLifetime = 5 * time.Minute
	pingAttempts    = 5
	pingBackoff     = 500 * time.Millisecond
)

// SqlDB opens the configured database: a MariaDB server, an in-process fake seeded with
// development data, or a no-op database that stores nothing.
func SqlDB(ctx context.Context, dbStoreCfg conf.DBStore, migrateDB bool) (*sql.DB, error) {
	mariaCfg := dbStoreCfg.MariaDB
	switch dbStoreCfg.Type {
	case conf.DBStoreTypeNoOp:
		slog.Info("Using NoOp CAD DB; the action log won't be kept")
		return sql.Open(noopdb.DriverName, "")
	case conf.DBStoreTypeFake:
		port, err := fakecaddb.Start(ctx,
			dbStoreCfg.Fake.Database,
			dbStoreCfg.Fake.HostName, dbStoreCfg.Fake.HostPort,
			dbStoreCfg.Fake.Username, dbStoreCfg.Fake.Password,
		)
		if err != nil {
			return nil, fmt.Errorf("[fakecaddb.Start]: %w", err)
		}
		mariaCfg = dbStoreCfg.Fake
		mariaCfg.HostPort = port
		slog.Info("Started volatile fake CAD DB", "port", port)
	}

	db, err := sql.Open("mysql", mysqlConfig(mariaCfg).FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("[sql.Open]: %w", err)
	}
	db.SetConnMaxLifetime(connMaxLifetime)
	if mariaCfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(int(mariaCfg.MaxOpenConns))
	}
	if err = waitForDB(ctx, db, mariaCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[waitForDB]: %w", err)
	}

	if migrateDB {
		if err = MigrateDB(ctx, db); err != nil {
			return nil, fmt.Errorf("[MigrateDB]: %w", err)
		}
	}

	if dbStoreCfg.Type == conf.DBStoreTypeFake {
		if _, err = db.ExecContext(ctx, fakecaddb.SeedData()); err != nil {
			return nil, fmt.Errorf("[ExecContext]: %w", err)
		}
	}
	slog.Info("Connected to CAD database",
		"addr", fmt.Sprintf("%v:%v", mariaCfg.HostName, mariaCfg.HostPort),
		"migrated", migrateDB,
	)
	return db, nil
}

func mysqlConfig(mariaCfg conf.DBStoreMaria) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = mariaCfg.Username
	cfg.Passwd = mariaCfg.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%v:%v", mariaCfg.HostName, mariaCfg.HostPort)
	cfg.DBName = mariaCfg.Database
	// migrations run as multi-statement scripts
	cfg.MultiStatements = true
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg
}

// waitForDB pings until the server answers. A field server often comes up before its
// database container does.
func waitForDB(ctx context.Context, db *sql.DB, mariaCfg conf.DBStoreMaria) error {
	var err error
	backoff := pingBackoff
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		slog.Warn("CAD DB not answering yet",
			"host", mariaCfg.HostName,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("[PingContext]: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("[PingContext]: %w", err)
}
