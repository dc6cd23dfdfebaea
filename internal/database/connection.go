// connection.go
//
// A minimal multi-database liveness service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of aphrodite.
// aphrodite is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// aphrodite is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with aphrodite.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package database

import (
	"fmt"

	"github.com/localnerve/aphrodite/internal/config"
	"github.com/localnerve/aphrodite/internal/types"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open builds the connection pool for the configured backend.
// gorm pings on open, so an unreachable host, rejected login or malformed DSN
// all surface here as ErrBadCredentials.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(log.Logger, GormLogLevel(cfg.Log.Level)),
	})
	if err != nil {
		if db != nil {
			_ = Close(db)
		}
		return nil, fmt.Errorf("%w: %w", types.ErrBadCredentials, err)
	}

	// Get underlying SQL DB for connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrBadCredentials, err)
	}

	sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)

	log.Info().
		Str("backend", string(cfg.Backend)).
		Str("database", cfg.Database).
		Str("host", cfg.Host).
		Int("pool_size", cfg.Pool.MaxOpen).
		Msg("Connected to database")

	return db, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.MySQL:
		return mysql.Open(dsn), nil
	case config.Postgres:
		return postgres.Open(dsn), nil
	case config.SQLite:
		return sqliteDialector(dsn), nil
	}
	return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedBackend, cfg.Backend)
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
