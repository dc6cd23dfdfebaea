//go:build !cgo

package database

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// CGO_ENABLED=0 builds (static container images) use the pure Go sqlite port.
func sqliteDialector(path string) gorm.Dialector {
	return sqlite.Open(path)
}
