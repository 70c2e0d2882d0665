// Package sqlite centralizes SQLite driver registration for
// store/sqlitestore: a build tag picks which driver package gets
// blank-imported, and Open/OpenReadOnly hide the registered driver name
// from the rest of the engine so sqlitestore never calls sql.Open
// directly.
//
// Only the pure-Go modernc.org/sqlite driver ships in this repository,
// but the tag-selected driverName/driverType/driverPackage constants are
// kept so a CGO variant (mattn/go-sqlite3 under a cgo_sqlite build tag)
// could drop in beside driver_purego.go without touching this file.
package sqlite

import (
	"database/sql"
)

// DriverName returns the registered database/sql driver name.
func DriverName() string {
	return driverName
}

// DriverType identifies which concrete driver package is registered:
// "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// Open opens a SQLite database using the registered driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens a SQLite database in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open(path + "?mode=ro")
}

// Info describes the SQLite driver configuration in effect.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	Package    string `json:"package"`
}

// GetInfo reports the current SQLite driver configuration, surfaced by
// psearch-dump's diagnostic output.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		Package:    driverPackage,
	}
}
