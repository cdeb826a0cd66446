// Package all registers every store backend with the storage factory.
// Blank-import it from the binary; config selects which backend runs.
package all

import (
	// go-mssqldb registers itself with database/sql as "sqlserver";
	// the mssql backend deliberately does not import a driver.
	_ "github.com/microsoft/go-mssqldb"

	_ "intake/internal/storage/mssql"
	_ "intake/internal/storage/postgres"
	_ "intake/internal/storage/sqlite"
)
