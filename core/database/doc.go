// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to configure MySQL (production) or
// SQLite (tests, local runs) connections from the application's configuration.
//
// # Connect
//
// Connect opens the connection, applies pool settings and pings the server
// within the configured timeout.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table. The integrity feature uses it
// to compare the live schema with the catalog models.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "rental_companies")
package database
