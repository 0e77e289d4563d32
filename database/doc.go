// Package database connects to the metadata sidecar that records content
// type, etag and original file name per object key.
//
// # Supported Backends
//
//   - SQLite: embedded, the default for single-node deployments
//   - PostgreSQL: shared by several gateway instances, via a pgx pool
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "mediagate.db",
//	    Tables: mediagate.Tables{MetaData: "mediagate_metadata"},
//	}
//
//	repo, cleanup, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Open pings the backend, runs the migrations and validates the schema.
// Connect returns the bare Database for callers that need the steps
// separately.
package database
