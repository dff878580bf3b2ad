// Package sqlite keeps the result cache and the run history in one
// SQLite database, ~/.reqdistill/data/reqdistill.db by default. It uses
// the pure-Go modernc.org/sqlite driver in WAL mode, so extraction
// workers can write results while the CLI reads history.
package sqlite
