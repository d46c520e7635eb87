// Package migrations contains the embedded SQL schema of the dedup index and the mirror sink.
package migrations

import "embed"

// Files exposes the compiled-in migration SQL files.
//
//go:embed *.sql
var Files embed.FS
