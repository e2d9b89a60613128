// Package migrations carries the read-model schema inside the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
