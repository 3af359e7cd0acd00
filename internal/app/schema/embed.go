// Package schema holds the DDL applied on startup.
package schema

import _ "embed"

//go:embed schema.sql
var SQL string
