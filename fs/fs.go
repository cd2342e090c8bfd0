// Package appfs embeds the files the binaries need at runtime.
package appfs

import "embed"

// FS holds the database migrations, the email templates and the password blocklist.
//
//go:embed migrations/*.sql assets/templates/email/* assets/common-passwords.txt.gz
var FS embed.FS

const (
	MigrationsDir       = "migrations"
	EmailTemplatesDir   = "assets/templates/email"
	CommonPasswordsFile = "assets/common-passwords.txt.gz"
)
