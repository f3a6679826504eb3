// Package migrations embeds the SQL schema files applied by cmd/migrate.
package migrations

import (
	"embed"
	"path"
)

//go:embed *.sql
var files embed.FS

// Names returns the embedded migration file names, unordered.
func Names() []string {
	entries, err := files.ReadDir(".")
	if err != nil {
		panic(err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if path.Ext(entry.Name()) == ".sql" {
			names = append(names, entry.Name())
		}
	}
	return names
}

// Read returns the contents of one embedded migration.
func Read(name string) string {
	data, err := files.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}
