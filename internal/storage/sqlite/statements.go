package sqlite

import (
	"fmt"
	"strings"

	"github.com/mmynk/bookkeeper/internal/storage"
)

// statements holds the SQL generated once per repository from its schema.
// Identifiers are quoted; values are always bound as parameters.
type statements struct {
	create        string
	insert        string
	insertDefault string
	get           string
	getAll        string
	update        string
	delete        string
}

func buildStatements[T any](schema storage.Schema[T]) statements {
	table := quote(schema.Table)
	key := quote(storage.KeyColumn)

	defs := []string{key + " INTEGER PRIMARY KEY AUTOINCREMENT"}
	names := make([]string, 0, len(schema.Fields))
	sets := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		col := quote(f.Name)
		defs = append(defs, fmt.Sprintf("%s %s", col, f.ColumnType()))
		names = append(names, col)
		sets = append(sets, col+" = ?")
	}

	selectCols := strings.Join(append([]string{key}, names...), ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	return statements{
		create:        fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", ")),
		insert:        fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), placeholders),
		insertDefault: fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table),
		get:           fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", selectCols, table, key),
		getAll:        fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", selectCols, table, key),
		update:        fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(sets, ", "), key),
		delete:        fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, key),
	}
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
