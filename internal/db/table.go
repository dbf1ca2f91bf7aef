package db

import (
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Table is an optionally schema-qualified table name.
type Table struct {
	Schema string
	Name   string
}

// ParseTable parses "name" or "schema.name". Each part must be a plain SQL
// identifier so user input can never smuggle SQL into a query.
func ParseTable(s string) (Table, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) > 2 {
		return Table{}, eris.Errorf("db: invalid table name %q", s)
	}
	for _, p := range parts {
		if !identRE.MatchString(p) {
			return Table{}, eris.Errorf("db: invalid table name %q", s)
		}
	}
	if len(parts) == 2 {
		return Table{Schema: parts[0], Name: parts[1]}, nil
	}
	return Table{Name: parts[0]}, nil
}

// Identifier returns the table as a pgx identifier.
func (t Table) Identifier() pgx.Identifier {
	if t.Schema == "" {
		return pgx.Identifier{t.Name}
	}
	return pgx.Identifier{t.Schema, t.Name}
}

// Sanitize returns the quoted table name for interpolation into SQL.
func (t Table) Sanitize() string {
	return t.Identifier().Sanitize()
}

func (t Table) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}
