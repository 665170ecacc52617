// Package templates is the store of dialect-specific SQL text used by the
// metadata resolver and the checks. Templates are embedded in the binary and
// looked up by purpose; a dialect directory overrides the ansi fallback.
package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"

	"github.com/block/qualitychecker/pkg/dialect"
)

//go:embed sql
var files embed.FS

var ErrTemplateNotFound = errors.New("sql template not found")

// Purpose names one SQL template.
type Purpose string

const (
	Columns             Purpose = "columns"
	PrimaryKey          Purpose = "primary_key"
	ColumnExists        Purpose = "column_exists"
	TableExists         Purpose = "table_exists"
	HasRows             Purpose = "has_rows"
	ListTables          Purpose = "list_tables"
	Analyze             Purpose = "analyze"
	NullColumn          Purpose = "null_column"
	MaxLength           Purpose = "max_length"
	NotUTF8             Purpose = "not_utf8"
	MaxLoadTS           Purpose = "max_load_ts"
	MostCommonValue     Purpose = "most_common_value"
	LengthStatistics    Purpose = "length_statistics"
	Segmentation        Purpose = "segmentation"
	RowCount            Purpose = "row_count"
	PKDoubles           Purpose = "pk_doubles"
	BusinessKeyCount    Purpose = "business_key_count"
	IncrementBase       Purpose = "increment_base"
	IncrementSoftDelete Purpose = "increment_soft_delete"
)

// Params are the named placeholders a template may reference.
// Identifier-valued fields are raw names; templates quote them with
// the ident, table and cols helpers and quote literals with lit.
type Params struct {
	Schema        string
	StagingSchema string
	Table         string
	Column        string
	Key           []string
	LoadTS        string
	DeletedFlag   string
	Pattern       string
	MaxLength     int64

	// Pre-rendered predicate fragments.
	Join      string
	Changed   string
	Unchanged string
}

var funcs = template.FuncMap{
	"ident": dialect.QuoteIdent,
	"lit":   dialect.QuoteLiteral,
	"table": dialect.QualifiedName,
	"cols":  dialect.QuoteIdentList,
}

var (
	cache = map[string]*template.Template{}
	lock  sync.Mutex
)

func lookup(purpose Purpose, d dialect.Dialect) (*template.Template, error) {
	lock.Lock()
	defer lock.Unlock()

	for _, dir := range []string{d.String(), "ansi"} {
		path := "sql/" + dir + "/" + string(purpose) + ".sql"
		if tmpl, ok := cache[path]; ok {
			return tmpl, nil
		}
		text, err := fs.ReadFile(files, path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(path).Funcs(funcs).Option("missingkey=error").Parse(string(text))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		cache[path] = tmpl
		return tmpl, nil
	}
	return nil, fmt.Errorf("%w: %s for %s", ErrTemplateNotFound, purpose, d)
}

// Render fills the template for purpose in dialect d.
func Render(purpose Purpose, d dialect.Dialect, p Params) (string, error) {
	tmpl, err := lookup(purpose, d)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render %s: %w", purpose, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
