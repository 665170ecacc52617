// Package dialect describes the two warehouse engines the checker can audit.
package dialect

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var ErrUnsupportedDialect = errors.New("unsupported dialect")

// Dialect is the SQL flavour of the audited warehouse.
type Dialect int

const (
	Unknown Dialect = iota
	Vertica
	Greenplum
)

// String returns the string representation of the dialect
func (d Dialect) String() string {
	switch d {
	case Vertica:
		return "vertica"
	case Greenplum:
		return "greenplum"
	default:
		return "unknown"
	}
}

// Parse parses a dialect name case-insensitively.
func Parse(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertica":
		return Vertica, nil
	case "greenplum", "gp":
		return Greenplum, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedDialect, s)
	}
}

// UnmarshalText lets a Dialect be decoded from YAML and CLI flags.
func (d *Dialect) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case Vertica:
		return "vertica"
	case Greenplum:
		return "postgres"
	default:
		return ""
	}
}

// DefaultPort is the port used when the connection settings omit one.
func (d Dialect) DefaultPort() int {
	switch d {
	case Vertica:
		return 5433
	case Greenplum:
		return 5432
	default:
		return 0
	}
}

// NullSafeEqual renders a comparison that is true when both sides are NULL.
func (d Dialect) NullSafeEqual(left, right string) string {
	switch d {
	case Greenplum:
		return left + " IS NOT DISTINCT FROM " + right
	default:
		return left + " <=> " + right
	}
}

// ConnParams are the settings needed to reach a warehouse.
type ConnParams struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	TLSMode  string
}

// DSN formats the connection parameters as a URL understood by the
// dialect's driver.
func (d Dialect) DSN(p ConnParams) (string, error) {
	port := p.Port
	if port == 0 {
		port = d.DefaultPort()
	}
	u := &url.URL{
		Host: p.Host + ":" + strconv.Itoa(port),
		Path: "/" + p.Database,
		User: url.UserPassword(p.User, p.Password),
	}
	q := url.Values{}
	switch d {
	case Vertica:
		u.Scheme = "vertica"
		if p.TLSMode != "" {
			q.Set("tlsmode", strings.ToLower(p.TLSMode))
		}
	case Greenplum:
		u.Scheme = "postgres"
		sslmode := "disable"
		if p.TLSMode != "" {
			sslmode = strings.ToLower(p.TLSMode)
		}
		q.Set("sslmode", sslmode)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, d)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// QuoteIdent quotes an identifier for both supported dialects.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a string literal for both supported dialects.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QualifiedName returns "schema"."table".
func QualifiedName(schema, table string) string {
	return QuoteIdent(schema) + "." + QuoteIdent(table)
}

// QuoteIdentList renders cols as a comma separated list of quoted identifiers.
func QuoteIdentList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}
