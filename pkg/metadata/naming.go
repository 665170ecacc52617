package metadata

import "strings"

const (
	DefaultStorePrefix       = "ODS_"
	DefaultStagingPrefix     = "STG_"
	DefaultLoadTSColumn      = "tech_load_ts"
	DefaultDeletedFlagColumn = "tech_is_deleted"
)

// Naming is the warehouse naming convention linking store and staging
// schemas, and the technical columns the loaders add to every table.
type Naming struct {
	StorePrefix       string `yaml:"store_prefix"`
	StagingPrefix     string `yaml:"staging_prefix"`
	LoadTSColumn      string `yaml:"load_ts_column"`
	DeletedFlagColumn string `yaml:"deleted_flag_column"`
}

func DefaultNaming() Naming {
	return Naming{
		StorePrefix:       DefaultStorePrefix,
		StagingPrefix:     DefaultStagingPrefix,
		LoadTSColumn:      DefaultLoadTSColumn,
		DeletedFlagColumn: DefaultDeletedFlagColumn,
	}
}

// StagingSchema derives the staging schema for a store schema by
// replacing the store prefix. Prefixes match case-insensitively and a
// lower-case schema gets a lower-case staging prefix. ok is false when
// schema does not carry the store prefix.
func (n Naming) StagingSchema(schema string) (string, bool) {
	p := len(n.StorePrefix)
	if p == 0 || len(schema) < p || !strings.EqualFold(schema[:p], n.StorePrefix) {
		return "", false
	}
	prefix := n.StagingPrefix
	if schema[:p] == strings.ToLower(schema[:p]) {
		prefix = strings.ToLower(prefix)
	}
	return prefix + schema[p:], true
}

// BusinessKey is the primary key without the load-timestamp column.
func (n Naming) BusinessKey(pk []string) []string {
	bk := make([]string, 0, len(pk))
	for _, col := range pk {
		if strings.EqualFold(col, n.LoadTSColumn) {
			continue
		}
		bk = append(bk, col)
	}
	return bk
}

// TableTarget is one store table to audit.
type TableTarget struct {
	Schema string `yaml:"schema"`
	Table  string `yaml:"table"`
}

func (t TableTarget) String() string {
	return t.Schema + "." + t.Table
}

// ParseTarget parses schema.table.
func ParseTarget(s string) (TableTarget, bool) {
	schema, table, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || schema == "" || table == "" {
		return TableTarget{}, false
	}
	return TableTarget{Schema: schema, Table: table}, true
}

// Staging returns the staging counterpart of t under naming n.
func (t TableTarget) Staging(n Naming) (TableTarget, bool) {
	schema, ok := n.StagingSchema(t.Schema)
	if !ok {
		return TableTarget{}, false
	}
	return TableTarget{Schema: schema, Table: t.Table}, true
}
