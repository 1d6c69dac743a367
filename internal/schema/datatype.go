package schema

import (
	"strings"

	"github.com/smflabs/sqlglue/internal/errs"
	"github.com/smflabs/sqlglue/internal/value"
)

// dataTypeNames maps the SQL type names the translator recognizes in
// CREATE TABLE column definitions to a value.Kind, trimmed from smf's
// NormalizeDataType MySQL/TiDB alias table down to spec.md §3.1's variant
// list.
var dataTypeNames = map[string]value.Kind{
	"BOOLEAN":   value.KindBool,
	"BOOL":      value.KindBool,
	"INT8":      value.KindI8,
	"TINYINT":   value.KindI8,
	"INT16":     value.KindI16,
	"SMALLINT":  value.KindI16,
	"INT32":     value.KindI32,
	"INT":       value.KindI32,
	"INTEGER":   value.KindI32,
	"INT64":     value.KindI64,
	"BIGINT":    value.KindI64,
	"INT128":    value.KindI128,
	"UINT8":     value.KindU8,
	"UINT16":    value.KindU16,
	"UINT32":    value.KindU32,
	"UINT64":    value.KindU64,
	"UINT128":   value.KindU128,
	"FLOAT32":   value.KindF32,
	"FLOAT":     value.KindF32,
	"FLOAT64":   value.KindF64,
	"DOUBLE":    value.KindF64,
	"DECIMAL":   value.KindDecimal,
	"NUMERIC":   value.KindDecimal,
	"TEXT":      value.KindStr,
	"VARCHAR":   value.KindStr,
	"CHAR":      value.KindStr,
	"STRING":    value.KindStr,
	"BYTEA":     value.KindBytea,
	"BLOB":      value.KindBytea,
	"DATE":      value.KindDate,
	"TIME":      value.KindTime,
	"TIMESTAMP": value.KindTimestamp,
	"DATETIME":  value.KindTimestamp,
	"INTERVAL":  value.KindInterval,
	"UUID":      value.KindUuid,
	"INET":      value.KindInet,
	"POINT":     value.KindPoint,
	"MAP":       value.KindMap,
	"LIST":      value.KindList,
}

// ParseDataType resolves a column type name as it appears in CREATE TABLE
// text (ignoring a trailing size/precision qualifier such as "VARCHAR(255)"
// or "DECIMAL(10,2)") to a value.Kind.
func ParseDataType(name string) (value.Kind, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(upper, '('); i >= 0 {
		upper = strings.TrimSpace(upper[:i])
	}
	k, ok := dataTypeNames[upper]
	if !ok {
		return 0, errs.Plan("unrecognized data type %q", name)
	}
	return k, nil
}
