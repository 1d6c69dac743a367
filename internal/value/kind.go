// Package value implements the engine's typed SQL value model: the Value
// sum type, its ordering/arithmetic/cast rules, and the restricted Key
// subtype used as a row identifier.
//
// Grounded on smf's internal/core data-type handling (core.DataType,
// core.NormalizeDataType) but generalized from "one of nine portable
// buckets for DDL generation" to the full typed runtime value spec.md
// describes, since the executor needs to distinguish I32 from I64 at
// evaluation time, not just classify both as "int" for CREATE TABLE text.
package value

// Kind discriminates the concrete Value implementation without reflection,
// the same role core.DataType plays for smf's portable column types.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindI128
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindF32
	KindF64
	KindDecimal
	KindStr
	KindBytea
	KindDate
	KindTime
	KindTimestamp
	KindInterval
	KindUuid
	KindInet
	KindPoint
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindBool:
		return "BOOLEAN"
	case KindI8:
		return "INT8"
	case KindI16:
		return "INT16"
	case KindI32:
		return "INT32"
	case KindI64:
		return "INT64"
	case KindI128:
		return "INT128"
	case KindU8:
		return "UINT8"
	case KindU16:
		return "UINT16"
	case KindU32:
		return "UINT32"
	case KindU64:
		return "UINT64"
	case KindU128:
		return "UINT128"
	case KindF32:
		return "FLOAT32"
	case KindF64:
		return "FLOAT64"
	case KindDecimal:
		return "DECIMAL"
	case KindStr:
		return "TEXT"
	case KindBytea:
		return "BYTEA"
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindTimestamp:
		return "TIMESTAMP"
	case KindInterval:
		return "INTERVAL"
	case KindUuid:
		return "UUID"
	case KindInet:
		return "INET"
	case KindPoint:
		return "POINT"
	case KindMap:
		return "MAP"
	case KindList:
		return "LIST"
	default:
		return "UNKNOWN"
	}
}

// IsInteger reports whether k is one of the eight signed/unsigned integer
// widths.
func (k Kind) IsInteger() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64, KindI128, KindU8, KindU16, KindU32, KindU64, KindU128:
		return true
	}
	return false
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool {
	switch k {
	case KindI8, KindI16, KindI32, KindI64, KindI128:
		return true
	}
	return false
}

// IsFloat reports whether k is F32 or F64.
func (k Kind) IsFloat() bool { return k == KindF32 || k == KindF64 }

// IsNumeric reports whether k participates in arithmetic (integer, float, or
// decimal).
func (k Kind) IsNumeric() bool { return k.IsInteger() || k.IsFloat() || k == KindDecimal }

// IsTemporal reports whether k is one of Date/Time/Timestamp/Interval.
func (k Kind) IsTemporal() bool {
	switch k {
	case KindDate, KindTime, KindTimestamp, KindInterval:
		return true
	}
	return false
}
