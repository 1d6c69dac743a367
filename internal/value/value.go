package value

import (
	"fmt"
	"math/big"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Value is the sum type of typed SQL values described in spec.md §3.1. Every
// concrete variant below implements it; a type switch on the concrete type
// (not the Kind tag) is the idiomatic way to destructure one, mirroring how
// smf's parser switches on *ast.ColumnOption / *ast.TableOption concrete
// types rather than carrying a second enum to dispatch on.
type Value interface {
	Kind() Kind
	// SQL renders the value the way it would appear as a SQL literal,
	// grounded on smf's exprToString restore-and-unquote helper in
	// internal/parser/mysql/parser.go.
	SQL() string
}

// Null is the single inhabitant of the NULL variant.
type Null struct{}

func (Null) Kind() Kind   { return KindNull }
func (Null) SQL() string  { return "NULL" }
func IsNull(v Value) bool { _, ok := v.(Null); return ok }

// Bool is the boolean variant.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) SQL() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Signed integer variants, one Go type per declared width.
type (
	I8  int8
	I16 int16
	I32 int32
	I64 int64
)

func (I8) Kind() Kind     { return KindI8 }
func (v I8) SQL() string  { return fmt.Sprintf("%d", int8(v)) }
func (I16) Kind() Kind    { return KindI16 }
func (v I16) SQL() string { return fmt.Sprintf("%d", int16(v)) }
func (I32) Kind() Kind    { return KindI32 }
func (v I32) SQL() string { return fmt.Sprintf("%d", int32(v)) }
func (I64) Kind() Kind    { return KindI64 }
func (v I64) SQL() string { return fmt.Sprintf("%d", int64(v)) }

// I128 holds a 128-bit signed integer. No third-party 128-bit integer type
// appears anywhere in the retrieved example pack, so this uses math/big the
// way the Go ecosystem itself does for arbitrary-precision integers.
type I128 struct{ V *big.Int }

func NewI128(v *big.Int) I128 { return I128{V: new(big.Int).Set(v)} }
func (I128) Kind() Kind       { return KindI128 }
func (v I128) SQL() string    { return v.V.String() }

// Unsigned integer variants.
type (
	U8  uint8
	U16 uint16
	U32 uint32
	U64 uint64
)

func (U8) Kind() Kind     { return KindU8 }
func (v U8) SQL() string  { return fmt.Sprintf("%d", uint8(v)) }
func (U16) Kind() Kind    { return KindU16 }
func (v U16) SQL() string { return fmt.Sprintf("%d", uint16(v)) }
func (U32) Kind() Kind    { return KindU32 }
func (v U32) SQL() string { return fmt.Sprintf("%d", uint32(v)) }
func (U64) Kind() Kind    { return KindU64 }
func (v U64) SQL() string { return fmt.Sprintf("%d", uint64(v)) }

// U128 holds a 128-bit unsigned integer.
type U128 struct{ V *big.Int }

func NewU128(v *big.Int) U128 { return U128{V: new(big.Int).Set(v)} }
func (U128) Kind() Kind       { return KindU128 }
func (v U128) SQL() string    { return v.V.String() }

// Floating point variants.
type (
	F32 float32
	F64 float64
)

func (F32) Kind() Kind     { return KindF32 }
func (v F32) SQL() string  { return fmt.Sprintf("%v", float32(v)) }
func (F64) Kind() Kind     { return KindF64 }
func (v F64) SQL() string  { return fmt.Sprintf("%v", float64(v)) }

// Decimal is an arbitrary-precision decimal, backed by shopspring/decimal
// (pulled in transitively by the retrieved pack's xaas-cloud-genai-toolbox
// example and promoted here to a direct dependency).
type Decimal struct{ D decimal.Decimal }

func NewDecimal(d decimal.Decimal) Decimal { return Decimal{D: d} }
func (Decimal) Kind() Kind                 { return KindDecimal }
func (v Decimal) SQL() string              { return v.D.String() }

// Str is the UTF-8 string variant.
type Str string

func (Str) Kind() Kind    { return KindStr }
func (v Str) SQL() string { return "'" + escapeSingleQuotes(string(v)) + "'" }

func escapeSingleQuotes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'', '\'')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Bytea is the byte-string variant.
type Bytea []byte

func (Bytea) Kind() Kind    { return KindBytea }
func (v Bytea) SQL() string { return fmt.Sprintf("X'%x'", []byte(v)) }

// Date is a naive calendar date (no time-of-day, no zone).
type Date struct{ T time.Time }

func NewDate(t time.Time) Date { return Date{T: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)} }
func (Date) Kind() Kind        { return KindDate }
func (v Date) SQL() string     { return "'" + v.T.Format("2006-01-02") + "'" }

// Time is a naive time-of-day (no date, no zone).
type Time struct{ T time.Time }

func (Time) Kind() Kind    { return KindTime }
func (v Time) SQL() string { return "'" + v.T.Format("15:04:05.999999999") + "'" }

// Timestamp is a naive (zone-less) combined date and time.
type Timestamp struct{ T time.Time }

func (Timestamp) Kind() Kind  { return KindTimestamp }
func (v Timestamp) SQL() string {
	return "'" + v.T.Format("2006-01-02 15:04:05.999999999") + "'"
}

// Interval stores a month count and a microsecond count as two independent
// components, per spec.md §3.1, so that "1 MONTH" and "30 DAYS" remain
// distinguishable even though they aren't always numerically comparable.
type Interval struct {
	Months int32
	Micros int64
}

func (Interval) Kind() Kind { return KindInterval }
func (v Interval) SQL() string {
	return fmt.Sprintf("INTERVAL '%d' MONTH '%d' MICROSECOND", v.Months, v.Micros)
}

// Uuid is a 128-bit UUID, backed by google/uuid (a direct dependency of the
// teacher's sibling Lychee-Technology-forma example and an indirect
// dependency of the teacher itself).
type Uuid struct{ U uuid.UUID }

func NewUuid(u uuid.UUID) Uuid { return Uuid{U: u} }
func (Uuid) Kind() Kind        { return KindUuid }
func (v Uuid) SQL() string     { return "'" + v.U.String() + "'" }

// Inet is an IP address, backed by the standard library's net/netip.
type Inet struct{ Addr netip.Addr }

func (Inet) Kind() Kind    { return KindInet }
func (v Inet) SQL() string { return "'" + v.Addr.String() + "'" }

// Point is a pair of 64-bit floats.
type Point struct{ X, Y float64 }

func (Point) Kind() Kind    { return KindPoint }
func (v Point) SQL() string { return fmt.Sprintf("POINT(%v %v)", v.X, v.Y) }

// Map is an ordered string-keyed mapping to Value, preserving insertion
// order the way smf's TOML table parser preserves declaration order for
// columns.
type Map struct {
	Keys   []string
	Values []Value
}

func NewMap() Map { return Map{} }

func (m *Map) Set(key string, v Value) {
	for i, k := range m.Keys {
		if k == key {
			m.Values[i] = v
			return
		}
	}
	m.Keys = append(m.Keys, key)
	m.Values = append(m.Values, v)
}

func (m Map) Get(key string) (Value, bool) {
	for i, k := range m.Keys {
		if k == key {
			return m.Values[i], true
		}
	}
	return nil, false
}

func (Map) Kind() Kind { return KindMap }
func (v Map) SQL() string {
	s := "{"
	for i, k := range v.Keys {
		if i > 0 {
			s += ", "
		}
		s += "'" + escapeSingleQuotes(k) + "': " + v.Values[i].SQL()
	}
	return s + "}"
}

// List is an ordered sequence of Value, which may nest Map/List values
// recursively per spec.md §3.1.
type List struct{ Items []Value }

func (List) Kind() Kind { return KindList }
func (v List) SQL() string {
	s := "["
	for i, item := range v.Items {
		if i > 0 {
			s += ", "
		}
		s += item.SQL()
	}
	return s + "]"
}
