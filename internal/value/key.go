package value

import (
	"encoding/binary"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Key is the restricted subset of Value usable as a row identifier
// (spec.md §3.2): booleans, signed 8/64-bit integers, strings, the three
// zone-less temporal types, intervals, UUIDs, decimals, and byte strings,
// plus the sentinel "no primary key" case. Float, Map, and List are
// deliberately excluded — NaN/±0 equality and structural equality don't
// admit the total, order-preserving byte encoding storage back-ends rely on
// for range scans.
type Key struct {
	v Value
}

// NoKey is the sentinel identifying a row with no declared primary key.
var NoKey = Key{}

// HasKey reports whether k identifies an actual key value.
func (k Key) HasKey() bool { return k.v != nil }

// Value returns the underlying Value, or Null{} for NoKey.
func (k Key) Value() Value {
	if k.v == nil {
		return Null{}
	}
	return k.v
}

// NewKey validates v and wraps it as a Key, returning errs.Key if v's kind
// isn't one of the key-able variants.
func NewKey(v Value) (Key, error) {
	switch v.(type) {
	case Bool, I8, I64, Str, Date, Time, Timestamp, Interval, Uuid, Decimal, Bytea:
		return Key{v: v}, nil
	default:
		return Key{}, errKeyKind(v.Kind())
	}
}

// Compare orders two keys consistently with Value's PartialCompare over the
// key-able subset, which is always total there.
func (k Key) Compare(other Key) int {
	if !k.HasKey() && !other.HasKey() {
		return 0
	}
	if !k.HasKey() {
		return -1
	}
	if !other.HasKey() {
		return 1
	}
	if cmp, ok := PartialCompare(k.v, other.v); ok {
		return cmp
	}
	return strCmp(k.v.Kind().String(), other.v.Kind().String())
}

// Encode renders k as a big-endian, order-preserving byte string: for any
// two keys k1, k2 of the same kind, k1.Compare(k2) < 0 implies
// bytes.Compare(k1.Encode(), k2.Encode()) < 0, the invariant storage
// back-ends use to implement range scans directly over encoded bytes.
func (k Key) Encode() []byte {
	if !k.HasKey() {
		return []byte{tagNone}
	}
	switch v := k.v.(type) {
	case Bool:
		if v {
			return []byte{tagBool, 1}
		}
		return []byte{tagBool, 0}
	case I8:
		return []byte{tagI8, flipSign8(byte(int8(v)))}
	case I64:
		return encodeTagged(tagI64, encodeI64(int64(v)))
	case Str:
		return encodeTagged(tagStr, []byte(v))
	case Bytea:
		return encodeTagged(tagBytea, []byte(v))
	case Date:
		return encodeTagged(tagDate, encodeI64(v.T.UnixNano()))
	case Time:
		return encodeTagged(tagTime, encodeI64(int64(v.T.Hour())*3600e9+int64(v.T.Minute())*60e9+int64(v.T.Second())*1e9+int64(v.T.Nanosecond())))
	case Timestamp:
		return encodeTagged(tagTimestamp, encodeI64(v.T.UnixNano()))
	case Interval:
		buf := make([]byte, 0, 12)
		buf = append(buf, encodeI32(v.Months)...)
		buf = append(buf, encodeI64(v.Micros)...)
		return encodeTagged(tagInterval, buf)
	case Uuid:
		return encodeTagged(tagUuid, v.U[:])
	case Decimal:
		return encodeTagged(tagDecimal, encodeDecimal(v.D))
	default:
		return []byte{tagNone}
	}
}

const (
	tagNone byte = iota
	tagBool
	tagI8
	tagI64
	tagStr
	tagBytea
	tagDate
	tagTime
	tagTimestamp
	tagInterval
	tagUuid
	tagDecimal
)

func encodeTagged(tag byte, body []byte) []byte {
	out := make([]byte, 0, len(body)+1)
	out = append(out, tag)
	return append(out, body...)
}

// flipSign8 maps a two's-complement int8 byte onto an unsigned ordering by
// flipping the sign bit, so byte-wise comparison matches signed comparison.
func flipSign8(b byte) byte { return b ^ 0x80 }

const (
	decNegative byte = iota
	decZero
	decPositive
)

// encodeDecimal renders d as an order-preserving byte string: d.D.String()
// is not order-preserving ("10" sorts before "9" byte-wise, and "-5" sorts
// after "3"), so this normalizes the decimal to scientific form — a sign
// byte, a big-endian exponent, then its significant digits with trailing
// zeros trimmed — and bit-complements the body for negative values so
// larger-magnitude negatives (which are numerically smaller) sort first.
func encodeDecimal(d decimal.Decimal) []byte {
	coeff := d.Coefficient()
	sign := coeff.Sign()
	if sign == 0 {
		return []byte{decZero}
	}

	digits := new(big.Int).Abs(coeff).Text(10)
	trimmed := strings.TrimRight(digits, "0")
	trailingZeros := int64(len(digits) - len(trimmed))
	// d == 0.trimmed * 10^exp, the normalized-mantissa exponent.
	exp := int64(d.Exponent()) + trailingZeros + int64(len(trimmed))

	body := make([]byte, 0, 8+len(trimmed)+1)
	body = append(body, encodeI64(exp)...)
	body = append(body, trimmed...)
	body = append(body, 0x00)

	if sign > 0 {
		return append([]byte{decPositive}, body...)
	}
	for i, b := range body {
		body[i] = ^b
	}
	return append([]byte{decNegative}, body...)
}

func encodeI64(v int64) []byte {
	u := uint64(v) ^ (1 << 63)
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, u)
	return buf
}

func encodeI32(v int32) []byte {
	u := uint32(v) ^ (1 << 31)
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, u)
	return buf
}
