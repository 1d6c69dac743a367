package value

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cast converts v to the representation named by target. Pairs documented
// in spec.md §3.1 (numeric widening/narrowing, any-numeric<->Str,
// Str<->Date/Time/Timestamp, Str<->Uuid, Str<->Bool) are total save for
// genuine parse/overflow failures; anything else returns an errs.Value
// "unimplemented cast" error, the same ImpossibleCast/UnimplementedCast
// split spec.md calls for.
func Cast(v Value, target Kind) (Value, error) {
	if v.Kind() == target {
		return v, nil
	}
	if IsNull(v) {
		return Null{}, nil
	}
	if target.IsNumeric() {
		return castToNumeric(v, target)
	}
	switch target {
	case KindStr:
		return Str(textOf(v)), nil
	case KindBool:
		return castToBool(v)
	case KindDate:
		return castToDate(v)
	case KindTime:
		return castToTime(v)
	case KindTimestamp:
		return castToTimestamp(v)
	case KindUuid:
		return castToUuid(v)
	default:
		return nil, errUnimplementedCast(v.Kind(), target)
	}
}

// textOf renders the plain textual form used by string casts, distinct from
// SQL() which quotes/escapes for use as a literal.
func textOf(v Value) string {
	switch t := v.(type) {
	case Null:
		return ""
	case Str:
		return string(t)
	case Bytea:
		return string(t)
	case Date:
		return t.T.Format("2006-01-02")
	case Time:
		return t.T.Format("15:04:05.999999999")
	case Timestamp:
		return t.T.Format("2006-01-02 15:04:05.999999999")
	case Decimal:
		return t.D.String()
	case Uuid:
		return t.U.String()
	case Inet:
		return t.Addr.String()
	default:
		return v.SQL()
	}
}

func castToNumeric(v Value, target Kind) (Value, error) {
	switch s := v.(type) {
	case Str:
		return parseNumericString(string(s), target)
	case Bool:
		n := int64(0)
		if s {
			n = 1
		}
		return narrowInt(n, target)
	}
	if !v.Kind().IsNumeric() {
		return nil, errUnimplementedCast(v.Kind(), target)
	}
	if target == KindDecimal {
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		return NewDecimal(d), nil
	}
	if target.IsFloat() {
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		if target == KindF32 {
			return F32(f), nil
		}
		return F64(f), nil
	}
	if target == KindI128 || target == KindU128 {
		return NewI128(toBigInt(v)), nil
	}
	i, err := toInt64(v)
	if err != nil {
		return nil, err
	}
	return narrowInt(i, target)
}

func narrowInt(i int64, target Kind) (Value, error) {
	switch target {
	case KindI8:
		if i < -128 || i > 127 {
			return nil, errOverflow()
		}
		return I8(i), nil
	case KindI16:
		if i < -32768 || i > 32767 {
			return nil, errOverflow()
		}
		return I16(i), nil
	case KindI32:
		if i < -2147483648 || i > 2147483647 {
			return nil, errOverflow()
		}
		return I32(i), nil
	case KindI64:
		return I64(i), nil
	case KindU8:
		if i < 0 || i > 255 {
			return nil, errOverflow()
		}
		return U8(i), nil
	case KindU16:
		if i < 0 || i > 65535 {
			return nil, errOverflow()
		}
		return U16(i), nil
	case KindU32:
		if i < 0 || i > 4294967295 {
			return nil, errOverflow()
		}
		return U32(i), nil
	case KindU64:
		if i < 0 {
			return nil, errOverflow()
		}
		return U64(i), nil
	default:
		return nil, errUnimplementedCast(KindI64, target)
	}
}

func parseNumericString(s string, target Kind) (Value, error) {
	s = strings.TrimSpace(s)
	if target == KindDecimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errParseFailure(s, target)
		}
		return NewDecimal(d), nil
	}
	if target.IsFloat() {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errParseFailure(s, target)
		}
		if target == KindF32 {
			return F32(f), nil
		}
		return F64(f), nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errParseFailure(s, target)
	}
	return narrowInt(i, target)
}

func castToBool(v Value) (Value, error) {
	switch s := v.(type) {
	case Str:
		switch strings.ToLower(strings.TrimSpace(string(s))) {
		case "true", "t", "1":
			return Bool(true), nil
		case "false", "f", "0":
			return Bool(false), nil
		default:
			return nil, errParseFailure(string(s), KindBool)
		}
	default:
		if v.Kind().IsInteger() {
			i, _ := toInt64(v)
			return Bool(i != 0), nil
		}
		return nil, errUnimplementedCast(v.Kind(), KindBool)
	}
}

func castToDate(v Value) (Value, error) {
	s, ok := v.(Str)
	if !ok {
		if ts, ok := v.(Timestamp); ok {
			return NewDate(ts.T), nil
		}
		return nil, errUnimplementedCast(v.Kind(), KindDate)
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(string(s)))
	if err != nil {
		return nil, errParseFailure(string(s), KindDate)
	}
	return NewDate(t), nil
}

func castToTime(v Value) (Value, error) {
	s, ok := v.(Str)
	if !ok {
		return nil, errUnimplementedCast(v.Kind(), KindTime)
	}
	for _, layout := range []string{"15:04:05.999999999", "15:04:05", "15:04"} {
		if t, err := time.Parse(layout, strings.TrimSpace(string(s))); err == nil {
			return Time{T: t}, nil
		}
	}
	return nil, errParseFailure(string(s), KindTime)
}

func castToTimestamp(v Value) (Value, error) {
	switch s := v.(type) {
	case Str:
		for _, layout := range []string{"2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999999Z07:00", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(string(s))); err == nil {
				return Timestamp{T: t}, nil
			}
		}
		return nil, errParseFailure(string(s), KindTimestamp)
	case Date:
		return Timestamp{T: s.T}, nil
	default:
		return nil, errUnimplementedCast(v.Kind(), KindTimestamp)
	}
}

func castToUuid(v Value) (Value, error) {
	s, ok := v.(Str)
	if !ok {
		return nil, errUnimplementedCast(v.Kind(), KindUuid)
	}
	u, err := uuid.Parse(strings.TrimSpace(string(s)))
	if err != nil {
		return nil, errParseFailure(string(s), KindUuid)
	}
	return NewUuid(u), nil
}
