package value

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// promotedKind names the common representation two numeric operands are
// lifted to before an arithmetic or comparison operation, mirroring
// spec.md §3.1's promotion order: Decimal beats float beats integer.
// Integers of up to 64 bits are computed in int64 with explicit overflow
// checks; 128-bit operands are computed in math/big.
type promotedKind uint8

const (
	promotedInt64 promotedKind = iota
	promotedBigInt
	promotedFloat
	promotedDecimal
)

type promoted struct {
	i   int64
	big *big.Int
	f   float64
	dec decimal.Decimal
}

// promote lifts a and b to the lowest common numeric representation able to
// hold both without loss, returning an error if either operand isn't
// numeric.
func promote(a, b Value) (pa, pb promoted, kind promotedKind, err error) {
	if !a.Kind().IsNumeric() || !b.Kind().IsNumeric() {
		return promoted{}, promoted{}, 0, errNotNumeric(a, b)
	}
	if a.Kind() == KindDecimal || b.Kind() == KindDecimal {
		da, e1 := toDecimal(a)
		db, e2 := toDecimal(b)
		if e1 != nil {
			return promoted{}, promoted{}, 0, e1
		}
		if e2 != nil {
			return promoted{}, promoted{}, 0, e2
		}
		return promoted{dec: da}, promoted{dec: db}, promotedDecimal, nil
	}
	if a.Kind().IsFloat() || b.Kind().IsFloat() {
		fa, e1 := toFloat64(a)
		fb, e2 := toFloat64(b)
		if e1 != nil {
			return promoted{}, promoted{}, 0, e1
		}
		if e2 != nil {
			return promoted{}, promoted{}, 0, e2
		}
		return promoted{f: fa}, promoted{f: fb}, promotedFloat, nil
	}
	if a.Kind() == KindI128 || a.Kind() == KindU128 || b.Kind() == KindI128 || b.Kind() == KindU128 {
		ba := toBigInt(a)
		bb := toBigInt(b)
		return promoted{big: ba}, promoted{big: bb}, promotedBigInt, nil
	}
	ia, e1 := toInt64(a)
	ib, e2 := toInt64(b)
	if e1 != nil {
		return promoted{}, promoted{}, 0, e1
	}
	if e2 != nil {
		return promoted{}, promoted{}, 0, e2
	}
	return promoted{i: ia}, promoted{i: ib}, promotedInt64, nil
}

func toDecimal(v Value) (decimal.Decimal, error) {
	switch t := v.(type) {
	case Decimal:
		return t.D, nil
	case F32:
		return decimal.NewFromFloat(float64(t)), nil
	case F64:
		return decimal.NewFromFloat(float64(t)), nil
	default:
		i, err := toInt64OrBig(v)
		if err != nil {
			return decimal.Decimal{}, err
		}
		if i.big != nil {
			return decimal.NewFromBigInt(i.big, 0), nil
		}
		return decimal.NewFromInt(i.i), nil
	}
}

func toFloat64(v Value) (float64, error) {
	switch t := v.(type) {
	case F32:
		return float64(t), nil
	case F64:
		return float64(t), nil
	case Decimal:
		f, _ := t.D.Float64()
		return f, nil
	default:
		i, err := toInt64OrBig(v)
		if err != nil {
			return 0, err
		}
		if i.big != nil {
			f, _ := new(big.Float).SetInt(i.big).Float64()
			return f, nil
		}
		return float64(i.i), nil
	}
}

type int64OrBig struct {
	i   int64
	big *big.Int
}

func toInt64OrBig(v Value) (int64OrBig, error) {
	switch t := v.(type) {
	case I8:
		return int64OrBig{i: int64(t)}, nil
	case I16:
		return int64OrBig{i: int64(t)}, nil
	case I32:
		return int64OrBig{i: int64(t)}, nil
	case I64:
		return int64OrBig{i: int64(t)}, nil
	case U8:
		return int64OrBig{i: int64(t)}, nil
	case U16:
		return int64OrBig{i: int64(t)}, nil
	case U32:
		return int64OrBig{i: int64(t)}, nil
	case U64:
		return int64OrBig{i: int64(t)}, nil
	case I128:
		return int64OrBig{big: t.V}, nil
	case U128:
		return int64OrBig{big: t.V}, nil
	default:
		return int64OrBig{}, errNotNumeric(v, v)
	}
}

func toBigInt(v Value) *big.Int {
	i, err := toInt64OrBig(v)
	if err != nil {
		return big.NewInt(0)
	}
	if i.big != nil {
		return i.big
	}
	return big.NewInt(i.i)
}

func toInt64(v Value) (int64, error) {
	i, err := toInt64OrBig(v)
	if err != nil {
		return 0, err
	}
	if i.big != nil {
		if !i.big.IsInt64() {
			return 0, errOverflow()
		}
		return i.big.Int64(), nil
	}
	return i.i, nil
}

// Op is a binary arithmetic operator.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

// Arith evaluates a binary arithmetic operation on two numeric Values,
// promoting to the narrowest common representation and reporting overflow
// as an error uniformly (spec.md §9: "adopt error-on-overflow uniformly").
// The result is returned at the promoted kind's natural width: Decimal for
// decimal operands, F64 for float operands, I128 when either operand is a
// 128-bit integer, I64 otherwise.
func Arith(op Op, a, b Value) (Value, error) {
	pa, pb, kind, err := promote(a, b)
	if err != nil {
		return nil, err
	}
	switch kind {
	case promotedDecimal:
		return arithDecimal(op, pa.dec, pb.dec)
	case promotedFloat:
		return arithFloat(op, pa.f, pb.f)
	case promotedBigInt:
		return arithBigInt(op, pa.big, pb.big)
	default:
		return arithInt64(op, pa.i, pb.i)
	}
}

func arithDecimal(op Op, a, b decimal.Decimal) (Value, error) {
	switch op {
	case OpAdd:
		return NewDecimal(a.Add(b)), nil
	case OpSub:
		return NewDecimal(a.Sub(b)), nil
	case OpMul:
		return NewDecimal(a.Mul(b)), nil
	case OpDiv:
		if b.IsZero() {
			return nil, errDivByZero()
		}
		return NewDecimal(a.Div(b)), nil
	case OpMod:
		if b.IsZero() {
			return nil, errDivByZero()
		}
		return NewDecimal(a.Mod(b)), nil
	default:
		return nil, errBadOp()
	}
}

func arithFloat(op Op, a, b float64) (Value, error) {
	switch op {
	case OpAdd:
		return F64(a + b), nil
	case OpSub:
		return F64(a - b), nil
	case OpMul:
		return F64(a * b), nil
	case OpDiv:
		if b == 0 {
			return nil, errDivByZero()
		}
		return F64(a / b), nil
	case OpMod:
		if b == 0 {
			return nil, errDivByZero()
		}
		return F64(floatMod(a, b)), nil
	default:
		return nil, errBadOp()
	}
}

func floatMod(a, b float64) float64 {
	q := float64(int64(a / b))
	return a - q*b
}

func arithBigInt(op Op, a, b *big.Int) (Value, error) {
	r := new(big.Int)
	switch op {
	case OpAdd:
		r.Add(a, b)
	case OpSub:
		r.Sub(a, b)
	case OpMul:
		r.Mul(a, b)
	case OpDiv:
		if b.Sign() == 0 {
			return nil, errDivByZero()
		}
		r.Quo(a, b)
	case OpMod:
		if b.Sign() == 0 {
			return nil, errDivByZero()
		}
		r.Rem(a, b)
	default:
		return nil, errBadOp()
	}
	if !fitsI128(r) {
		return nil, errOverflow()
	}
	return NewI128(r), nil
}

func arithInt64(op Op, a, b int64) (Value, error) {
	var r int64
	switch op {
	case OpAdd:
		r = a + b
		if (r-b != a) || ((a > 0 && b > 0 && r < 0) || (a < 0 && b < 0 && r > 0)) {
			return nil, errOverflow()
		}
	case OpSub:
		r = a - b
		if (r+b != a) || ((a >= 0 && b < 0 && r < 0) || (a < 0 && b > 0 && r > 0)) {
			return nil, errOverflow()
		}
	case OpMul:
		if a != 0 && (a*b)/a != b {
			return nil, errOverflow()
		}
		r = a * b
	case OpDiv:
		if b == 0 {
			return nil, errDivByZero()
		}
		r = a / b
	case OpMod:
		if b == 0 {
			return nil, errDivByZero()
		}
		r = a % b
	default:
		return nil, errBadOp()
	}
	return I64(r), nil
}

var i128Min = new(big.Int).Lsh(big.NewInt(-1), 127)
var i128Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

func fitsI128(v *big.Int) bool {
	return v.Cmp(i128Min) >= 0 && v.Cmp(i128Max) <= 0
}
