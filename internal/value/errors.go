package value

import "github.com/smflabs/sqlglue/internal/errs"

func errNotNumeric(a, b Value) error {
	return errs.Value("operands of kind %s and %s are not numeric", a.Kind(), b.Kind())
}

func errOverflow() error {
	return errs.Value("arithmetic overflow")
}

func errDivByZero() error {
	return errs.Value("division by zero")
}

func errBadOp() error {
	return errs.Value("unsupported arithmetic operator")
}

func errUnimplementedCast(from, to Kind) error {
	return errs.Value("unimplemented cast from %s to %s", from, to)
}

func errParseFailure(s string, to Kind) error {
	return errs.Value("cannot parse %q as %s", s, to)
}

func errKeyKind(k Kind) error {
	return errs.Key("value of kind %s cannot be used as a key", k)
}
