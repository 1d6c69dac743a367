package value

import (
	"time"
)

// PartialCompare orders a against b the way spec.md §3.1 describes: ordering
// is total within each numeric family and between compatible temporal types,
// and undefined (ok=false) between incomparable variants (e.g. a Map against
// an Int). NULL compares incomparable with everything, including another
// NULL — callers that need NULL-aware ORDER BY semantics use OrderCompare
// below instead.
func PartialCompare(a, b Value) (cmp int, ok bool) {
	if IsNull(a) || IsNull(b) {
		return 0, false
	}
	if a.Kind().IsNumeric() && b.Kind().IsNumeric() {
		return compareNumeric(a, b)
	}
	if a.Kind().IsTemporal() && b.Kind().IsTemporal() && a.Kind() == b.Kind() {
		return compareTemporal(a, b)
	}
	if a.Kind() != b.Kind() {
		return 0, false
	}
	switch av := a.(type) {
	case Bool:
		bv := b.(Bool)
		return boolCmp(bool(av), bool(bv)), true
	case Str:
		bv := b.(Str)
		return strCmp(string(av), string(bv)), true
	case Bytea:
		bv := b.(Bytea)
		return bytesCmp([]byte(av), []byte(bv)), true
	case Uuid:
		bv := b.(Uuid)
		return bytesCmp(av.U[:], bv.U[:]), true
	case Inet:
		bv := b.(Inet)
		return av.Addr.Compare(bv.Addr), true
	default:
		return 0, false
	}
}

func boolCmp(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func strCmp(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func bytesCmp(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func compareTemporal(a, b Value) (int, bool) {
	switch av := a.(type) {
	case Date:
		bv := b.(Date)
		return timeCmp(av.T, bv.T), true
	case Time:
		bv := b.(Time)
		return timeCmp(av.T, bv.T), true
	case Timestamp:
		bv := b.(Timestamp)
		return timeCmp(av.T, bv.T), true
	case Interval:
		bv := b.(Interval)
		return intervalCmp(av, bv)
	default:
		return 0, false
	}
}

func timeCmp(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// intervalCmp orders two intervals only when they carry the same
// month/microsecond split proportions; "1 MONTH" and "30 DAYS" are not
// comparable since a month's length in days is ambiguous, matching spec.md's
// "otherwise partial_cmp yields incomparable" rule.
func intervalCmp(a, b Interval) (int, bool) {
	if a.Months != 0 || b.Months != 0 {
		if a.Months != b.Months || a.Micros != b.Micros {
			if a.Micros == 0 && b.Micros == 0 {
				return intCmp64(int64(a.Months), int64(b.Months)), true
			}
			return 0, false
		}
		return 0, true
	}
	return intCmp64(a.Micros, b.Micros), true
}

func intCmp64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareNumeric promotes both operands to a common representation the same
// way arith.go does, then compares.
func compareNumeric(a, b Value) (int, bool) {
	pa, pb, kind, err := promote(a, b)
	if err != nil {
		return 0, false
	}
	switch kind {
	case promotedDecimal:
		return pa.dec.Cmp(pb.dec), true
	case promotedFloat:
		switch {
		case pa.f < pb.f:
			return -1, true
		case pa.f > pb.f:
			return 1, true
		default:
			return 0, true
		}
	case promotedBigInt:
		return pa.big.Cmp(pb.big), true
	case promotedInt64:
		return intCmp64(pa.i, pb.i), true
	default:
		return 0, false
	}
}

// OrderCompare implements the executor's ORDER BY comparator: NULL sorts
// before every non-NULL value in ascending order (spec.md §9's NULLS FIRST
// decision), and two NULLs compare equal.
func OrderCompare(a, b Value) int {
	an, bn := IsNull(a), IsNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	if cmp, ok := PartialCompare(a, b); ok {
		return cmp
	}
	return strCmp(a.Kind().String(), b.Kind().String())
}
