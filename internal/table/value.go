package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of a non-null Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Value is a single typed cell. The zero Value is a null string.
//
// Integer numbers keep their exact int64 alongside the float so that long
// identifiers such as offense IDs survive a read/write cycle.
type Value struct {
	kind  Kind
	valid bool
	isInt bool
	s     string
	i     int64
	n     float64
	d     time.Time
}

// Null returns a null value of the given kind.
func Null(k Kind) Value { return Value{kind: k} }

// String returns a non-null string value.
func String(s string) Value { return Value{kind: KindString, valid: true, s: s} }

// Number returns a number value. NaN is stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Null(KindNumber)
	}
	return Value{kind: KindNumber, valid: true, n: f}
}

// Integer returns an exact integer number value.
func Integer(i int64) Value {
	return Value{kind: KindNumber, valid: true, isInt: true, i: i, n: float64(i)}
}

// Date returns a date value truncated to the calendar day in UTC.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Null(KindDate)
	}
	y, m, d := t.Date()
	return Value{kind: KindDate, valid: true, d: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return !v.valid }
func (v Value) Str() string    { return v.s }
func (v Value) Float() float64 { return v.n }
func (v Value) Time() time.Time {
	return v.d
}

// Int returns the exact integer a number holds. ok is false for null,
// non-number and fractional values, and for floats outside the int64 range.
func (v Value) Int() (i int64, ok bool) {
	if !v.valid || v.kind != KindNumber {
		return 0, false
	}
	if v.isInt {
		return v.i, true
	}
	if v.n != math.Trunc(v.n) || v.n < math.MinInt64 || v.n >= math.MaxInt64 {
		return 0, false
	}
	return int64(v.n), true
}

// Equal reports whether two values are non-null, of the same kind and equal.
// Null never equals anything, including another null.
func (v Value) Equal(o Value) bool {
	if !v.valid || !o.valid || v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		a, aok := v.Int()
		b, bok := o.Int()
		if aok && bok {
			return a == b
		}
		return v.n == o.n
	case KindDate:
		return v.d.Equal(o.d)
	default:
		return v.s == o.s
	}
}

// Compare orders two values of the same kind. ok is false when either side
// is null or the kinds differ.
func (v Value) Compare(o Value) (cmp int, ok bool) {
	if !v.valid || !o.valid || v.kind != o.kind {
		return 0, false
	}
	switch v.kind {
	case KindNumber:
		a, aok := v.Int()
		b, bok := o.Int()
		if aok && bok {
			return cmpInt(a, b), true
		}
		switch {
		case v.n < o.n:
			return -1, true
		case v.n > o.n:
			return 1, true
		}
		return 0, true
	case KindDate:
		return v.d.Compare(o.d), true
	default:
		return strings.Compare(v.s, o.s), true
	}
}

// Format renders the value the way WriteCSV does. Null renders empty.
func (v Value) Format() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case KindNumber:
		if v.isInt {
			return strconv.FormatInt(v.i, 10)
		}
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindDate:
		return v.d.Format(DateLayout)
	default:
		return v.s
	}
}

// key is a stable identity used for hashing in Distinct and InnerJoin. Two
// values share a key exactly when Equal holds, except that nulls of the same
// kind also share one so Distinct can collapse them; joins skip nulls first.
func (v Value) key() string {
	prefix := strconv.Itoa(int(v.kind)) + ":"
	if !v.valid {
		return "\x00null:" + prefix
	}
	if i, ok := v.Int(); ok {
		return prefix + strconv.FormatInt(i, 10)
	}
	return prefix + v.Format()
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// DateLayout is the canonical rendering of date values.
const DateLayout = "2006-01-02"
