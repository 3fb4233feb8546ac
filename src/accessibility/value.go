package accessibility

import (
	"strconv"
	"strings"
)

// ValueKind tags the dynamic type of an attribute value.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindString
	KindBool
	KindInt
)

// Value is an attribute value as read from the platform.
type Value struct {
	kind ValueKind
	s    string
	b    bool
	i    int64
}

func String(s string) Value { return Value{kind: KindString, s: s} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }

func (v Value) Kind() ValueKind { return v.kind }

// Text returns the string payload; ok is false for non-string values.
func (v Value) Text() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) Truth() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Number() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// NonEmptyText returns the string payload when it has visible characters.
func (v Value) NonEmptyText() (string, bool) {
	s, ok := v.Text()
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	default:
		return "<none>"
	}
}
