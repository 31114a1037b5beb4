package resolver

import (
	"encoding/json"
	"strconv"
)

// Kind is the type of a runtime [Value].
type Kind int

const (
	KindNumber Kind = iota // Number
	KindString             // String
)

// String returns the name of the [Kind].
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a concrete runtime value, the result of resolving an expression.
//
// There are only two types of value in nero, integers and strings, and no
// coercion happens between them except when a number is spliced into a string.
type Value struct {
	Text   string // The text of a String value
	Kind   Kind   // Which kind of value this is
	Number int64  // The value of a Number
}

// NumberValue returns a Number [Value].
func NumberValue(n int64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// StringValue returns a String [Value].
func StringValue(s string) Value {
	return Value{Kind: KindString, Text: s}
}

// IsString reports whether v is a String value.
func (v Value) IsString() bool {
	return v.Kind == KindString
}

// String returns the text form of the value, numbers are formatted in decimal.
func (v Value) String() string {
	if v.Kind == KindNumber {
		return strconv.FormatInt(v.Number, 10)
	}
	return v.Text
}

// MarshalJSON implements [json.Marshaler] for a [Value], numbers are encoded
// as JSON numbers and strings as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindNumber {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Text)
}
