package variant

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// NumberParser converts schema literals to numbers. Implementations never
// fail hard: an unparsable literal returns 0 and ok == false so the caller
// can report it.
type NumberParser interface {
	Int(s string) (n int64, ok bool)
	Float(s string) (f float64, ok bool)
}

// TolerantParser accepts decimal and 0x-prefixed hexadecimal integers and
// ignores trailing garbage after a numeric prefix.
type TolerantParser struct{}

// Tolerant is the default NumberParser.
var Tolerant NumberParser = TolerantParser{}

// Int parses an integer literal.
func (TolerantParser) Int(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	body := s
	if body[0] == '-' || body[0] == '+' {
		neg = body[0] == '-'
		body = body[1:]
	}
	if len(body) > 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		digits := prefix(body[2:], isHexDigit)
		if digits == "" {
			return 0, false
		}
		n, err := strconv.ParseUint(digits, 16, 64)
		if err != nil {
			return 0, false
		}
		if neg {
			return -int64(n), len(digits) == len(body)-2
		}
		return int64(n), len(digits) == len(body)-2
	}
	digits := prefix(body, isDecDigit)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, len(digits) == len(body)
}

// Float parses a floating point literal. Integer literals, including hex,
// are accepted as well.
func (p TolerantParser) Float(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if n, ok := p.Int(s); ok {
		return float64(n), true
	}
	end := 0
	for end < len(s) {
		c := s[end]
		if isDecDigit(c) || c == '.' || ((c == '-' || c == '+') && end == 0) {
			end++
			continue
		}
		break
	}
	if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
		return f, false
	}
	return 0, false
}

// Number parses an integer literal with the tolerant parser.
func Number(s string) int64 {
	n, _ := Tolerant.Int(s)
	return n
}

// Double parses a float literal with the tolerant parser.
func Double(s string) float64 {
	f, _ := Tolerant.Float(s)
	return f
}

// Unsigned parses s as an unsigned 32-bit integer. Negative or malformed
// input yields 0.
func Unsigned(s string) uint32 {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// IsNumber reports whether s is a complete decimal or hex integer literal.
func IsNumber(s string) bool {
	_, ok := Tolerant.Int(s)
	return ok
}

// HexString encodes b as upper case hexadecimal.
func HexString(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// BinaryString decodes a hexadecimal string. An odd-length input is
// left-padded with a zero nibble; invalid digits stop decoding.
func BinaryString(s string) []byte {
	s = strings.TrimSpace(s)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	out := make([]byte, 0, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		b, err := strconv.ParseUint(s[i:i+2], 16, 8)
		if err != nil {
			break
		}
		out = append(out, byte(b))
	}
	return out
}

func prefix(s string, ok func(byte) bool) string {
	i := 0
	for i < len(s) && ok(s[i]) {
		i++
	}
	return s[:i]
}

func isDecDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDecDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
