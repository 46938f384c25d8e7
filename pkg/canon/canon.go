package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

func Canonicalize(v any) ([]byte, error) {
	switch value := v.(type) {
	case json.RawMessage:
		return CanonicalizeJSON([]byte(value))
	case []byte:
		return CanonicalizeJSON(value)
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("canon: marshal input: %w", err)
		}
		return CanonicalizeJSON(raw)
	}
}

func CanonicalizeJSON(input []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()

	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("canon: invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("canon: invalid JSON: trailing data")
	}

	enc := &encoder{}
	if err := enc.writeValue(parsed); err != nil {
		return nil, err
	}
	return []byte(enc.out.String()), nil
}

func SHA256Hex(v any) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

type encoder struct {
	out strings.Builder
}

func (e *encoder) writeValue(v any) error {
	switch val := v.(type) {
	case nil:
		e.out.WriteString("null")
	case bool:
		e.out.WriteString(strconv.FormatBool(val))
	case string:
		e.writeString(val)
	case json.Number:
		return e.writeNumber(val.String())
	case float64:
		return e.writeNumber(strconv.FormatFloat(val, 'g', -1, 64))
	case map[string]any:
		return e.writeObject(val)
	case []any:
		return e.writeArray(val)
	default:
		if f, ok := asFloat64(val); ok {
			return e.writeNumber(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return fmt.Errorf("canon: unsupported JSON type %T", v)
	}
	return nil
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func (e *encoder) writeObject(obj map[string]any) error {
	type entry struct {
		key string
		val any
	}
	entries := make([]entry, 0, len(obj))
	for k, v := range obj {
		entries = append(entries, entry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	e.out.WriteByte('{')
	for i, item := range entries {
		if i > 0 {
			e.out.WriteByte(',')
		}
		e.writeString(item.key)
		e.out.WriteByte(':')
		if err := e.writeValue(item.val); err != nil {
			return err
		}
	}
	e.out.WriteByte('}')
	return nil
}

func (e *encoder) writeArray(arr []any) error {
	e.out.WriteByte('[')
	for i, item := range arr {
		if i > 0 {
			e.out.WriteByte(',')
		}
		if err := e.writeValue(item); err != nil {
			return err
		}
	}
	e.out.WriteByte(']')
	return nil
}

var shortEscapes = map[rune]string{
	'"':  `\"`,
	'\\': `\\`,
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
}

func (e *encoder) writeString(s string) {
	e.out.WriteByte('"')
	for _, r := range s {
		if esc, ok := shortEscapes[r]; ok {
			e.out.WriteString(esc)
			continue
		}
		if r < 0x20 {
			fmt.Fprintf(&e.out, `\u%04x`, r)
			continue
		}
		e.out.WriteRune(r)
	}
	e.out.WriteByte('"')
}

func (e *encoder) writeNumber(raw string) error {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("canon: invalid JSON number: %w", err)
	}
	formatted, err := formatCanonicalNumber(f)
	if err != nil {
		return err
	}
	e.out.WriteString(formatted)
	return nil
}

func formatCanonicalNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.New("canon: invalid JSON number")
	}
	if f == 0 {
		return "0", nil
	}

	negative := math.Signbit(f)
	if negative {
		f = -f
	}

	digits, exponent, err := shortestDigits(f)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if negative {
		out.WriteByte('-')
	}

	switch {
	case exponent <= -7 || exponent >= 21:
		out.WriteByte(digits[0])
		if len(digits) > 1 {
			out.WriteByte('.')
			out.WriteString(digits[1:])
		}
		out.WriteByte('e')
		out.WriteString(strconv.Itoa(exponent))
	case exponent >= len(digits)-1:
		out.WriteString(digits)
		out.WriteString(strings.Repeat("0", exponent-len(digits)+1))
	case exponent >= 0:
		out.WriteString(digits[:exponent+1])
		out.WriteByte('.')
		out.WriteString(digits[exponent+1:])
	default:
		out.WriteString("0.")
		out.WriteString(strings.Repeat("0", -exponent-1))
		out.WriteString(digits)
	}
	return out.String(), nil
}

func shortestDigits(f float64) (string, int, error) {
	rendered := strconv.AppendFloat(nil, f, 'e', -1, 64)
	eAt := bytes.IndexByte(rendered, 'e')
	if eAt < 0 {
		return "", 0, fmt.Errorf("canon: invalid float format: %q", rendered)
	}

	mantissa := rendered[:eAt]
	digits := make([]byte, 0, len(mantissa))
	for _, b := range mantissa {
		if b != '.' {
			digits = append(digits, b)
		}
	}

	exponent, err := strconv.Atoi(string(rendered[eAt+1:]))
	if err != nil {
		return "", 0, fmt.Errorf("canon: invalid float exponent: %w", err)
	}
	return string(digits), exponent, nil
}
