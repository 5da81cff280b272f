package client

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Params is an insertion-ordered set of key/value pairs. It carries export
// filters, export definitions and export file data, whose shape is defined by
// the caller. Keys keep the position of their first insertion.
type Params struct {
	keys   []string
	values map[string]any
}

func NewParams() *Params {
	return &Params{values: map[string]any{}}
}

// ParamsFromMap copies m into a new Params, keys in lexical order.
func ParamsFromMap(m map[string]any) *Params {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := NewParams()
	for _, k := range keys {
		p.Set(k, m[k])
	}

	return p
}

func (p *Params) Set(key string, value any) *Params {
	if p.values == nil {
		p.values = map[string]any{}
	}

	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value

	return p
}

func (p *Params) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}

	v, ok := p.values[key]

	return v, ok
}

func (p *Params) Delete(key string) {
	if p == nil {
		return
	}

	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)

	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

func (p *Params) Len() int {
	if p == nil {
		return 0
	}

	return len(p.keys)
}

func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}

	return append([]string(nil), p.keys...)
}

// Each calls fn for every pair in insertion order.
func (p *Params) Each(fn func(key string, value any)) {
	if p == nil {
		return
	}

	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}

// MarshalJSON encodes the pairs as a JSON object in insertion order.
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := jsonAPI.Marshal(k)
		if err != nil {
			return nil, err
		}

		value, err := jsonAPI.Marshal(p.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode value of %q: %w", k, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// EncodeQuery serialises p into a query string. Keys and values are
// percent-encoded per RFC 3986, so a space becomes %20. Pairs with a nil value
// are skipped.
func EncodeQuery(p *Params) string {
	if p.Len() == 0 {
		return ""
	}

	parts := make([]string, 0, p.Len())

	p.Each(func(key string, value any) {
		if value == nil {
			return
		}
		parts = append(parts, rawURLEncode(key)+"="+rawURLEncode(formatQueryValue(value)))
	})

	return strings.Join(parts, "&")
}

func rawURLEncode(s string) string {
	// QueryEscape already escapes a literal '+' as %2B.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func formatQueryValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// withQuery appends an encoded query to path, if there is one.
func withQuery(path string, p *Params) string {
	q := EncodeQuery(p)
	if q == "" {
		return path
	}

	return path + "?" + q
}
