package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/saikiran76/SwipeAI/constants"
	"github.com/saikiran76/SwipeAI/internal/common"
	"github.com/saikiran76/SwipeAI/internal/entity"
	"github.com/saikiran76/SwipeAI/internal/schema"
)

// Response is a normalized machine response. Exactly one of Record and Graph
// is meaningful: Graph is set when the service already answered with the
// {invoices, products, customers} shape. A graph with a mistyped field is
// rejected with a *common.SchemaViolationError.
type Response struct {
	Record Record
	Graph  *entity.ExtractedData
}

// Normalize turns a raw service reply into a Response. The reply may carry
// code fences or prose around a single JSON object. Parsing is attempted as
// is, then once more after a bounded structural repair; anything else is a
// *common.MalformedResponseError.
//
// Normalize is pure: the same input always yields the same Response.
func Normalize(raw string) (Response, error) {
	bodies := sliceJSON(stripFences(raw))
	if len(bodies) == 0 {
		return Response{}, common.NewMalformedResponseError(raw, errors.New("no JSON object found"))
	}

	var (
		v   any
		err error
	)
	for _, body := range bodies {
		if v, err = decodeOrRepair(body); err == nil {
			break
		}
	}
	if err != nil {
		return Response{}, common.NewMalformedResponseError(raw, err)
	}

	obj, err := firstObject(v)
	if err != nil {
		return Response{}, common.NewMalformedResponseError(raw, err)
	}

	if isGraph(obj) {
		validator, err := graphSchema()
		if err != nil {
			return Response{}, err
		}
		if err := validator.Types(obj); err != nil {
			return Response{}, err
		}
		g, err := decodeGraph(obj)
		if err != nil {
			return Response{}, common.NewMalformedResponseError(raw, err)
		}
		return Response{Graph: g}, nil
	}
	return Response{Record: buildRecord(obj)}, nil
}

var graphSchema = sync.OnceValues(schema.New)

func decodeOrRepair(body string) (any, error) {
	v, err := decode(body)
	if err == nil {
		return v, nil
	}
	return decode(repair(body))
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// sliceJSON returns the candidate JSON bodies in the order they should be
// tried: the span from the first '{' to the last '}', then the span from the
// first '[' to the last ']'. The array span goes first only when its bracket
// comes first and opens an object, so a bracketed word in leading prose does
// not win. An unterminated value is kept to the end so repair can close it.
func sliceJSON(s string) []string {
	obj := span(s, '{', '}')
	arr := span(s, '[', ']')
	if arr == "" {
		if obj == "" {
			return nil
		}
		return []string{obj}
	}
	if obj == "" {
		return []string{arr}
	}
	if strings.IndexByte(s, '[') < strings.IndexByte(s, '{') &&
		strings.HasPrefix(strings.TrimLeft(arr[1:], " \t\r\n"), "{") {
		return []string{arr, obj}
	}
	return []string{obj, arr}
}

func span(s string, opener, closer byte) string {
	open := strings.IndexByte(s, opener)
	if open < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, closer)
	if end < open {
		return s[open:]
	}
	return s[open : end+1]
}

func decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// repair drops trailing commas and stray closers, terminates an open string
// and closes unbalanced brackets. It does not invent values.
func repair(s string) string {
	out := make([]byte, 0, len(s)+8)
	var stack []byte
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			at := bytes.LastIndexByte(stack, c)
			if at < 0 {
				continue
			}
			for len(stack)-1 > at {
				out = append(trimComma(out), stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			stack = stack[:at]
			out = trimComma(out)
		}
		out = append(out, c)
	}
	if inString {
		out = append(out, '"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		out = append(trimComma(out), stack[i])
	}
	return string(out)
}

func trimComma(b []byte) []byte {
	b = bytes.TrimRight(b, " \t\r\n")
	return bytes.TrimSuffix(b, []byte(","))
}

func firstObject(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case []any:
		for _, el := range t {
			if m, ok := el.(map[string]any); ok {
				return m, nil
			}
		}
		return nil, errors.New("array holds no JSON object")
	default:
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
}

func isGraph(obj map[string]any) bool {
	_, inv := obj["invoices"]
	_, prod := obj["products"]
	_, cust := obj["customers"]
	return inv && (prod || cust)
}

func decodeGraph(obj map[string]any) (*entity.ExtractedData, error) {
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var g entity.ExtractedData
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, fmt.Errorf("decode invoice graph: %w", err)
	}
	return &g, nil
}

func buildRecord(obj map[string]any) Record {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := Record{
		Scalars: make(map[string]string, len(scalarFields)),
		Items:   make(map[string][]string, len(itemFields)),
	}
	for _, f := range scalarFields {
		if v, ok := lookup(obj, keys, f); ok {
			if s, ok := scalarString(v); ok {
				rec.Scalars[f.Key] = s
				continue
			}
		}
		rec.Scalars[f.Key] = f.Default
	}

	longest := 0
	for _, f := range itemFields {
		var vals []string
		if v, ok := lookup(obj, keys, f); ok {
			vals = itemStrings(v, f.Default)
		}
		rec.Items[f.Key] = vals
		longest = max(longest, len(vals))
	}
	for _, f := range itemFields {
		vals := rec.Items[f.Key]
		for len(vals) < longest {
			vals = append(vals, f.Default)
		}
		if vals == nil {
			vals = []string{}
		}
		rec.Items[f.Key] = vals
	}
	return rec
}

// lookup finds f by its exact key, then by any alias, comparing letters only
// and ignoring case. keys must be sorted so the result is stable.
func lookup(obj map[string]any, keys []string, f field) (any, bool) {
	if v, ok := obj[f.Key]; ok {
		return v, true
	}
	wanted := make([]string, 0, 1+len(f.Aliases))
	wanted = append(wanted, constants.LettersOnly(f.Key))
	for _, a := range f.Aliases {
		wanted = append(wanted, constants.LettersOnly(a))
	}
	for _, w := range wanted {
		for _, k := range keys {
			if constants.LettersOnly(k) == w {
				return obj[k], true
			}
		}
	}
	return nil, false
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != "" && !strings.EqualFold(s, "null")
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	case []any:
		if len(t) > 0 {
			return scalarString(t[0])
		}
	}
	return "", false
}

// itemStrings reads a per-item field. A scalar is treated as a one-element
// array; null elements take the filler.
func itemStrings(v any, filler string) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(t))
		for _, el := range t {
			s, ok := scalarString(el)
			if !ok {
				s = filler
			}
			out = append(out, s)
		}
		return out
	default:
		if s, ok := scalarString(t); ok {
			return []string{s}
		}
		return nil
	}
}
