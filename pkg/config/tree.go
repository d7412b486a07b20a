package config

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/NyankoNyan/buildgen/pkg/errors"
)

// Helpers over the generic trees produced by the yaml, json and toml
// decoders. Each decoder has its own map, slice and number types.

func asMap(node any) (map[string]any, bool) {
	switch m := node.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

func asList(node any) ([]any, bool) {
	switch l := node.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

func isScalar(node any) bool {
	if node == nil {
		return false
	}
	if _, ok := asMap(node); ok {
		return false
	}
	_, ok := asList(node)
	return !ok
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// scalarText renders a scalar node as text, used for ids and names that
// documents may write as numbers.
func scalarText(node any) (string, bool) {
	switch v := node.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}

// path tracks the location of a node for error messages.
type path string

func (p path) key(k string) path {
	if p == "" {
		return path(k)
	}
	return p + "." + path(k)
}

func (p path) index(i int) path {
	return path(fmt.Sprintf("%s[%d]", p, i))
}

func (p path) errorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "%s", msg)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "%s: %s", p, msg)
}

func (p path) wrap(err error) error {
	if p == "" {
		return err
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInvalidConfig
	}
	return errors.New(code, "%s: %s", p, errors.UserMessage(err))
}
