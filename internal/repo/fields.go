package repo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Приведение значений полей из map[string]any (как пришло из JSON или из кода) к типам колонок.

func badType(col string, v any, want string) error {
	return fmt.Errorf("%w: %s: want %s, got %T", ErrInvalidField, col, want, v)
}

func readOnly(col string) error {
	return fmt.Errorf("%w: %s is not writable", ErrInvalidField, col)
}

func asString(col string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", badType(col, v, "string")
	}
	return s, nil
}

func asOptString(col string, v any) (*string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *string:
		return x, nil
	case string:
		return &x, nil
	}
	return nil, badType(col, v, "string or null")
}

func asBool(col string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, badType(col, v, "bool")
	}
	return b, nil
}

func asUint(col string, v any) (uint, error) {
	switch x := v.(type) {
	case uint:
		return x, nil
	case uint32:
		return uint(x), nil
	case uint64:
		return uint(x), nil
	case int:
		if x >= 0 {
			return uint(x), nil
		}
	case int64:
		if x >= 0 {
			return uint(x), nil
		}
	case float64:
		// encoding/json без UseNumber
		if x >= 0 && x == math.Trunc(x) && x <= math.MaxUint32 {
			return uint(x), nil
		}
	case json.Number:
		if n, err := strconv.ParseUint(x.String(), 10, 64); err == nil {
			return uint(n), nil
		}
	}
	return 0, badType(col, v, "non-negative integer")
}

func asOptUint(col string, v any) (*uint, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *uint:
		return x, nil
	}
	n, err := asUint(col, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
