// Package serial приводит значения полей записей к виду, пригодному для журнала аудита:
// время — в строку ISO-8601, JSON-значения — как есть, остальное — ошибка.
package serial

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"
)

// ErrNotSerializable — значение нельзя положить в JSON-снимок.
var ErrNotSerializable = errors.New("value is not serializable")

// Layout — формат временных значений в снимках (RFC 3339 с наносекундами).
const Layout = time.RFC3339Nano

// Canonicalize возвращает каноническую форму v.
func Canonicalize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return x.Format(Layout), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return x.Format(Layout), nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return x, nil
	case float32:
		if err := finite(float64(x)); err != nil {
			return nil, err
		}
		return x, nil
	case float64:
		if err := finite(x); err != nil {
			return nil, err
		}
		return x, nil
	case map[string]any:
		return Map(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			c, err := Canonicalize(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = c
		}
		return out, nil
	case []byte:
		// json.Marshal превратил бы это в base64 — для диффа бесполезно
		return nil, fmt.Errorf("%w: %T", ErrNotSerializable, v)
	}
	return fallback(v)
}

// Map канонизирует каждое значение карты. Возвращает новую карту, никогда не nil.
func Map(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		c, err := Canonicalize(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = c
	}
	return out, nil
}

// fallback разбирает именованные типы (type QueryType string и т.п.), указатели,
// типизированные срезы/карты и структуры.
func fallback(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return Canonicalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if err := finite(f); err != nil {
			return nil, err
		}
		return f, nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break // байты ушли бы в base64
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			c, err := Canonicalize(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = c
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			c, err := Canonicalize(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = c
		}
		return out, nil
	case reflect.Struct:
		return viaJSON(v)
	}
	return nil, fmt.Errorf("%w: %T", ErrNotSerializable, v)
}

// viaJSON — структура в том виде, в каком её отдал бы json.Marshal (теги, MarshalJSON).
func viaJSON(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %w", ErrNotSerializable, v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %T: %w", ErrNotSerializable, v, err)
	}
	return out, nil
}

// NaN и ±Inf в JSON не кодируются.
func finite(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: non-finite float %v", ErrNotSerializable, f)
	}
	return nil
}
