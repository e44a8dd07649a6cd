package storage

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/modelgate/core/convention"
)

// toDB converts a validated JSON value to a driver argument. Integer columns
// only accept values that are exactly representable as int64.
func toDB(val any, c convention.Column) (any, error) {
	if val == nil {
		return nil, nil
	}

	switch c.Kind {
	case convention.KindInteger, convention.KindBigInt:
		n, err := toInt64(val)
		if err != nil {
			return nil, &QueryError{Field: c.Name, Reason: err.Error()}
		}
		if n != nil {
			return n, nil
		}
	case convention.KindDate:
		if s, ok := val.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t.UTC(), nil
			}
		}
	}

	return val, nil
}

// toInt64 returns nil for values that are not numbers.
func toInt64(val any) (any, error) {
	switch v := val.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return exactInt64(new(big.Float).SetFloat64(v), strconv.FormatFloat(v, 'g', -1, 64))
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, _, err := big.ParseFloat(v.String(), 10, 256, big.ToNearestEven)
		if err != nil {
			return nil, fmt.Errorf("%s is not a number", v)
		}
		return exactInt64(f, v.String())
	}
	return nil, nil
}

func exactInt64(f *big.Float, raw string) (any, error) {
	if !f.IsInt() {
		return nil, fmt.Errorf("%s is not an integer", raw)
	}
	n, acc := f.Int64()
	if acc != big.Exact {
		return nil, fmt.Errorf("%s is out of the 64-bit integer range", raw)
	}
	return n, nil
}

// fromDB normalizes a scanned value to the JSON shape of its column.
func fromDB(val any, c convention.Column) any {
	if val == nil {
		return nil
	}
	if b, ok := val.([]byte); ok {
		val = string(b)
	}

	switch c.Kind {
	case convention.KindBoolean:
		switch v := val.(type) {
		case bool:
			return v
		case int64:
			return v != 0
		case string:
			return v == "1" || strings.EqualFold(v, "true")
		}
	case convention.KindInteger, convention.KindBigInt:
		switch v := val.(type) {
		case int64:
			return v
		case int32:
			return int64(v)
		case float64:
			return int64(v)
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	case convention.KindDate:
		if t, ok := val.(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano)
		}
	default:
		if s, ok := val.(string); ok {
			return s
		}
		return fmt.Sprint(val)
	}

	return val
}

// parseValue converts a query-string value for comparison with column c.
func parseValue(raw string, c convention.Column) (any, error) {
	switch c.Kind {
	case convention.KindInteger, convention.KindBigInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &QueryError{Field: c.Name, Reason: fmt.Sprintf("%q is not an integer", raw)}
		}
		return n, nil
	case convention.KindBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &QueryError{Field: c.Name, Reason: fmt.Sprintf("%q is not a boolean", raw)}
		}
		return b, nil
	case convention.KindDate:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, &QueryError{Field: c.Name, Reason: fmt.Sprintf("%q is not an RFC 3339 timestamp", raw)}
		}
		return t.UTC(), nil
	default:
		return raw, nil
	}
}

// ParseID converts a path id to the type of the primary key.
func ParseID(raw string, s *convention.Derived) (any, error) {
	return parseValue(raw, s.PrimaryKey())
}
