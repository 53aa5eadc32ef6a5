package utils

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// HashFields creates a deterministic hash from a map of fields
func HashFields(fields map[string]any) string {
	orderedMap := make(map[string]any, len(fields))
	for key, value := range fields {
		orderedMap[key] = normalizeValue(value)
	}

	// encoding/json writes map keys sorted
	jsonBytes, err := json.Marshal(orderedMap)
	if err != nil {
		jsonBytes = []byte("{}")
	}

	hash := sha256.Sum256(jsonBytes)
	return fmt.Sprintf("%x", hash)
}

// HashRows hashes a set of rows independent of their order.
func HashRows(rows []map[string]any) string {
	hashes := make([]string, 0, len(rows))
	for _, row := range rows {
		hashes = append(hashes, HashFields(row))
	}
	sort.Strings(hashes)

	hash := sha256.Sum256([]byte(strings.Join(hashes, "\n")))
	return fmt.Sprintf("%x", hash)
}

func normalizeValue(value any) any {
	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)

	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return normalizeValue(v.Elem().Interface())
	}

	if stringer, ok := value.(fmt.Stringer); ok {
		return stringer.String()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Bool:
		return v.Bool()
	default:
		return value
	}
}

