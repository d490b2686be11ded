// Package enums mirrors the Postgres enum types used by the workflow schema.
package enums

import "fmt"

func parse[T ~string](value string, valid []T, kind string) (T, error) {
	for _, candidate := range valid {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}
