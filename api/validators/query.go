package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

// IntRange bounds an integer query parameter. Default is returned when the
// parameter is absent.
type IntRange struct {
	Default, Min, Max int
}

func (b IntRange) check(key string, value int) error {
	if value < b.Min || value > b.Max {
		return pkgerrors.New(pkgerrors.CodeInvalidRequest, key+" out of range").
			WithDetails(map[string]any{"field": key, "min": b.Min, "max": b.Max, "value": value})
	}
	return nil
}

// QueryInt reads key from the query string. A repeated parameter is an
// error.
func QueryInt(r *http.Request, key string, bounds IntRange) (int, error) {
	values := r.URL.Query()[key]
	switch len(values) {
	case 0:
		return bounds.Default, nil
	case 1:
	default:
		return 0, pkgerrors.New(pkgerrors.CodeInvalidRequest, key+" given more than once").
			WithDetails(map[string]any{"field": key})
	}
	raw := strings.TrimSpace(values[0])
	if raw == "" {
		return bounds.Default, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInvalidRequest, err, key+" must be an integer").
			WithDetails(map[string]any{"field": key})
	}
	if err := bounds.check(key, value); err != nil {
		return 0, err
	}
	return value, nil
}
