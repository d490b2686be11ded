package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

type noteRequest struct {
	Title string   `json:"title" validate:"required,max=5"`
	Tags  []string `json:"tags" validate:"omitempty,dive,required,max=3"`
}

func bodyRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInvalidRequest, typed.Code())
	details, _ := typed.Details().(map[string]string)
	return details
}

func TestDecodeJSONBody(t *testing.T) {
	var req noteRequest
	require.NoError(t, DecodeJSONBody(bodyRequest(`{"title":"ok","tags":["a"]}`), &req))
	assert.Equal(t, "ok", req.Title)
}

func TestDecodeJSONBodyRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "empty", body: "", message: "request body is required"},
		{name: "malformed", body: `{"title" "ok"}`, message: "malformed JSON"},
		{name: "unknown field", body: `{"title":"ok","extra":1}`, message: "invalid request body"},
		{name: "wrong type", body: `{"title":5}`, message: "invalid field type"},
		{name: "trailing document", body: `{"title":"ok"}{"title":"ok"}`, message: "request body must contain a single JSON object"},
		{name: "too large", body: `{"title":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, message: "request body too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req noteRequest
			err := DecodeJSONBody(bodyRequest(tt.body), &req)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeInvalidRequest, typed.Code())
			assert.Equal(t, tt.message, typed.Message())
		})
	}
}

func TestDecodeJSONBodyReportsFieldPaths(t *testing.T) {
	var req noteRequest
	err := DecodeJSONBody(bodyRequest(`{"title":"too long","tags":["ok","long"]}`), &req)
	details := validationDetails(t, err)
	assert.Equal(t, "must be at most 5 characters", details["title"])
	assert.Equal(t, "must be at most 3 characters", details["tags[1]"])
}

func TestQueryInt(t *testing.T) {
	bounds := IntRange{Default: 20, Min: 1, Max: 100}
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{name: "absent", query: "", want: 20},
		{name: "blank", query: "limit=%20", want: 20},
		{name: "value", query: "limit=50", want: 50},
		{name: "not numeric", query: "limit=abc", wantErr: true},
		{name: "below range", query: "limit=0", wantErr: true},
		{name: "above range", query: "limit=101", wantErr: true},
		{name: "repeated", query: "limit=1&limit=2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			got, err := QueryInt(r, "limit", bounds)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, pkgerrors.CodeInvalidRequest, pkgerrors.As(err).Code())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "night watch", SanitizeString("  night watch \n", 0))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 0), "control characters are dropped")
	assert.Equal(t, "abc", SanitizeString("abcdef", 3))
	assert.Equal(t, "caf", SanitizeString("café", 4), "truncation keeps runes whole")
}
