package bulk

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/guardforce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/guardforce-backend/pkg/errors"
)

func TestParseActionVariants(t *testing.T) {
	action, err := ParseAction("status_change", json.RawMessage(`{"newStatus":"in_progress","bypassValidation":true}`))
	require.NoError(t, err)
	assert.Equal(t, StatusChange{Status: enums.ShiftStatusInProgress, BypassValidation: true}, action)

	action, err = ParseAction(" priority_update ", json.RawMessage(`{"priority":0}`))
	require.NoError(t, err)
	assert.Equal(t, PriorityUpdate{Priority: 0}, action)

	action, err = ParseAction("clone", nil)
	require.NoError(t, err)
	assert.Equal(t, Clone{}, action)

	action, err = ParseAction("clone", json.RawMessage(`{"offsetHours":-12}`))
	require.NoError(t, err)
	assert.Equal(t, Clone{Offset: -12 * time.Hour}, action)

	action, err = ParseAction("notification", json.RawMessage(`{"message":"hi","priority":"high","channels":["sms"]}`))
	require.NoError(t, err)
	assert.Equal(t, enums.BulkActionNotification, action.Type())
	assert.Equal(t, []string{"sms"}, action.(Notify).Channels)
}

func TestParseActionRejectsBadParameters(t *testing.T) {
	cases := map[string]struct {
		action string
		params string
		code   pkgerrors.Code
	}{
		"unknown type":      {action: "archive_all", params: `{}`, code: pkgerrors.CodeInvalidRequest},
		"malformed json":    {action: "assign", params: `{"guardId":`, code: pkgerrors.CodeInvalidRequest},
		"missing guard":     {action: "assign", params: `{}`, code: pkgerrors.CodeInvalidRequest},
		"missing priority":  {action: "priority_update", params: `{}`, code: pkgerrors.CodeInvalidRequest},
		"empty message":     {action: "notification", params: `{"message":"  "}`, code: pkgerrors.CodeInvalidRequest},
		"bad priority":      {action: "notification", params: `{"message":"x","priority":"urgent"}`, code: pkgerrors.CodeInvalidRequest},
		"zero clone offset": {action: "clone", params: `{"offsetHours":0}`, code: pkgerrors.CodeInvalidRequest},
		"missing status":    {action: "status_change", params: `{}`, code: pkgerrors.CodeInvalidStatus},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAction(tc.action, json.RawMessage(tc.params))
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.As(err).Code())
		})
	}
}
