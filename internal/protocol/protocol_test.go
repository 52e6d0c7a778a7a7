package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"action":"ping","data":{"x":1}}` + "\n"))
	require.NoError(t, err)
	assert.Equal(t, "ping", req.Action)
	assert.Equal(t, float64(1), req.Data["x"])
}

func TestDecodeRequestMissingData(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"action":"ping"}`))
	require.NoError(t, err)
	assert.NotNil(t, req.Data, "data must default to an empty map")
}

func TestDecodeRequestMalformed(t *testing.T) {
	for _, line := range []string{"", "   ", "{not json}", `"just a string"`} {
		_, err := DecodeRequest([]byte(line))
		assert.Error(t, err, "line %q should not decode", line)
	}
}

func TestEncodeResponseSuccess(t *testing.T) {
	b, err := EncodeResponse(OK(map[string]any{"pong": true}))
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), b[len(b)-1], "response must be newline terminated")

	// The error key must be present and null on success.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "null", string(raw["error"]))
	assert.Equal(t, "true", string(raw["ok"]))
}

func TestEncodeResponseError(t *testing.T) {
	b, err := EncodeResponse(Errorf("seat %s already booked", "A1"))
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(b, &resp))
	assert.False(t, resp.Ok)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "seat A1 already booked", *resp.Error)
	assert.NotNil(t, resp.Data, "data must be an object even on error")
}

func TestRoundTrip(t *testing.T) {
	b, err := EncodeResponse(OK(map[string]any{"ticket_id": 7}))
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(b, &resp))
	assert.True(t, resp.Ok)
	assert.Equal(t, float64(7), resp.Data["ticket_id"])
	assert.Nil(t, resp.Error)
}
