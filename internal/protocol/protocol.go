// Package protocol implements the line-delimited JSON envelope spoken on
// every client connection. One JSON object per line, UTF-8, in both
// directions:
//
//	Request:  {"action": "<string>", "data": {...}}
//	Response: {"ok": true/false, "data": {...}, "error": "<message>" or null}
//
// The package contains no socket code; it only encodes and decodes.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request is one client message. Data carries the action's arguments and,
// for authenticated actions, the session token under the "token" key.
type Request struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
}

// Response is one server message. Error is a pointer so that successful
// responses serialize with an explicit "error": null, matching the wire
// format clients already parse.
type Response struct {
	Ok    bool           `json:"ok"`
	Data  map[string]any `json:"data"`
	Error *string        `json:"error"`
}

// OK builds a success response. A nil data map is replaced with an empty
// one so the "data" key is always an object, never null.
func OK(data map[string]any) Response {
	if data == nil {
		data = map[string]any{}
	}
	return Response{Ok: true, Data: data}
}

// Errorf builds a failure response with a formatted message.
func Errorf(format string, args ...any) Response {
	msg := fmt.Sprintf(format, args...)
	return Response{Ok: false, Data: map[string]any{}, Error: &msg}
}

// DecodeRequest parses one line into a Request. Surrounding whitespace and
// the trailing newline are ignored. A malformed document or a blank line
// yields an error; the caller decides whether to answer with an error
// response or drop the connection.
func DecodeRequest(line []byte) (Request, error) {
	trimmed := strings.TrimSpace(string(line))
	if trimmed == "" {
		return Request{}, fmt.Errorf("empty request line")
	}
	var req Request
	if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
		return Request{}, fmt.Errorf("malformed request: %w", err)
	}
	if req.Data == nil {
		req.Data = map[string]any{}
	}
	return req, nil
}

// EncodeResponse serializes a response as a single JSON line terminated by
// '\n'. Responses never contain raw newlines because encoding/json escapes
// them inside strings.
func EncodeResponse(resp Response) ([]byte, error) {
	if resp.Data == nil {
		resp.Data = map[string]any{}
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
