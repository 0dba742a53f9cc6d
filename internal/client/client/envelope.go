package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// excerptLimit bounds how much of an undecodable body is kept on the error.
const excerptLimit = 100

// ErrorBody is the "error" member of a failed envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination and other side information.
type Meta map[string]any

// Envelope is the uniform response shape of every backend call:
//
//	{"ok": true,  "data": {...}, "meta": {...}}
//	{"ok": false, "error": {"code": "...", "message": "..."}}
type Envelope[T any] struct {
	OK    bool       `json:"ok"`
	Data  T          `json:"data"`
	Error *ErrorBody `json:"error,omitempty"`
	Meta  Meta       `json:"meta,omitempty"`

	// Status is the HTTP status the envelope arrived with.
	Status int `json:"-"`
}

// wireEnvelope keeps "ok" as a pointer and "data" raw so that missing or
// mistyped members can be told apart from zero values.
type wireEnvelope struct {
	OK    *bool           `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *ErrorBody      `json:"error"`
	Meta  Meta            `json:"meta"`
}

// decodeEnvelope validates body against the envelope schema and decodes
// "data" into T. When requireData is false an ok envelope may omit "data"
// (logout, leave team).
func decodeEnvelope[T any](body []byte, status int, requireData bool) (*Envelope[T], error) {
	var w wireEnvelope
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, decodeError(body, status, "invalid JSON", err)
	}
	if w.OK == nil {
		return nil, decodeError(body, status, `missing "ok"`, nil)
	}

	if !*w.OK {
		if w.Error == nil {
			return nil, decodeError(body, status, `missing "error" in failed response`, nil)
		}
		code := w.Error.Code
		if code == "" {
			code = string(KindAPI)
		}
		return nil, &Error{Kind: KindAPI, Code: code, Message: w.Error.Message, Status: status}
	}

	env := &Envelope[T]{OK: true, Meta: w.Meta}
	if isAbsent(w.Data) {
		if requireData {
			return nil, decodeError(body, status, `missing "data"`, nil)
		}
		return env, nil
	}
	if err := json.Unmarshal(w.Data, &env.Data); err != nil {
		return nil, decodeError(body, status, `malformed "data"`, err)
	}
	return env, nil
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeError(body []byte, status int, msg string, cause error) *Error {
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &Error{
		Kind:    KindDecode,
		Code:    string(KindDecode),
		Message: msg,
		Status:  status,
		Excerpt: excerpt(body),
		Err:     cause,
	}
}

func excerpt(body []byte) string {
	if len(body) > excerptLimit {
		body = body[:excerptLimit]
	}
	return strings.ToValidUTF8(string(body), "")
}

// failedEnvelope synthesizes the envelope handed back alongside err, so
// callers always get an envelope and never a raw transport or parse error.
func failedEnvelope[T any](err error) *Envelope[T] {
	env := &Envelope[T]{OK: false}
	e, ok := AsError(err)
	if !ok {
		env.Error = &ErrorBody{Code: string(KindNetwork), Message: err.Error()}
		return env
	}
	body := &ErrorBody{Code: e.Code, Message: e.Message}
	if body.Code == "" {
		body.Code = string(e.Kind)
	}
	if e.Kind == KindDecode && e.Excerpt != "" {
		body.Message = fmt.Sprintf("%s (body: %q)", e.Message, e.Excerpt)
	}
	env.Error = body
	return env
}
