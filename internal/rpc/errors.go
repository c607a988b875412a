package rpc

import (
	"fmt"

	"github.com/curvemkt/curved/internal/core/market"
)

// Error is the wire error: a numeric code, a short identifier and a
// human-readable message. Engine results pass their code and identifier
// through unchanged so clients can switch on either.
type Error struct {
	Code    int    `json:"error_code"`
	Name    string `json:"error"`
	Message string `json:"error_message,omitempty"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Name
}

// Transport-level error codes, from the JSON-RPC 2.0 spec.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603

	CodeMissingCommand = -32000
	CodeForbidden      = -32001
	CodeNotSupported   = -32002
)

func NewError(code int, name, message string) *Error {
	return &Error{Code: code, Name: name, Message: message}
}

func errParse(detail string) *Error {
	return NewError(CodeParse, "jsonInvalid", "Invalid JSON: "+detail)
}

func errMissingCommand() *Error {
	return NewError(CodeMissingCommand, "missingCommand", "Missing method field")
}

func errMethodNotFound(name string) *Error {
	return NewError(CodeMethodNotFound, "unknownCmd", fmt.Sprintf("Unknown method: %s", name))
}

func errInvalidParams(detail string) *Error {
	return NewError(CodeInvalidParams, "invalidParams", detail)
}

func errForbidden(name string) *Error {
	return NewError(CodeForbidden, "forbidden", fmt.Sprintf("Method %s requires admin access", name))
}

func errNotSupported(detail string) *Error {
	return NewError(CodeNotSupported, "notSupported", detail)
}

func errInternal(err error) *Error {
	return NewError(CodeInternal, "internal", err.Error())
}

// errFromResult converts a non-applied engine result. Applied results
// must not reach this; they are reported as success.
func errFromResult(r market.Result) *Error {
	return NewError(int(r), r.String(), r.Message())
}
