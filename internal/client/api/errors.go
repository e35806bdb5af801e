package api

import (
	"errors"
	"fmt"
	"strings"
)

// Class is the classification every failed remote operation is assigned.
// Callers decide what to show the user from the Class alone.
type Class int

const (
	// ClassNone is the classification of a nil error.
	ClassNone Class = iota
	// ClassAuth means the server reported the request as unauthenticated.
	ClassAuth
	// ClassNetwork means no response was received.
	ClassNetwork
	// ClassOther is everything else, including malformed responses.
	ClassOther
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassAuth:
		return "auth"
	case ClassNetwork:
		return "network"
	default:
		return "other"
	}
}

// CodeUnauthenticated is the GraphQL extension code signalling an auth failure.
const CodeUnauthenticated = "UNAUTHENTICATED"

// AuthError is returned when any GraphQL error carries CodeUnauthenticated.
type AuthError struct {
	Op      string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: unauthenticated: %s", e.Op, e.Message)
}

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// OtherError covers GraphQL errors without the auth code, unexpected HTTP
// statuses and responses that do not have the expected shape.
type OtherError struct {
	Op string
	// StatusCode is the HTTP status, 0 when the failure is not status related.
	StatusCode int
	// Code is the first GraphQL extension code, if the server sent one.
	Code    string
	Message string
	Err     error
}

func (e *OtherError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " [HTTP %d]", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *OtherError) Unwrap() error { return e.Err }

// Classify maps err to its Class. Errors that did not come from the gateway
// are ClassOther.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return ClassAuth
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return ClassNetwork
	}
	return ClassOther
}
