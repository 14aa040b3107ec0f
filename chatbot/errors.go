package chatbot

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned when a submission is empty after trimming
var ErrEmptyQuery = errors.New("query is empty")

// ErrBusy is returned when a submission arrives while a request is pending
var ErrBusy = errors.New("a search request is already pending")

// TransportKind is the failure class of a TransportError
type TransportKind int

// TransportKinds
const (
	TransportStatus TransportKind = iota
	TransportNetwork
	TransportDecode
)

func (k TransportKind) String() string {
	switch k {
	case TransportStatus:
		return "status"
	case TransportNetwork:
		return "network"
	case TransportDecode:
		return "decode"
	}
	return "unknown"
}

// TransportError is any failure to obtain a valid SearchResponse
type TransportError struct {
	Description string
	Kind        TransportKind
	StatusCode  int // set for TransportStatus
	Err         error
}

func (e *TransportError) Error() string {
	if e.Kind == TransportStatus {
		return fmt.Sprintf("Transport Error: %s: status %d", e.Description, e.StatusCode)
	}
	return fmt.Sprintf("Transport Error: %s: %v", e.Description, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
