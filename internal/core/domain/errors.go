package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCollectionNotFound  = errors.New("data collection not found")
	ErrNoDefaultCollection = errors.New("no default data collection configured")
	ErrNoCollections       = errors.New("no data collections configured")
	ErrMissingToken        = errors.New("token is required for a remote butler query")
)

// FaultKind classifies a failure following the IVOA DALI taxonomy. Usage
// faults are wrapped in an error VOTable; the remaining kinds surface as
// plain HTTP errors because the request never reached a valid query context.
type FaultKind string

const (
	FaultUsage         FaultKind = "UsageFault"
	FaultAuthorization FaultKind = "AuthorizationFault"
	FaultNotFound      FaultKind = "NotFound"
	FaultServer        FaultKind = "ServerFault"
)

// Fault is an error carrying a fault classification. The rendered message
// keeps the kind as a prefix, e.g. "UsageFault: MAXREC must be an integer".
type Fault struct {
	Kind   FaultKind
	Detail string
	cause  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

func (f *Fault) Unwrap() error {
	return f.cause
}

func UsageFault(format string, args ...any) *Fault {
	return &Fault{Kind: FaultUsage, Detail: fmt.Sprintf(format, args...)}
}

func AuthorizationFault(format string, args ...any) *Fault {
	return &Fault{Kind: FaultAuthorization, Detail: fmt.Sprintf(format, args...)}
}

func NotFoundFault(format string, args ...any) *Fault {
	return &Fault{Kind: FaultNotFound, Detail: fmt.Sprintf(format, args...)}
}

func ServerFault(err error, format string, args ...any) *Fault {
	return &Fault{Kind: FaultServer, Detail: fmt.Sprintf(format, args...), cause: err}
}

// FaultOf returns the Fault wrapped in err, classifying err as a server
// fault when it carries no classification of its own.
func FaultOf(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return &Fault{Kind: FaultServer, Detail: err.Error(), cause: err}
}
