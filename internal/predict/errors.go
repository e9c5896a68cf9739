package predict

import "fmt"

// ServiceError is returned when the prediction service answers with a
// non-2xx status.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("Failed to fetch prediction: %s", e.Detail)
}

// TransportError covers everything that went wrong between us and a usable
// response: connection failures, timeouts, unreadable or unexpected bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
