package raceclient

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhealthy is returned when /healthz does not answer 200.
	ErrUnhealthy = errors.New("server unhealthy")
	// ErrVerification is returned when final standings are inconsistent.
	ErrVerification = errors.New("standings verification failed")
)

// APIError is a non-2xx answer decoded from the server's error body.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
