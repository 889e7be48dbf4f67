package slack

import "fmt"

// APIError 表示後端回應 ok=false
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// StatusError 表示後端回應非 2xx 的狀態碼
type StatusError struct {
	Method     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("slack %s: unexpected status code=%d", e.Method, e.StatusCode)
}
