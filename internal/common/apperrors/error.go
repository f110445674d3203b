// Package apperrors provides layered application errors. Errors derive from a
// base error through New, keep an Is relationship with every ancestor, and
// carry the HTTP status code callers should map them to.
package apperrors

type Error interface {
	Error() string
	ErrorAll() string
	New(msg string) Error
	Msg(msg string) Error
	MsgErr(msg string, err ...error) Error
	Err(err ...error) Error
	Unwrap() []error
	Is(target error) bool
	SetExpandError(expand bool) Error
	SetStatusCode(code int) Error
	StatusCode() int
}
