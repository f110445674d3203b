package apperrors

// appError implements Error. A derived error keeps a pointer to its base so
// that Is matches anywhere along the derivation chain, and inherits the base
// status code until overridden.
type appError struct {
	msg         string
	base        Error
	wrapped     []error
	statusCode  int
	expandError bool
}

func New(msg string) Error {
	return &appError{msg: msg}
}

func (e *appError) Error() string {
	return e.msg
}

func (e *appError) ErrorAll() string {
	if !e.expandError || len(e.wrapped) == 0 {
		return e.msg
	}
	all := e.msg + ":"
	for i, err := range e.wrapped {
		if i > 0 {
			all += ";"
		}
		all += " " + err.Error()
	}
	return all
}

func (e *appError) New(msg string) Error {
	return &appError{
		msg:        msg,
		base:       e,
		statusCode: e.statusCode,
	}
}

func (e *appError) Msg(msg string) Error {
	return &appError{
		msg:         msg,
		base:        e,
		statusCode:  e.statusCode,
		expandError: e.expandError,
	}
}

func (e *appError) MsgErr(msg string, err ...error) Error {
	return &appError{
		msg:         msg,
		base:        e,
		wrapped:     err,
		statusCode:  e.statusCode,
		expandError: e.expandError,
	}
}

func (e *appError) Err(err ...error) Error {
	return &appError{
		msg:         e.msg,
		base:        e,
		wrapped:     err,
		statusCode:  e.statusCode,
		expandError: e.expandError,
	}
}

func (e *appError) Unwrap() []error {
	return e.wrapped
}

func (e *appError) Is(target error) bool {
	if e == target {
		return true
	}
	if e.base != nil && e.base.Is(target) {
		return true
	}
	for _, err := range e.wrapped {
		if err == target {
			return true
		}
	}
	return false
}

func (e *appError) SetExpandError(expand bool) Error {
	e.expandError = expand
	return e
}

func (e *appError) SetStatusCode(code int) Error {
	e.statusCode = code
	return e
}

func (e *appError) StatusCode() int {
	return e.statusCode
}
