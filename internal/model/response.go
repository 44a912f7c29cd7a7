package model

// Response mirrors the watchface service's response envelope.
type Response[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

// SuccessCode is the only code the service uses for a successful call.
const SuccessCode = 0

// ErrorCode is the generic failure code used when none is more specific.
const ErrorCode = -1

// OK reports whether the envelope carries a success code.
func (r Response[T]) OK() bool {
	return r.Code == SuccessCode
}

// Success wraps data with a success code.
func Success[T any](msg string, data T) Response[T] {
	return Response[T]{
		Code: SuccessCode,
		Msg:  msg,
		Data: data,
	}
}

// Error returns an envelope with the default error code.
func Error(msg string) Response[any] {
	return Response[any]{
		Code: ErrorCode,
		Msg:  msg,
	}
}

// ErrorWithCode allows specifying a custom error code.
func ErrorWithCode(code int, msg string) Response[any] {
	return Response[any]{
		Code: code,
		Msg:  msg,
	}
}
