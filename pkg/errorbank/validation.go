package errorbank

import "errors"

// DetailMessages is the detail key holding user-facing validation messages.
const DetailMessages = "messages"

// Validation builds an unprocessable-entity error carrying every failed rule
// message in order.
func Validation(messages []string, opts ...Option) *AppError {
	opts = append([]Option{WithDetail(DetailMessages, append([]string(nil), messages...))}, opts...)
	return Unprocessable("validation failed", opts...)
}

// Messages returns what a user should read about err: the rule messages of a
// validation error, or the message of any other AppError. Errors that are not
// AppErrors yield nil.
func Messages(err error) []string {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr == nil {
		return nil
	}
	if msgs, ok := appErr.details[DetailMessages].([]string); ok {
		return append([]string(nil), msgs...)
	}
	return []string{appErr.message}
}
