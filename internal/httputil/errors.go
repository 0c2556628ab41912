package httputil

import "errors"

var (
	ErrInvalidBody      = errors.New("the request body contains data that could not be parsed. Check the data you sent and try again")
	ErrRequestBodyEmpty = errors.New("the request body must not be empty")
	ErrInvalidUUID      = errors.New("the resource ID you specified is not a valid UUID")
)
