package upload

import "errors"

// Client-facing validation failures. Each maps to a 400 response whose
// message is the error text.
var (
	ErrContentType      = errors.New("request header must include Content-Type: application/json")
	ErrInvalidJSON      = errors.New("invalid JSON format")
	ErrBodyTooLarge     = errors.New("request body too large")
	ErrMissingImageData = errors.New("JSON must include imageData field")
	ErrImageDataType    = errors.New("imageData must be a string")
	ErrImageType        = errors.New("imageType must be a string")
	ErrInvalidBase64    = errors.New("please provide valid base64 encoded data")
	ErrNotImage         = errors.New("decoded data is not an image")
)

// RequestError marks a failure caused by the request payload.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func invalid(err error) error {
	return &RequestError{Err: err}
}

// IsRequestError reports whether err was caused by the client's request.
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}
