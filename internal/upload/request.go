// Package upload implements the base64 image upload endpoint: request
// normalization, payload decoding, object naming and the HTTP handler.
package upload

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultImageType is used when the request carries no imageType.
const DefaultImageType = "jpeg"

var utf8BOM = []byte("\xef\xbb\xbf")

// Request is a normalized upload request.
type Request struct {
	ImageData string `json:"imageData" example:"iVBORw0KGgo="`
	ImageType string `json:"imageType,omitempty" example:"png"`
}

// ParseRequest normalizes a JSON body into a Request.
//
// A truthy "img" member replaces the top-level object (one level only).
// imageData must be a non-empty string. A falsy imageType becomes
// DefaultImageType; true is taken as "true" and numbers in their shortest
// decimal form. A leading UTF-8 byte-order mark is ignored.
func ParseRequest(body []byte) (Request, error) {
	body = bytes.TrimPrefix(body, utf8BOM)

	var root json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil {
		return Request{}, invalid(ErrInvalidJSON)
	}

	obj, ok := asObject(root)
	if !ok {
		return Request{}, invalid(ErrMissingImageData)
	}
	if img, found := obj["img"]; found && truthy(img) {
		if obj, ok = asObject(img); !ok {
			return Request{}, invalid(ErrMissingImageData)
		}
	}

	rawData, found := obj["imageData"]
	if !found || !truthy(rawData) {
		return Request{}, invalid(ErrMissingImageData)
	}
	var data string
	if err := json.Unmarshal(rawData, &data); err != nil {
		return Request{}, invalid(ErrImageDataType)
	}

	imageType := DefaultImageType
	if rawType, found := obj["imageType"]; found && truthy(rawType) {
		t, err := scalarText(rawType)
		if err != nil {
			return Request{}, invalid(ErrImageType)
		}
		imageType = t
	}

	return Request{ImageData: data, ImageType: imageType}, nil
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// truthy follows JavaScript truthiness for a JSON value: null, false, 0 and
// "" are falsy, everything else (including empty objects and arrays) is truthy.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n':
		return false
	case 'f':
		return false
	case 't', '{', '[':
		return true
	case '"':
		return len(raw) > 2
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return true
		}
		return f != 0
	}
}

// scalarText returns the string value of a JSON string, the text of a
// boolean, or a number formatted by formatNumber. Objects and arrays are
// rejected.
func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrImageType
	}
	switch raw[0] {
	case '"':
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case '{', '[':
		return "", ErrImageType
	case 't', 'f', 'n':
		return string(raw), nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return "", ErrImageType
	}
	return formatNumber(f), nil
}

// formatNumber renders f the way ECMAScript Number#toString does: plain
// decimal for 1e-6 <= |f| < 1e21, otherwise exponent form like "1e+21".
func formatNumber(f float64) string {
	if math.IsInf(f, 0) {
		if f > 0 {
			return "Infinity"
		}
		return "-Infinity"
	}
	if abs := math.Abs(f); f == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}
