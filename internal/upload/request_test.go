package upload

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Request
		wantErr error
	}{
		{"flat default type", `{"imageData":"aGVsbG8="}`, Request{ImageData: "aGVsbG8=", ImageType: "jpeg"}, nil},
		{"flat with type", `{"imageData":"aGVsbG8=","imageType":"webp"}`, Request{ImageData: "aGVsbG8=", ImageType: "webp"}, nil},
		{"nested", `{"img":{"imageData":"aGVsbG8=","imageType":"png"}}`, Request{ImageData: "aGVsbG8=", ImageType: "png"}, nil},
		{"nested wins over top level", `{"imageData":"top","img":{"imageData":"inner"}}`, Request{ImageData: "inner", ImageType: "jpeg"}, nil},
		{"falsy img ignored", `{"img":null,"imageData":"aGVsbG8="}`, Request{ImageData: "aGVsbG8=", ImageType: "jpeg"}, nil},
		{"zero img ignored", `{"img":0,"imageData":"aGVsbG8="}`, Request{ImageData: "aGVsbG8=", ImageType: "jpeg"}, nil},
		{"empty type defaults", `{"imageData":"aGVsbG8=","imageType":""}`, Request{ImageData: "aGVsbG8=", ImageType: "jpeg"}, nil},
		{"false type defaults", `{"imageData":"aGVsbG8=","imageType":false}`, Request{ImageData: "aGVsbG8=", ImageType: "jpeg"}, nil},
		{"numeric type", `{"imageData":"aGVsbG8=","imageType":5}`, Request{ImageData: "aGVsbG8=", ImageType: "5"}, nil},
		{"exponent type", `{"imageData":"aGVsbG8=","imageType":1e2}`, Request{ImageData: "aGVsbG8=", ImageType: "100"}, nil},
		{"fraction type", `{"imageData":"aGVsbG8=","imageType":2.50}`, Request{ImageData: "aGVsbG8=", ImageType: "2.5"}, nil},
		{"huge type", `{"imageData":"aGVsbG8=","imageType":1e21}`, Request{ImageData: "aGVsbG8=", ImageType: "1e+21"}, nil},
		{"overflowing type", `{"imageData":"aGVsbG8=","imageType":1e400}`, Request{ImageData: "aGVsbG8=", ImageType: "Infinity"}, nil},
		{"underflowing type defaults", `{"imageData":"aGVsbG8=","imageType":1e-400}`, Request{ImageData: "aGVsbG8=", ImageType: "jpeg"}, nil},
		{"true type", `{"imageData":"aGVsbG8=","imageType":true}`, Request{ImageData: "aGVsbG8=", ImageType: "true"}, nil},
		{"leading BOM", "\xef\xbb\xbf" + `{"imageData":"aGVsbG8="}`, Request{ImageData: "aGVsbG8=", ImageType: "jpeg"}, nil},
		{"unknown fields ignored", `{"imageData":"aGVsbG8=","name":"cat"}`, Request{ImageData: "aGVsbG8=", ImageType: "jpeg"}, nil},

		{"not json", `nope`, Request{}, ErrInvalidJSON},
		{"array root", `[{"imageData":"aGVsbG8="}]`, Request{}, ErrMissingImageData},
		{"missing data", `{"imageType":"png"}`, Request{}, ErrMissingImageData},
		{"empty data", `{"imageData":""}`, Request{}, ErrMissingImageData},
		{"zero data", `{"imageData":0}`, Request{}, ErrMissingImageData},
		{"img not object", `{"img":"aGVsbG8="}`, Request{}, ErrMissingImageData},
		{"nested missing data", `{"img":{"imageType":"png"},"imageData":"aGVsbG8="}`, Request{}, ErrMissingImageData},
		{"numeric data", `{"imageData":42}`, Request{}, ErrImageDataType},
		{"object data", `{"imageData":{"b64":"aGVsbG8="}}`, Request{}, ErrImageDataType},
		{"object type", `{"imageData":"aGVsbG8=","imageType":{"ext":"png"}}`, Request{}, ErrImageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequest([]byte(tt.body))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.True(t, IsRequestError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruthy(t *testing.T) {
	tests := map[string]bool{
		`null`:  false,
		`false`: false,
		`0`:     false,
		`-0`:    false,
		`0.0`:   false,
		`""`:    false,
		`true`:  true,
		`1`:     true,
		`"0"`:   true,
		`" "`:   true,
		`{}`:    true,
		`[]`:    true,
	}
	for raw, want := range tests {
		assert.Equal(t, want, truthy(json.RawMessage(raw)), raw)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		100:     "100",
		-3:      "-3",
		0.5:     "0.5",
		1e-6:    "0.000001",
		1e-7:    "1e-7",
		1.5e300: "1.5e+300",
		1e21:    "1e+21",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatNumber(in), "%v", in)
	}
}

func TestIsRequestError(t *testing.T) {
	assert.True(t, IsRequestError(invalid(ErrInvalidJSON)))
	assert.False(t, IsRequestError(ErrInvalidJSON))
	assert.False(t, IsRequestError(errors.New("boom")))
	assert.False(t, IsRequestError(nil))
}
