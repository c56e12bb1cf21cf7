package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanBase64(t *testing.T) {
	assert.Equal(t, "aGVsbG8=", CleanBase64("aGVs\nbG8="))
	assert.Equal(t, "aGVsbG8=", CleanBase64(" a G\tV s\r\nb G 8 = "))
	assert.Equal(t, "aGVsbG8=", CleanBase64("\ufeffaGVs bG8= "))
	assert.Equal(t, "", CleanBase64(" \n\t "))
	assert.Equal(t, "aGVsbG8=", CleanBase64("aGVs\u00a0\u2028\u3000\vbG8="))
}

func TestCleanBase64_KeepsNextLine(t *testing.T) {
	cleaned := CleanBase64("aGVs\u0085bG8=")
	assert.Equal(t, "aGVs\u0085bG8=", cleaned)
	assert.False(t, ValidBase64Charset(cleaned))
}

func TestValidBase64Charset(t *testing.T) {
	valid := []string{"aGVsbG8=", "QUJD", "+/+/", "a=b="}
	for _, s := range valid {
		assert.True(t, ValidBase64Charset(s), s)
	}

	invalid := []string{"", "!!!invalid!!!", "aGVs bG8=", "aGVs-bG8_", "aGVsbG8=\n"}
	for _, s := range invalid {
		assert.False(t, ValidBase64Charset(s), s)
	}
}

func TestDecodeBase64(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aGVsbG8=", "hello"},
		{"aGVsbG8", "hello"},
		{"aGVsbA==", "hell"},
		{"aGVsbA", "hell"},
		{"QUJD", "ABC"},
	}
	for _, tt := range tests {
		got, err := DecodeBase64(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, string(got), tt.in)
	}
}

func TestDecodeBase64_Rejects(t *testing.T) {
	for _, in := range []string{
		"aGVsb",     // one char past a full quantum
		"a",         // same
		"aG=sbG8=",  // interior padding
		"aGVsbG8==", // padding without a full quantum
		"aGVsb===",  // three pad chars
		"=",
	} {
		_, err := DecodeBase64(in)
		assert.Error(t, err, in)
	}
}
