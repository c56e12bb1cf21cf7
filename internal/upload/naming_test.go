package upload

import (
	"bytes"
	"crypto/rand"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	name, err := ObjectName(now, rand.Reader, "png")
	require.NoError(t, err)
	assert.Regexp(t, `^1700000000000-[0-9a-z]{8}\.png$`, name)
}

func TestObjectName_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		name, err := ObjectName(now, rand.Reader, "jpeg")
		require.NoError(t, err)
		_, dup := seen[name]
		require.False(t, dup, "duplicate name %s", name)
		seen[name] = struct{}{}
	}
}

func TestRandomBase36_SkipsBiasedBytes(t *testing.T) {
	src := append(bytes.Repeat([]byte{0xff, 0xfc}, 8), bytes.Repeat([]byte{10}, 16)...)
	got, err := randomBase36(bytes.NewReader(src), 8)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 8), got)
}

func TestObjectName_EntropyFailure(t *testing.T) {
	_, err := ObjectName(time.Now(), iotest.ErrReader(assert.AnError), "png")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "generate object name")
}
