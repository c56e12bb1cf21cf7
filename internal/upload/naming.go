package upload

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

const (
	base36Alphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	randomSuffixLen = 8
)

// ObjectName returns "<unix-millis>-<8 base36 chars>.<imageType>".
// Uniqueness rests on the timestamp and 41 bits of randomness; collisions
// are not detected.
func ObjectName(now time.Time, entropy io.Reader, imageType string) (string, error) {
	suffix, err := randomBase36(entropy, randomSuffixLen)
	if err != nil {
		return "", fmt.Errorf("generate object name: %w", err)
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix + "." + imageType, nil
}

// randomBase36 draws n uniformly distributed base36 characters from r,
// discarding bytes >= 252 to avoid modulo bias.
func randomBase36(r io.Reader, n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 252 {
				continue
			}
			out = append(out, base36Alphabet[b%36])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
