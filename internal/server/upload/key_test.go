package upload

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	unscopedKey = regexp.MustCompile(`^file=[0-9a-f-]{36}1773513000000\.png$`)
	scopedKey   = regexp.MustCompile(`^groupId=g1/file=[0-9a-f-]{36}1773513000000\.pdf$`)
)

func TestNewKey(t *testing.T) {
	now := time.UnixMilli(1773513000000)

	assert.Regexp(t, unscopedKey, NewKey("", "png", now))
	assert.Regexp(t, scopedKey, NewKey("g1", "pdf", now))
	assert.NotEqual(t, NewKey("", "png", now), NewKey("", "png", now), "keys must not collide")
}
