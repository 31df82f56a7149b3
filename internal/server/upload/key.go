package upload

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bridgeclub/clubhouse/internal/server/access"
	"github.com/google/uuid"
)

// NewKey names a new object: "file=<uuid><unix millis>.<ext>", placed
// under "groupId=<id>/" when groupID is set.
func NewKey(groupID, ext string, now time.Time) string {
	name := fmt.Sprintf("file=%s%s.%s", uuid.NewString(), strconv.FormatInt(now.UnixMilli(), 10), ext)
	return access.GroupPrefix(groupID) + name
}
