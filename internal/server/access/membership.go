package access

import (
	"slices"
	"strings"

	"github.com/bridgeclub/clubhouse/internal/common"
)

// CanAccess reports whether a member of memberOf may reach a resource scoped
// to groupID. An empty groupID means the resource is not group-scoped.
func CanAccess(groupID string, memberOf []string) bool {
	if groupID == "" {
		return true
	}
	return slices.Contains(memberOf, groupID)
}

// ValidateKey rejects object keys that are empty, absolute, or contain empty
// or dot segments.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return common.ErrInvalidObjectKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return common.ErrInvalidObjectKey
		}
	}
	return nil
}

// GroupFromKey returns the group id encoded in a "groupId=<id>/..." key.
// scoped is false for keys without the group prefix. A key that starts with the group prefix
// but carries no id, or has nothing after the id, is invalid.
func GroupFromKey(key string) (groupID string, scoped bool, err error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	if !strings.HasPrefix(key, common.GroupKeyPrefix) {
		return "", false, nil
	}
	first, rest, found := strings.Cut(key, "/")
	id := strings.TrimPrefix(first, common.GroupKeyPrefix)
	if id == "" || !found || rest == "" {
		return "", false, common.ErrInvalidObjectKey
	}
	return id, true, nil
}

// GroupPrefix returns the key prefix of objects belonging to groupID, or ""
// for unscoped objects.
func GroupPrefix(groupID string) string {
	if groupID == "" {
		return ""
	}
	return common.GroupKeyPrefix + groupID + "/"
}
