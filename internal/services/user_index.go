package services

import (
	"github.com/samber/lo"

	"agilboard/internal/upstream"
)

const (
	unknownUserName = "Unknown User"
	unknownChefName = "Unknown Chef"
	unassignedName  = "Unassigned"
)

// UserIndex maps a user ID's textual form to the user's display name. It is built once per
// request and never modified afterwards.
type UserIndex map[string]string

// NewUserIndex indexes users by ID. Users without an ID are skipped; with duplicate IDs the
// last record wins.
func NewUserIndex(users []upstream.User) UserIndex {
	withID := lo.Filter(users, func(u upstream.User, _ int) bool {
		return u.ID != nil
	})
	return lo.SliceToMap(withID, func(u upstream.User) (string, string) {
		return u.ID.Key(), lo.FromPtrOr(u.Name, unknownUserName)
	})
}

// Resolve returns the name for id, or fallback when id is absent or unknown.
func (ix UserIndex) Resolve(id *upstream.ID, fallback string) string {
	if id == nil {
		return fallback
	}
	if name, ok := ix[id.Key()]; ok {
		return name
	}
	return fallback
}
