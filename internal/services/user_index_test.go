package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agilboard/internal/upstream"
)

func decodeUsers(t *testing.T, data string) []upstream.User {
	t.Helper()
	var users []upstream.User
	require.NoError(t, json.Unmarshal([]byte(data), &users))
	return users
}

func idPtr(t *testing.T, raw string) *upstream.ID {
	t.Helper()
	var id upstream.ID
	require.NoError(t, json.Unmarshal([]byte(raw), &id))
	return &id
}

func TestNewUserIndex(t *testing.T) {
	index := NewUserIndex(decodeUsers(t, usersJSON))

	assert.Len(t, index, 3, "users without an id are not indexed")
	assert.Equal(t, "Ali Ben Salah", index["u1"])
	assert.Equal(t, "Sara", index["2"])
	assert.Equal(t, unknownUserName, index["u3"])
}

func TestNewUserIndex_DuplicateIDsLastWins(t *testing.T) {
	index := NewUserIndex(decodeUsers(t, `[{"id":"u1","name":"First"},{"id":"u1","name":"Second"}]`))
	assert.Equal(t, "Second", index["u1"])
}

func TestUserIndex_Resolve(t *testing.T) {
	index := NewUserIndex(decodeUsers(t, usersJSON))

	tests := []struct {
		name string
		id   *upstream.ID
		want string
	}{
		{"string id", idPtr(t, `"u1"`), "Ali Ben Salah"},
		{"numeric id matches numeric user", idPtr(t, `2`), "Sara"},
		{"string form of numeric id matches", idPtr(t, `"2"`), "Sara"},
		{"unknown id", idPtr(t, `"ghost"`), unknownChefName},
		{"absent id", nil, unknownChefName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, index.Resolve(tt.id, unknownChefName))
		})
	}
}
