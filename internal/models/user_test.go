// internal/models/user_test.go
package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("secret-password"))
	assert.NotEqual(t, "secret-password", u.PasswordHash)

	assert.NoError(t, u.CheckPassword("secret-password"))
	assert.Error(t, u.CheckPassword("wrong-password"))
}

func TestHasOpenSlot(t *testing.T) {
	u := &User{ChildCount: 4, MaxChildren: 5}
	assert.True(t, u.HasOpenSlot())

	u.ChildCount = 5
	assert.False(t, u.HasOpenSlot())

	u.ChildCount = 6
	assert.False(t, u.HasOpenSlot())
}

func TestIsSystemRoot(t *testing.T) {
	root := &User{}
	assert.True(t, root.IsSystemRoot())

	parentID := uuid.New()
	child := &User{ParentID: &parentID}
	assert.False(t, child.IsSystemRoot())
}
