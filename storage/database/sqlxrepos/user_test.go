package sqlxrepos

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/user"
	testutil "github.com/nuvatw/nuva-club/tests"
)

var t0 = time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.PrepareDB(t))

	ada := testutil.CreateUser(t, repo, "Ada", "ada", "ada@example.com", "Tr0ub4dor&3x", []string{user.RoleVava}, true, t0)
	nunu := testutil.CreateUser(t, repo, "Coach", "coach", "coach@example.com", "", []string{user.RoleNunu}, true, t0.Add(time.Hour))
	owner := testutil.CreateUser(t, repo, "Owner", "owner", "", "", []string{user.RoleGuardianOwner}, false, t0.Add(2*time.Hour))

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "ADA@example.com"})
		require.NoError(t, err)
		assert.Equal(t, ada.ID, got.ID)
		assert.NoError(t, got.CheckPassword("Tr0ub4dor&3x"))
		assert.True(t, got.CreatedAt.Equal(t0))
		assert.True(t, got.LastLogin.IsZero())

		got, err = repo.GetUser(ctx, user.GetFilter{ID: owner.ID})
		require.NoError(t, err)
		assert.Empty(t, got.Email)
		assert.False(t, got.IsActive)
		assert.Equal(t, []string{user.RoleGuardianOwner}, got.Roles)

		_, err = repo.GetUser(ctx, user.GetFilter{Username: "nobody"})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "ADA", "new@example.com"))
		assert.Equal(t, user.ErrEmailExists, repo.CheckUsernameUniqueness(ctx, "fresh", "coach@example.com"))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "ada", "", ada.ID))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "fresh", "fresh@example.com"))
	})

	t.Run("query", func(t *testing.T) {
		active := true
		tests := []struct {
			name     string
			filter   *user.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{name: "all newest first", want: []string{owner.ID, nunu.ID, ada.ID}},
			{name: "search", filter: &user.QueryFilter{Search: "COA"}, want: []string{nunu.ID}},
			{name: "roles", filter: &user.QueryFilter{Roles: []string{user.RoleGuardian, user.RoleVava}}, want: []string{owner.ID, ada.ID}},
			{name: "active", filter: &user.QueryFilter{IsActive: &active}, want: []string{nunu.ID, ada.ID}},
			{name: "created range", filter: &user.QueryFilter{CreatedFrom: t0.Add(time.Minute), CreatedTo: t0.Add(90 * time.Minute)}, want: []string{nunu.ID}},
			{
				name:     "ordering",
				ordering: []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "password_hash"}},
				want:     []string{ada.ID, nunu.ID, owner.ID},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				users, err := repo.QueryUsers(ctx, tt.filter, tt.ordering...)
				require.NoError(t, err)
				ids := make([]string, 0, len(users))
				for _, usr := range users {
					ids = append(ids, usr.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		ada.Level = 5
		ada.Bio = "hello"
		ada.LastLogin = t0.Add(24 * time.Hour)
		_, err := repo.UpdateUser(ctx, ada)
		require.NoError(t, err)

		got, err := repo.GetUser(ctx, user.GetFilter{ID: ada.ID})
		require.NoError(t, err)
		assert.Equal(t, 5, got.Level)
		assert.Equal(t, "hello", got.Bio)
		assert.True(t, got.LastLogin.Equal(t0.Add(24*time.Hour)))

		_, err = repo.UpdateUser(ctx, user.User{ID: "missing"})
		assert.Equal(t, user.ErrNotFound, err)

		require.NoError(t, repo.DeleteUsersByID(ctx, nunu.ID, owner.ID))
		users, err := repo.QueryUsers(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}
