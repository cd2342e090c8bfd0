package sqlxrepos

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/subscription"
	"github.com/nuvatw/nuva-club/core/user"
	testutil "github.com/nuvatw/nuva-club/tests"
)

func TestTransactor(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	tx := NewTransactor(db)
	usrRepo := NewUserRepository(db)
	subRepo := NewSubscriptionRepository(db)
	subSvc := subscription.NewService(subRepo)

	usrSvc := user.NewService(usrRepo, nil, core.NewTestConfig())
	usrSvc.UseTransactor(tx)

	errBoom := errors.New("boom")
	failing := true
	usrSvc.OnCreate(func(ctx context.Context, usr user.User) error {
		if _, err := subSvc.StartFree(ctx, usr.ID); err != nil {
			return err
		}
		if failing {
			return errBoom
		}
		return nil
	})

	countRows := func(table string) int {
		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table))
		return n
	}
	nu := user.NewUser{Name: "Ann", Username: "ann", Email: "ann@example.com", Password: "Tr0ub4dor&3x"}

	t.Run("failing hook rolls back the user", func(t *testing.T) {
		_, err := usrSvc.Create(ctx, nu)
		assert.Equal(t, errBoom, err)

		_, err = usrRepo.GetUser(ctx, user.GetFilter{Username: "ann"})
		assert.Equal(t, user.ErrNotFound, err)
		assert.Zero(t, countRows("users"))
		assert.Zero(t, countRows("subscriptions"))
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		failing = false
		err := tx.InTx(ctx, func(ctx context.Context) error {
			if _, err := usrSvc.Create(ctx, nu); err != nil {
				return err
			}
			return errBoom
		})
		assert.Equal(t, errBoom, err)
		assert.Zero(t, countRows("users"))
		assert.Zero(t, countRows("subscriptions"))
	})

	t.Run("commit", func(t *testing.T) {
		failing = false
		usr, err := usrSvc.Create(ctx, nu)
		require.NoError(t, err)

		sub, err := subRepo.GetSubscription(ctx, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanFree, sub.Plan)
		assert.Equal(t, subscription.StatusActive, sub.Status)
	})
}
