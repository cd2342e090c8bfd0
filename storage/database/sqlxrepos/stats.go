package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core/dashboard"
	"github.com/nuvatw/nuva-club/core/subscription"
	"github.com/nuvatw/nuva-club/core/user"
)

type statsRepository struct {
	db *sqlx.DB
}

var _ dashboard.StatsRepository = (*statsRepository)(nil)

func NewStatsRepository(db *sqlx.DB) *statsRepository {
	return &statsRepository{db: db}
}

func (repo statsRepository) count(ctx context.Context, q string, args ...interface{}) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, repo.db, &n, repo.db.Rebind(q), args...)
	return n, err
}

func (repo statsRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	families := map[string]string{
		"guardian": user.RoleGuardian,
		"nunu":     user.RoleNunu,
		"vava":     user.RoleVava,
	}
	out := make(map[string]int, len(families))
	for family, prefix := range families {
		n, err := repo.count(ctx, "SELECT COUNT(*) FROM users WHERE is_active = ? AND (',' || roles) LIKE ?", true, "%,"+prefix+"%")
		if err != nil {
			return nil, errors.Wrap(err, "counting users")
		}
		out[family] = n
	}
	return out, nil
}

// CountPaidSubscriptions counts paid plans that are active, or canceled but not expired yet.
func (repo statsRepository) CountPaidSubscriptions(ctx context.Context, now time.Time) (int, error) {
	n, err := repo.count(ctx,
		"SELECT COUNT(*) FROM subscriptions WHERE plan <> ? AND (status = ? OR renews_at > ?)",
		subscription.PlanFree, subscription.StatusActive, now.UTC(),
	)
	return n, errors.Wrap(err, "counting subscriptions")
}

func (repo statsRepository) CountCourses(ctx context.Context) (int, int, error) {
	courses, err := repo.count(ctx, "SELECT COUNT(*) FROM courses")
	if err != nil {
		return 0, 0, errors.Wrap(err, "counting courses")
	}
	lessons, err := repo.count(ctx, "SELECT COUNT(*) FROM lessons")
	if err != nil {
		return 0, 0, errors.Wrap(err, "counting lessons")
	}
	return courses, lessons, nil
}

func (repo statsRepository) CountPosts(ctx context.Context) (int, error) {
	n, err := repo.count(ctx, "SELECT COUNT(*) FROM posts")
	return n, errors.Wrap(err, "counting posts")
}
