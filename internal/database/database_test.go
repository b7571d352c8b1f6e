package database_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/readshelf/backend/internal/database"
	"github.com/emilythestrangee/readshelf/backend/internal/models"
	"github.com/emilythestrangee/readshelf/backend/internal/service"
	"github.com/emilythestrangee/readshelf/backend/internal/validation"
)

func startPostgres(t *testing.T) database.Service {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("readshelf"),
		tcpostgres.WithUsername("readshelf"),
		tcpostgres.WithPassword("readshelf"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	svc, err := database.Open(postgres.Open(dsn), zap.NewNop(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	require.NoError(t, svc.Migrate(ctx))
	return svc
}

func mkUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{Email: name + "@example.com", PasswordHash: "x", Username: &name}
	require.NoError(t, db.Omit(clause.Associations).Create(&u).Error)
	return u
}

func TestPostgres(t *testing.T) {
	svc := startPostgres(t)
	db := svc.GetDB()
	ctx := context.Background()

	t.Run("health", func(t *testing.T) {
		assert.Equal(t, "up", svc.Health(ctx)["status"])
	})

	t.Run("unique violation is detected", func(t *testing.T) {
		u := mkUser(t, db, "dupe")
		err := db.Omit(clause.Associations).Create(&models.User{Email: u.Email, PasswordHash: "x"}).Error
		require.Error(t, err)
		assert.True(t, database.IsUniqueViolation(err))
	})

	t.Run("transact rolls back on error", func(t *testing.T) {
		u := mkUser(t, db, "rollback")
		err := database.Transact(ctx, db, func(tx *gorm.DB) error {
			if err := tx.Model(&models.User{}).Where("id = ?", u.ID).
				Update("followers_count", gorm.Expr("followers_count + 1")).Error; err != nil {
				return err
			}
			return tx.Omit(clause.Associations).Create(&models.User{Email: u.Email, PasswordHash: "x"}).Error
		})
		require.Error(t, err)

		var reloaded models.User
		require.NoError(t, db.Where("id = ?", u.ID).Take(&reloaded).Error)
		assert.Zero(t, reloaded.FollowersCount)
	})

	t.Run("concurrent likes keep the counter exact", func(t *testing.T) {
		author := mkUser(t, db, "author")
		post := models.Post{UserID: author.ID, Content: "popular", PostType: models.PostTypeThought}
		require.NoError(t, db.Omit(clause.Associations).Create(&post).Error)

		const likers = 20
		ids := make([]uuid.UUID, likers)
		for i := range ids {
			ids[i] = mkUser(t, db, "liker"+uuid.NewString()[:8]).ID
		}

		engagement := service.NewEngagementService(db, validation.New(), zap.NewNop())

		var wg sync.WaitGroup
		errs := make(chan error, likers)
		for _, id := range ids {
			wg.Add(1)
			go func(userID uuid.UUID) {
				defer wg.Done()
				errs <- engagement.LikePost(ctx, userID, post.ID)
			}(id)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		var reloaded models.Post
		require.NoError(t, db.Where("id = ?", post.ID).Take(&reloaded).Error)
		assert.Equal(t, likers, reloaded.LikesCount)

		var likes int64
		require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&likes).Error)
		assert.EqualValues(t, likers, likes)
	})

	t.Run("concurrent follows keep counters equal to edges", func(t *testing.T) {
		target := mkUser(t, db, "celebrity")
		social := service.NewSocialService(db, zap.NewNop())

		const followers = 15
		var wg sync.WaitGroup
		for range followers {
			u := mkUser(t, db, "fan"+uuid.NewString()[:8])
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, social.Follow(ctx, u.ID, target.ID))
			}()
		}
		wg.Wait()

		var reloaded models.User
		require.NoError(t, db.Where("id = ?", target.ID).Take(&reloaded).Error)

		var edges int64
		require.NoError(t, db.Model(&models.Follow{}).Where("following_id = ?", target.ID).Count(&edges).Error)
		assert.EqualValues(t, followers, edges)
		assert.EqualValues(t, edges, reloaded.FollowersCount)
	})
}
