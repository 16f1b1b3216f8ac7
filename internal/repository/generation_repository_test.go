package repository

import (
	"testing"
	"time"

	"seogen/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *GenerationRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Generation{}))

	return NewGenerationRepository(db)
}

func TestCreateAndCount(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(&models.Generation{
		UserID: 1, Topic: "t", Keyword: "k", Output: "o",
	}))

	count, err := repo.CountByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountByUserID(2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestListByUserIDNewestFirst(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now().Add(-time.Hour)
	for i, topic := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, repo.Create(&models.Generation{
			UserID:    1,
			Topic:     topic,
			Keyword:   "k",
			Output:    "o",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	// 其他用户的记录不应出现在列表里
	require.NoError(t, repo.Create(&models.Generation{
		UserID: 2, Topic: "other", Keyword: "k", Output: "o",
	}))

	generations, err := repo.ListByUserID(1)
	require.NoError(t, err)

	require.Len(t, generations, 3)
	assert.Equal(t, "newest", generations[0].Topic)
	assert.Equal(t, "middle", generations[1].Topic)
	assert.Equal(t, "oldest", generations[2].Topic)
}

func TestDeleteByIDAndUserIDScoped(t *testing.T) {
	repo := newTestRepo(t)

	owned := &models.Generation{UserID: 1, Topic: "t", Keyword: "k", Output: "o"}
	require.NoError(t, repo.Create(owned))

	// 不属于该用户的删除不生效
	rows, err := repo.DeleteByIDAndUserID(owned.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	rows, err = repo.DeleteByIDAndUserID(owned.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	count, err := repo.CountByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestDeleteByUserID(t *testing.T) {
	repo := newTestRepo(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(&models.Generation{
			UserID: 1, Topic: "t", Keyword: "k", Output: "o",
		}))
	}
	require.NoError(t, repo.Create(&models.Generation{
		UserID: 2, Topic: "t", Keyword: "k", Output: "o",
	}))

	require.NoError(t, repo.DeleteByUserID(1))

	count, err := repo.CountByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = repo.CountByUserID(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
