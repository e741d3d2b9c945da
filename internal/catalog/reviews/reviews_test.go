package reviews

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-catalog/internal/shared/eventbus"
	sqlitedriver "campus-catalog/internal/shared/storage/driver/sqlite"
	"campus-catalog/internal/shared/storage/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return NewStore(store, eventbus.NewMemoryBus(), nil)
}

func TestAddAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r, err := s.Add(ctx, "student-1", "course-1", 5, "great course")
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.False(t, r.CreatedAt.IsZero())

	// 同一学生重复评价不受限制，评分范围也不校验
	_, err = s.Add(ctx, "student-1", "course-1", 99, "again")
	require.NoError(t, err)
	_, err = s.Add(ctx, "student-2", "course-1", -1, "")
	require.NoError(t, err)

	got, err := s.ListForCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.ListForCourse(ctx, "course-other")
	require.NoError(t, err)
	assert.Empty(t, got)
}
