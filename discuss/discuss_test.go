package discuss_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/db/sqlite3"
	"github.com/nasermirzaei89/bazaar/db/sqlite3/sqlite3test"
	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*discuss.Service, *users.Service, *sql.DB) {
	t.Helper()

	db := sqlite3test.New(t)
	userSvc := users.NewService(sqlite3.NewUserRepository(db))

	return discuss.NewService(sqlite3.NewCommentRepository(db), userSvc), userSvc, db
}

func TestReplyCountIntegrity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, db := newService(t)

	author := sqlite3test.CreateUser(t, db, "author")
	post := sqlite3test.CreatePost(t, db, author.ID)

	parent, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
		ContainerType: discuss.ContainerTypePost,
		ContainerID:   post.ID,
		AuthorID:      author.ID,
		Text:          "Does this fit a 1998 Civic?",
	})
	require.NoError(t, err)

	replyIDs := make([]string, 0, 5)

	for range 5 {
		reply, err := svc.CreateReply(ctx, discuss.CreateReplyRequest{
			ParentID: parent.ID,
			AuthorID: author.ID,
			Text:     "It does.",
		})
		require.NoError(t, err)
		require.NotNil(t, reply.ParentID)
		assert.Equal(t, parent.ID, *reply.ParentID)
		assert.Equal(t, post.ID, reply.ContainerID)

		replyIDs = append(replyIDs, reply.ID)
	}

	parent, err = svc.GetComment(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, parent.ReplyCount)

	for _, id := range replyIDs[:2] {
		_, err := svc.SoftDeleteByAuthor(ctx, id, author.ID)
		require.NoError(t, err)
	}

	parent, err = svc.GetComment(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, parent.ReplyCount)

	_, err = svc.SoftDeleteByAuthor(ctx, replyIDs[0], author.ID)
	require.ErrorIs(t, err, apperror.ErrConflict)

	parent, err = svc.GetComment(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, parent.ReplyCount)
}

func TestSoftDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, db := newService(t)

	author := sqlite3test.CreateUser(t, db, "author")
	other := sqlite3test.CreateUser(t, db, "other")
	listing := sqlite3test.CreateListing(t, db, author.ID)

	comment, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
		ContainerType: discuss.ContainerTypeListing,
		ContainerID:   listing.ID,
		AuthorID:      author.ID,
		Text:          "Price is firm.",
	})
	require.NoError(t, err)

	t.Run("not the author", func(t *testing.T) {
		_, err := svc.SoftDeleteByAuthor(ctx, comment.ID, other.ID)
		require.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("admin without reason", func(t *testing.T) {
		_, err := svc.SoftDeleteByAdmin(ctx, comment.ID, other.ID, " ")
		require.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("admin", func(t *testing.T) {
		deleted, err := svc.SoftDeleteByAdmin(ctx, comment.ID, other.ID, "harassment")
		require.NoError(t, err)
		assert.True(t, deleted.IsDeletedByAdmin)
		assert.False(t, deleted.IsDeletedByUser)
		assert.Equal(t, discuss.RemovedText, deleted.Text)
		assert.Equal(t, "harassment", deleted.DeletedReason)
	})

	t.Run("reply to removed comment", func(t *testing.T) {
		_, err := svc.CreateReply(ctx, discuss.CreateReplyRequest{ParentID: comment.ID, AuthorID: other.ID, Text: "ok"})
		require.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("missing comment", func(t *testing.T) {
		_, err := svc.SoftDeleteByAuthor(ctx, "missing", author.ID)
		require.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestCreateCommentValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, userSvc, db := newService(t)

	author := sqlite3test.CreateUser(t, db, "author")
	admin := sqlite3test.CreateUser(t, db, "admin")
	post := sqlite3test.CreatePost(t, db, author.ID)

	tests := []struct {
		name     string
		req      discuss.CreateCommentRequest
		expected error
	}{
		{
			name:     "bad container type",
			req:      discuss.CreateCommentRequest{ContainerType: "wiki", ContainerID: post.ID, AuthorID: author.ID, Text: "hi"},
			expected: apperror.ErrValidation,
		},
		{
			name:     "empty text",
			req:      discuss.CreateCommentRequest{ContainerType: discuss.ContainerTypePost, ContainerID: post.ID, AuthorID: author.ID, Text: "  "},
			expected: apperror.ErrValidation,
		},
		{
			name:     "missing container",
			req:      discuss.CreateCommentRequest{ContainerType: discuss.ContainerTypePost, ContainerID: "missing", AuthorID: author.ID, Text: "hi"},
			expected: apperror.ErrNotFound,
		},
		{
			name:     "unknown author",
			req:      discuss.CreateCommentRequest{ContainerType: discuss.ContainerTypePost, ContainerID: post.ID, AuthorID: "ghost", Text: "hi"},
			expected: apperror.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateComment(ctx, tt.req)
			require.ErrorIs(t, err, tt.expected)
		})
	}

	t.Run("muted author", func(t *testing.T) {
		_, err := userSvc.Mute(ctx, users.MuteRequest{AdminID: admin.ID, UserID: author.ID, Reason: "spam"})
		require.NoError(t, err)

		_, err = svc.CreateComment(ctx, discuss.CreateCommentRequest{
			ContainerType: discuss.ContainerTypePost,
			ContainerID:   post.ID,
			AuthorID:      author.ID,
			Text:          "hello",
		})
		require.ErrorIs(t, err, apperror.ErrForbidden)

		var muted *users.UserMutedError
		require.ErrorAs(t, err, &muted)
	})
}

func TestPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, db := newService(t)

	author := sqlite3test.CreateUser(t, db, "author")
	post := sqlite3test.CreatePost(t, db, author.ID)

	for range 5 {
		sqlite3test.CreateComment(t, db, author.ID, post.ID, nil)
	}

	collect := func() ([]int, int) {
		sizes := make([]int, 0)
		seen := 0

		for page, err := range svc.Pages(ctx, discuss.ContainerTypePost, post.ID, 2) {
			require.NoError(t, err)

			sizes = append(sizes, len(page.Comments))
			seen += len(page.Comments)
		}

		return sizes, seen
	}

	sizes, seen := collect()
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, 5, seen)

	sizes, _ = collect()
	assert.Equal(t, []int{2, 2, 1}, sizes)

	for page, err := range svc.Pages(ctx, discuss.ContainerTypePost, post.ID, 500) {
		assert.Nil(t, page)
		require.ErrorIs(t, err, apperror.ErrValidation)
	}
}

func TestListReplies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, db := newService(t)

	author := sqlite3test.CreateUser(t, db, "author")
	post := sqlite3test.CreatePost(t, db, author.ID)
	parent := sqlite3test.CreateComment(t, db, author.ID, post.ID, nil)

	for range 3 {
		sqlite3test.CreateComment(t, db, author.ID, post.ID, parent)
	}

	page, err := svc.ListReplies(ctx, parent.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 2)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasNext)

	page, err = svc.ListReplies(ctx, parent.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 1)
	assert.False(t, page.HasNext)

	_, err = svc.ListReplies(ctx, "missing", 1, 2)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
