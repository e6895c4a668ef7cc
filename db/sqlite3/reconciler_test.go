package sqlite3_test

import (
	"context"
	"testing"
	"time"

	"github.com/nasermirzaei89/bazaar/db/sqlite3"
	"github.com/nasermirzaei89/bazaar/db/sqlite3/sqlite3test"
	"github.com/nasermirzaei89/bazaar/votes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := sqlite3test.New(t)
	reconciler := sqlite3.NewReconciler(db)

	author := sqlite3test.CreateUser(t, db, "author")
	post := sqlite3test.CreatePost(t, db, author.ID)
	parent := sqlite3test.CreateComment(t, db, author.ID, post.ID, nil)
	sqlite3test.CreateComment(t, db, author.ID, post.ID, parent)

	_, err := sqlite3.NewVoteRepository(db).Toggle(ctx, votes.TargetTypePost, post.ID, "u1", votes.DirectionUp, time.Now())
	require.NoError(t, err)

	drifts, err := reconciler.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	_, err = db.ExecContext(ctx, "UPDATE posts SET votes = 7 WHERE id = ?", post.ID)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "UPDATE comments SET reply_count = 4 WHERE id = ?", parent.ID)
	require.NoError(t, err)

	drifts, err = reconciler.Check(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []sqlite3.Drift{
		{Kind: sqlite3.DriftKindVotes, Table: "posts", ID: post.ID, Actual: 7, Expected: 1},
		{Kind: sqlite3.DriftKindReplyCount, Table: "comments", ID: parent.ID, Actual: 4, Expected: 1},
	}, drifts)

	fixed, err := reconciler.Fix(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fixed)

	drifts, err = reconciler.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
