package sqlite3_test

import (
	"context"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/db/sqlite3"
	"github.com/nasermirzaei89/bazaar/db/sqlite3/sqlite3test"
	"github.com/nasermirzaei89/bazaar/votes"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteRepositoryToggle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := sqlite3test.New(t)
	repo := sqlite3.NewVoteRepository(db)

	author := sqlite3test.CreateUser(t, db, "author")
	post := sqlite3test.CreatePost(t, db, author.ID)

	t.Run("double vote cancels", func(t *testing.T) {
		tally, err := repo.Toggle(ctx, votes.TargetTypePost, post.ID, "u1", votes.DirectionUp, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, tally.Votes)
		assert.Equal(t, []string{"u1"}, tally.UpvotedBy)
		assert.Equal(t, votes.DirectionUp, tally.UserVote)

		tally, err = repo.Toggle(ctx, votes.TargetTypePost, post.ID, "u1", votes.DirectionUp, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 0, tally.Votes)
		assert.Empty(t, tally.UpvotedBy)
		assert.Empty(t, tally.DownvotedBy)
		assert.Equal(t, votes.DirectionNone, tally.UserVote)
	})

	t.Run("switch has magnitude two", func(t *testing.T) {
		tally, err := repo.Toggle(ctx, votes.TargetTypePost, post.ID, "u2", votes.DirectionDown, time.Now())
		require.NoError(t, err)
		assert.Equal(t, -1, tally.Votes)

		tally, err = repo.Toggle(ctx, votes.TargetTypePost, post.ID, "u2", votes.DirectionUp, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, tally.Votes)
		assert.Equal(t, []string{"u2"}, tally.UpvotedBy)
		assert.Empty(t, tally.DownvotedBy)
	})
}

func TestVoteRepositoryToggleTargets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := sqlite3test.New(t)
	repo := sqlite3.NewVoteRepository(db)

	author := sqlite3test.CreateUser(t, db, "author")
	post := sqlite3test.CreatePost(t, db, author.ID)
	comment := sqlite3test.CreateComment(t, db, author.ID, post.ID, nil)
	image := sqlite3test.CreateImage(t, db, author.ID, nil)

	t.Run("comment", func(t *testing.T) {
		tally, err := repo.Toggle(ctx, votes.TargetTypeComment, comment.ID, "u1", votes.DirectionDown, time.Now())
		require.NoError(t, err)
		assert.Equal(t, -1, tally.Votes)
	})

	t.Run("image", func(t *testing.T) {
		tally, err := repo.Toggle(ctx, votes.TargetTypeImage, image.ID, "u1", votes.DirectionUp, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, tally.Votes)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := repo.Toggle(ctx, votes.TargetTypePost, "missing", "u1", votes.DirectionUp, time.Now())
		require.ErrorIs(t, err, apperror.ErrNotFound)

		var notFound *votes.TargetNotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("deleted target", func(t *testing.T) {
		_, err := repo.Toggle(ctx, votes.TargetTypePost, post.ID, "u9", votes.DirectionUp, time.Now())
		require.NoError(t, err)

		_, err = db.ExecContext(ctx, "UPDATE posts SET is_deleted_by_admin = 1 WHERE id = ?", post.ID)
		require.NoError(t, err)

		_, err = repo.Toggle(ctx, votes.TargetTypePost, post.ID, "u9", votes.DirectionUp, time.Now())
		require.ErrorIs(t, err, apperror.ErrConflict)

		tally, err := repo.GetTally(ctx, votes.TargetTypePost, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, tally.Votes)
		assert.Equal(t, []string{"u9"}, tally.UpvotedBy)
	})
}

func TestVoteRepositoryRandomSequenceKeepsScoreConsistent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := sqlite3test.New(t)
	repo := sqlite3.NewVoteRepository(db)

	author := sqlite3test.CreateUser(t, db, "author")
	post := sqlite3test.CreatePost(t, db, author.ID)

	rng := rand.New(rand.NewPCG(1, 2))
	directions := []votes.Direction{votes.DirectionUp, votes.DirectionDown}

	for range 200 {
		userID := "u" + strconv.Itoa(rng.IntN(8))
		direction := directions[rng.IntN(len(directions))]

		tally, err := repo.Toggle(ctx, votes.TargetTypePost, post.ID, userID, direction, time.Now())
		require.NoError(t, err)

		assert.Equal(t, len(tally.UpvotedBy)-len(tally.DownvotedBy), tally.Votes)
		assert.Empty(t, lo.Intersect(tally.UpvotedBy, tally.DownvotedBy))
	}

	drifts, err := sqlite3.NewReconciler(db).Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestVoteRepositoryConcurrentVoters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := sqlite3test.New(t)
	repo := sqlite3.NewVoteRepository(db)

	author := sqlite3test.CreateUser(t, db, "author")
	post := sqlite3test.CreatePost(t, db, author.ID)

	const voters = 20

	var wg sync.WaitGroup

	errs := make(chan error, voters*2)

	for i := range voters {
		wg.Add(1)

		go func() {
			defer wg.Done()

			userID := "u" + strconv.Itoa(i)

			// Each voter upvotes twice while the others do the same; the pair must cancel.
			for range 2 {
				_, err := repo.Toggle(ctx, votes.TargetTypePost, post.ID, userID, votes.DirectionUp, time.Now())
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	tally, err := repo.GetTally(ctx, votes.TargetTypePost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Votes)
	assert.Empty(t, tally.UpvotedBy)
}

func TestVoteRepositoryConcurrentSameVoter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := sqlite3test.New(t)
	repo := sqlite3.NewVoteRepository(db)

	author := sqlite3test.CreateUser(t, db, "author")
	post := sqlite3test.CreatePost(t, db, author.ID)

	const rounds = 25

	for round := range rounds {
		var wg sync.WaitGroup

		errs := make(chan error, 2)

		for range 2 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := repo.Toggle(ctx, votes.TargetTypePost, post.ID, "u1", votes.DirectionUp, time.Now())
				errs <- err
			}()
		}

		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err, "round %d", round)
		}

		tally, err := repo.GetTally(ctx, votes.TargetTypePost, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, tally.Votes, "round %d", round)
		assert.Empty(t, tally.UpvotedBy, "round %d", round)
		assert.Empty(t, tally.DownvotedBy, "round %d", round)
	}

	drifts, err := sqlite3.NewReconciler(db).Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
