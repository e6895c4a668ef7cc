// Package sqlite3test provides migrated SQLite databases and fixtures for tests.
package sqlite3test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/bazaar/contents"
	"github.com/nasermirzaei89/bazaar/db/sqlite3"
	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/users"
	"github.com/stretchr/testify/require"
)

// New opens a migrated database file under t.TempDir and closes it when the test ends.
func New(t testing.TB) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "bazaar.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sqlite3.NewDB(context.Background(), dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	err = sqlite3.MigrateUp(context.Background(), db)
	require.NoError(t, err)

	return db
}

func CreateUser(t testing.TB, db *sql.DB, username string) *users.User {
	t.Helper()

	timeNow := time.Now().UTC()
	user := &users.User{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: username,
		CreatedAt:   timeNow,
		UpdatedAt:   timeNow,
	}

	err := sqlite3.NewUserRepository(db).Insert(context.Background(), user)
	require.NoError(t, err)

	return user
}

func CreatePost(t testing.TB, db *sql.DB, authorID string, tags ...string) *contents.Post {
	t.Helper()

	timeNow := time.Now().UTC()
	post := &contents.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     "Rebuilt a carburetor",
		Content:   "Notes from the weekend.",
		Tags:      tags,
		CreatedAt: timeNow,
		UpdatedAt: timeNow,
	}

	err := sqlite3.NewPostRepository(db).Insert(context.Background(), post)
	require.NoError(t, err)

	return post
}

func CreateListing(t testing.TB, db *sql.DB, sellerID string, tags ...string) *contents.Listing {
	t.Helper()

	timeNow := time.Now().UTC()
	listing := &contents.Listing{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		Title:       "Front brake caliper",
		Description: "Used, good condition.",
		PriceCents:  4500,
		Tags:        tags,
		CreatedAt:   timeNow,
		UpdatedAt:   timeNow,
	}

	err := sqlite3.NewListingRepository(db).Insert(context.Background(), listing)
	require.NoError(t, err)

	return listing
}

func CreateImage(t testing.TB, db *sql.DB, uploaderID string, listingID *string) *contents.Image {
	t.Helper()

	timeNow := time.Now().UTC()
	image := &contents.Image{
		ID:         uuid.NewString(),
		UploaderID: uploaderID,
		ListingID:  listingID,
		URL:        "https://img.example.com/" + uuid.NewString() + ".jpg",
		Caption:    "Left side",
		CreatedAt:  timeNow,
		UpdatedAt:  timeNow,
	}

	err := sqlite3.NewImageRepository(db).Insert(context.Background(), image)
	require.NoError(t, err)

	return image
}

// CreateComment inserts a top-level comment on a post, or a reply when parent is not nil.
func CreateComment(t testing.TB, db *sql.DB, authorID string, postID string, parent *discuss.Comment) *discuss.Comment {
	t.Helper()

	timeNow := time.Now().UTC()
	comment := &discuss.Comment{
		ID:            uuid.NewString(),
		ContainerType: discuss.ContainerTypePost,
		ContainerID:   postID,
		AuthorID:      authorID,
		Text:          "Which year is it from?",
		CreatedAt:     timeNow,
		UpdatedAt:     timeNow,
	}

	repo := sqlite3.NewCommentRepository(db)

	var err error

	if parent != nil {
		comment.ContainerType = parent.ContainerType
		comment.ContainerID = parent.ContainerID
		comment.ParentID = &parent.ID
		err = repo.InsertReply(context.Background(), comment)
	} else {
		err = repo.Insert(context.Background(), comment)
	}

	require.NoError(t, err)

	return comment
}
