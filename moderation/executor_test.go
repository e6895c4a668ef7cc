package moderation_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/nasermirzaei89/bazaar/apperror"
	"github.com/nasermirzaei89/bazaar/auth"
	"github.com/nasermirzaei89/bazaar/contents"
	"github.com/nasermirzaei89/bazaar/db/sqlite3"
	"github.com/nasermirzaei89/bazaar/db/sqlite3/sqlite3test"
	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/moderation"
	"github.com/nasermirzaei89/bazaar/notify"
	"github.com/nasermirzaei89/bazaar/reports"
	"github.com/nasermirzaei89/bazaar/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID     = "admin-1"
	adminReason = "confirmed counterfeit parts"
)

var errDiskIO = errors.New("disk I/O error")

type recordingNotifier struct {
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.events = append(n.events, event)

	return nil
}

type countingRecorder struct {
	actions       map[string]int
	compensations map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{actions: make(map[string]int), compensations: make(map[string]int)}
}

func (r *countingRecorder) ModerationAction(kind, outcome string) {
	r.actions[kind+"/"+outcome]++
}

func (r *countingRecorder) Compensation(result string) {
	r.compensations[result]++
}

// failingStore runs actions against the real store but fails the mute step, and optionally
// the compensating reopen.
type failingStore struct {
	moderation.Store

	failReopen bool
}

type failingTx struct {
	moderation.Tx
}

func (tx failingTx) MuteUser(context.Context, string, users.MuteState, time.Time) error {
	return errDiskIO
}

func (store failingStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx moderation.Tx) error) error {
	return store.Store.RunInTx(ctx, func(ctx context.Context, tx moderation.Tx) error {
		return fn(ctx, failingTx{Tx: tx})
	})
}

func (store failingStore) ReopenReport(ctx context.Context, reportID string, note string, at time.Time) error {
	if store.failReopen {
		return errors.New("database is locked")
	}

	return store.Store.ReopenReport(ctx, reportID, note, at)
}

type fixture struct {
	db       *sql.DB
	now      time.Time
	reports  *reports.Service
	notifier *recordingNotifier
	recorder *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := sqlite3test.New(t)

	return &fixture{
		db:       db,
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		reports:  reports.NewService(sqlite3.NewReportRepository(db), sqlite3.NewItemResolver(db), nil, nil),
		notifier: &recordingNotifier{},
		recorder: newCountingRecorder(),
	}
}

func (f *fixture) executor(store moderation.Store) *moderation.Executor {
	return moderation.NewExecutor(store, f.notifier, f.recorder).WithClock(func() time.Time { return f.now })
}

func (f *fixture) fileReport(t *testing.T, itemType reports.ItemType, itemID string) *reports.Report {
	t.Helper()

	report, err := f.reports.FileReport(context.Background(), reports.FileReportRequest{
		ReporterID: "reporter-1",
		ItemID:     itemID,
		ItemType:   itemType,
		Reason:     "looks like a scam to me",
	})
	require.NoError(t, err)

	return report
}

func (f *fixture) getReport(t *testing.T, reportID string) *reports.Report {
	t.Helper()

	report, err := sqlite3.NewReportRepository(f.db).Find(context.Background(), reportID)
	require.NoError(t, err)

	return report
}

func (f *fixture) getUser(t *testing.T, userID string) *users.User {
	t.Helper()

	user, err := sqlite3.NewUserRepository(f.db).Find(context.Background(), userID)
	require.NoError(t, err)

	return user
}

func intPtr(i int) *int { return &i }

func TestExecuteDeleteComment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	author := sqlite3test.CreateUser(t, f.db, "author")
	post := sqlite3test.CreatePost(t, f.db, author.ID)
	parent := sqlite3test.CreateComment(t, f.db, author.ID, post.ID, nil)
	reply := sqlite3test.CreateComment(t, f.db, author.ID, post.ID, parent)

	report := f.fileReport(t, reports.ItemTypeComment, reply.ID)

	resolved, err := f.executor(sqlite3.NewModerationStore(f.db)).Execute(ctx, moderation.ActionRequest{
		ReportID:  report.ID,
		Kind:      moderation.ActionDeleteItem,
		AdminID:   adminID,
		AdminTags: []string{auth.AllTags},
		Reason:    adminReason,
	})
	require.NoError(t, err)
	assert.Equal(t, reports.StatusResolvedActionTaken, resolved.Status)
	require.NotNil(t, resolved.ResolvedByAdminID)
	assert.Equal(t, adminID, *resolved.ResolvedByAdminID)
	require.NotNil(t, resolved.ResolvedAt)
	assert.True(t, resolved.ResolvedAt.Equal(f.now))
	assert.Contains(t, resolved.AdminNotes, adminReason)
	assert.Contains(t, resolved.AdminNotes, "item deleted")

	comments := sqlite3.NewCommentRepository(f.db)

	removed, err := comments.Find(ctx, reply.ID)
	require.NoError(t, err)
	assert.True(t, removed.IsDeletedByAdmin)
	assert.Equal(t, discuss.RemovedText, removed.Text)
	assert.Equal(t, adminReason, removed.DeletedReason)

	parent, err = comments.Find(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, parent.ReplyCount)

	assert.False(t, f.getUser(t, author.ID).Mute.IsMuted)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notify.EventModerationActionTaken, f.notifier.events[0].Type)
	assert.Equal(t, 1, f.recorder.actions["delete_item/resolved_action_taken"])
}

func TestExecuteDeleteListingAndMuteSeller(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	seller := sqlite3test.CreateUser(t, f.db, "seller")
	listing := sqlite3test.CreateListing(t, f.db, seller.ID, "honda")
	report := f.fileReport(t, reports.ItemTypeListing, listing.ID)

	resolved, err := f.executor(sqlite3.NewModerationStore(f.db)).Execute(ctx, moderation.ActionRequest{
		ReportID:         report.ID,
		Kind:             moderation.ActionDeleteItemAndMute,
		AdminID:          adminID,
		AdminTags:        []string{"Honda"},
		Reason:           adminReason,
		MuteDurationDays: intPtr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, reports.StatusResolvedActionTaken, resolved.Status)

	stored, err := sqlite3.NewListingRepository(f.db).Find(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeletedByAdmin)
	assert.Equal(t, contents.RemovedTitle, stored.Title)

	mute := f.getUser(t, seller.ID).Mute
	assert.True(t, mute.IsMuted)
	assert.Equal(t, adminID, mute.MutedByAdminID)
	assert.Equal(t, moderation.MuteReason(report, adminReason), mute.Reason)
	require.NotNil(t, mute.ExpiresAt)
	assert.True(t, mute.ExpiresAt.Equal(f.now.AddDate(0, 0, 7)))

	err = users.NewService(sqlite3.NewUserRepository(f.db)).
		WithClock(func() time.Time { return f.now.Add(time.Hour) }).
		CheckCanPost(ctx, seller.ID)
	require.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestExecuteFailureRollsBackAndReopens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	seller := sqlite3test.CreateUser(t, f.db, "seller")
	listing := sqlite3test.CreateListing(t, f.db, seller.ID)
	report := f.fileReport(t, reports.ItemTypeListing, listing.ID)

	store := failingStore{Store: sqlite3.NewModerationStore(f.db)}

	_, err := f.executor(store).Execute(ctx, moderation.ActionRequest{
		ReportID:  report.ID,
		Kind:      moderation.ActionDeleteItemAndMute,
		AdminID:   adminID,
		AdminTags: []string{auth.AllTags},
		Reason:    adminReason,
	})
	require.ErrorIs(t, err, apperror.ErrTransactionFailure)
	require.ErrorIs(t, err, errDiskIO)

	var txErr *moderation.TransactionFailureError
	require.ErrorAs(t, err, &txErr)
	assert.True(t, txErr.Compensated)

	stored, err := sqlite3.NewListingRepository(f.db).Find(ctx, listing.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsDeletedByAdmin)
	assert.Equal(t, listing.Title, stored.Title)

	assert.False(t, f.getUser(t, seller.ID).Mute.IsMuted)

	reopened := f.getReport(t, report.ID)
	assert.Equal(t, reports.StatusOpen, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Nil(t, reopened.ResolvedByAdminID)
	assert.Contains(t, reopened.AdminNotes, "failed and was rolled back")
	assert.NotContains(t, reopened.AdminNotes, "item deleted")

	assert.Empty(t, f.notifier.events)
	assert.Equal(t, 1, f.recorder.compensations["succeeded"])
	assert.Equal(t, 1, f.recorder.actions["delete_item_and_mute/failed"])
}

func TestExecuteFailedCompensation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	seller := sqlite3test.CreateUser(t, f.db, "seller")
	listing := sqlite3test.CreateListing(t, f.db, seller.ID)
	report := f.fileReport(t, reports.ItemTypeListing, listing.ID)

	store := failingStore{Store: sqlite3.NewModerationStore(f.db), failReopen: true}

	_, err := f.executor(store).Execute(ctx, moderation.ActionRequest{
		ReportID:  report.ID,
		Kind:      moderation.ActionDeleteItemAndMute,
		AdminID:   adminID,
		AdminTags: []string{auth.AllTags},
		Reason:    adminReason,
	})

	var txErr *moderation.TransactionFailureError
	require.ErrorAs(t, err, &txErr)
	assert.False(t, txErr.Compensated)
	assert.Equal(t, 1, f.recorder.compensations["failed"])

	stored := f.getReport(t, report.ID)
	assert.Equal(t, reports.StatusOpen, stored.Status)
	assert.Empty(t, stored.AdminNotes)
}

func TestExecuteItemAlreadyGone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	author := sqlite3test.CreateUser(t, f.db, "author")
	post := sqlite3test.CreatePost(t, f.db, author.ID)
	report := f.fileReport(t, reports.ItemTypePost, post.ID)

	_, err := f.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", post.ID)
	require.NoError(t, err)

	executor := f.executor(sqlite3.NewModerationStore(f.db))
	req := moderation.ActionRequest{
		ReportID:  report.ID,
		Kind:      moderation.ActionDeleteItem,
		AdminID:   adminID,
		AdminTags: []string{auth.AllTags},
		Reason:    adminReason,
	}

	resolved, err := executor.Execute(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, reports.StatusResolvedActionTaken, resolved.Status)
	assert.Contains(t, resolved.AdminNotes, "item no longer exists")

	f.now = f.now.Add(time.Hour)
	req.AdminID = "admin-2"

	rerun, err := executor.Execute(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, reports.StatusResolvedActionTaken, rerun.Status)
	require.NotNil(t, rerun.ResolvedByAdminID)
	assert.Equal(t, "admin-2", *rerun.ResolvedByAdminID)
	assert.True(t, rerun.ResolvedAt.Equal(f.now))
}

func TestExecuteUnknownItemType(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	report := &reports.Report{
		ID:         "legacy-report",
		ReporterID: "reporter-1",
		ItemID:     "page-1",
		ItemType:   "wiki_page",
		Reason:     "vandalized the page",
		Snapshot:   []byte("{}"),
		Status:     reports.StatusOpen,
		CreatedAt:  f.now,
		UpdatedAt:  f.now,
	}
	require.NoError(t, sqlite3.NewReportRepository(f.db).Insert(ctx, report))

	resolved, err := f.executor(sqlite3.NewModerationStore(f.db)).Execute(ctx, moderation.ActionRequest{
		ReportID:  report.ID,
		Kind:      moderation.ActionDeleteItem,
		AdminID:   adminID,
		AdminTags: []string{auth.AllTags},
		Reason:    adminReason,
	})
	require.NoError(t, err)
	assert.Equal(t, reports.StatusResolvedNoAction, resolved.Status)
	assert.Contains(t, resolved.AdminNotes, `no action available for item type "wiki_page"`)
}

func TestExecuteMuteExceptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("owner is the acting admin", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		admin := sqlite3test.CreateUser(t, f.db, "admin")
		post := sqlite3test.CreatePost(t, f.db, admin.ID)
		report := f.fileReport(t, reports.ItemTypePost, post.ID)

		resolved, err := f.executor(sqlite3.NewModerationStore(f.db)).Execute(ctx, moderation.ActionRequest{
			ReportID:  report.ID,
			Kind:      moderation.ActionDeleteItemAndMute,
			AdminID:   admin.ID,
			AdminTags: []string{auth.AllTags},
			Reason:    adminReason,
		})
		require.NoError(t, err)
		assert.Equal(t, reports.StatusResolvedActionTaken, resolved.Status)
		assert.Contains(t, resolved.AdminNotes, "mute refused")
		assert.False(t, f.getUser(t, admin.ID).Mute.IsMuted)

		stored, err := sqlite3.NewPostRepository(f.db).Find(ctx, post.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsDeletedByAdmin)
	})

	t.Run("item already deleted still mutes", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		author := sqlite3test.CreateUser(t, f.db, "author")
		post := sqlite3test.CreatePost(t, f.db, author.ID)
		comment := sqlite3test.CreateComment(t, f.db, author.ID, post.ID, nil)
		report := f.fileReport(t, reports.ItemTypeComment, comment.ID)

		_, err := sqlite3.NewCommentRepository(f.db).SoftDelete(ctx, comment.ID, discuss.SoftDelete{
			By: discuss.DeletedByUser,
			At: f.now,
		})
		require.NoError(t, err)

		resolved, err := f.executor(sqlite3.NewModerationStore(f.db)).Execute(ctx, moderation.ActionRequest{
			ReportID:  report.ID,
			Kind:      moderation.ActionDeleteItemAndMute,
			AdminID:   adminID,
			AdminTags: []string{auth.AllTags},
			Reason:    adminReason,
		})
		require.NoError(t, err)
		assert.Contains(t, resolved.AdminNotes, "item was already deleted")
		assert.Contains(t, resolved.AdminNotes, "muted indefinitely")

		mute := f.getUser(t, author.ID).Mute
		assert.True(t, mute.IsMuted)
		assert.Nil(t, mute.ExpiresAt)
	})

	t.Run("reported user is suspended and muted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		user := sqlite3test.CreateUser(t, f.db, "spammer")
		report := f.fileReport(t, reports.ItemTypeUser, user.ID)

		_, err := f.executor(sqlite3.NewModerationStore(f.db)).Execute(ctx, moderation.ActionRequest{
			ReportID:         report.ID,
			Kind:             moderation.ActionDeleteItemAndMute,
			AdminID:          adminID,
			AdminTags:        []string{auth.AllTags},
			Reason:           adminReason,
			MuteDurationDays: intPtr(30),
		})
		require.NoError(t, err)

		stored := f.getUser(t, user.ID)
		assert.True(t, stored.IsDeletedByAdmin)
		assert.Equal(t, contents.RemovedTitle, stored.DisplayName)
		assert.True(t, stored.Mute.IsMuted)
	})

	t.Run("image uploader is muted", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		uploader := sqlite3test.CreateUser(t, f.db, "uploader")
		image := sqlite3test.CreateImage(t, f.db, uploader.ID, nil)
		report := f.fileReport(t, reports.ItemTypeImage, image.ID)

		_, err := f.executor(sqlite3.NewModerationStore(f.db)).Execute(ctx, moderation.ActionRequest{
			ReportID:         report.ID,
			Kind:             moderation.ActionDeleteItemAndMute,
			AdminID:          adminID,
			AdminTags:        []string{auth.AllTags},
			Reason:           adminReason,
			MuteDurationDays: intPtr(1),
		})
		require.NoError(t, err)

		stored, err := sqlite3.NewImageRepository(f.db).Find(ctx, image.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsDeletedByAdmin)
		assert.True(t, f.getUser(t, uploader.ID).Mute.IsMuted)
	})
}

func TestExecuteClassifiedErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	seller := sqlite3test.CreateUser(t, f.db, "seller")
	listing := sqlite3test.CreateListing(t, f.db, seller.ID, "bmw")
	report := f.fileReport(t, reports.ItemTypeListing, listing.ID)

	base := moderation.ActionRequest{
		ReportID:  report.ID,
		Kind:      moderation.ActionDeleteItemAndMute,
		AdminID:   adminID,
		AdminTags: []string{auth.AllTags},
		Reason:    adminReason,
	}

	tests := []struct {
		name     string
		modify   func(req *moderation.ActionRequest)
		expected error
	}{
		{name: "short reason", modify: func(req *moderation.ActionRequest) { req.Reason = "spam" }, expected: apperror.ErrValidation},
		{name: "unknown kind", modify: func(req *moderation.ActionRequest) { req.Kind = "ban" }, expected: apperror.ErrValidation},
		{name: "duration too long", modify: func(req *moderation.ActionRequest) { req.MuteDurationDays = intPtr(31) }, expected: apperror.ErrValidation},
		{name: "duration too short", modify: func(req *moderation.ActionRequest) { req.MuteDurationDays = intPtr(0) }, expected: apperror.ErrValidation},
		{
			name: "duration without mute",
			modify: func(req *moderation.ActionRequest) {
				req.Kind = moderation.ActionDeleteItem
				req.MuteDurationDays = intPtr(3)
			},
			expected: apperror.ErrValidation,
		},
		{name: "not an admin", modify: func(req *moderation.ActionRequest) { req.AdminTags = nil }, expected: apperror.ErrForbidden},
		{name: "outside tag scope", modify: func(req *moderation.ActionRequest) { req.AdminTags = []string{"honda"} }, expected: apperror.ErrForbidden},
		{name: "missing report", modify: func(req *moderation.ActionRequest) { req.ReportID = "missing" }, expected: apperror.ErrNotFound},
	}

	executor := f.executor(sqlite3.NewModerationStore(f.db))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.modify(&req)

			_, err := executor.Execute(ctx, req)
			require.ErrorIs(t, err, tt.expected)
			assert.NotErrorIs(t, err, apperror.ErrTransactionFailure)
		})
	}

	stored := f.getReport(t, report.ID)
	assert.Equal(t, reports.StatusOpen, stored.Status)
	assert.Empty(t, stored.AdminNotes)
	assert.Empty(t, f.recorder.compensations)
	assert.False(t, f.getUser(t, seller.ID).Mute.IsMuted)
}
