package web

import (
	"encoding/json"
	"time"

	"github.com/nasermirzaei89/bazaar/contents"
	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/reports"
	"github.com/nasermirzaei89/bazaar/users"
	"github.com/nasermirzaei89/bazaar/votes"
	"github.com/samber/lo"
)

type TallyView struct {
	TargetType  votes.TargetType `json:"targetType"`
	TargetID    string           `json:"targetId"`
	Votes       int              `json:"votes"`
	UpvotedBy   []string         `json:"upvotedBy"`
	DownvotedBy []string         `json:"downvotedBy"`
	UserVote    *votes.Direction `json:"userVote"`
}

func newTallyView(tally *votes.Tally) TallyView {
	var userVote *votes.Direction
	if tally.UserVote != votes.DirectionNone {
		userVote = &tally.UserVote
	}

	return TallyView{
		TargetType:  tally.TargetType,
		TargetID:    tally.TargetID,
		Votes:       tally.Votes,
		UpvotedBy:   lo.Ternary(tally.UpvotedBy == nil, []string{}, tally.UpvotedBy),
		DownvotedBy: lo.Ternary(tally.DownvotedBy == nil, []string{}, tally.DownvotedBy),
		UserVote:    userVote,
	}
}

type CommentView struct {
	ID               string                `json:"id"`
	ContainerType    discuss.ContainerType `json:"containerType"`
	ContainerID      string                `json:"containerId"`
	ParentID         *string               `json:"parentId"`
	AuthorID         string                `json:"authorId"`
	Text             string                `json:"text"`
	Votes            int                   `json:"votes"`
	ReplyCount       int                   `json:"replyCount"`
	IsDeletedByUser  bool                  `json:"isDeletedByUser"`
	IsDeletedByAdmin bool                  `json:"isDeletedByAdmin"`
	DeletedReason    string                `json:"deletedReason,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

func newCommentView(comment *discuss.Comment) CommentView {
	return CommentView{
		ID:               comment.ID,
		ContainerType:    comment.ContainerType,
		ContainerID:      comment.ContainerID,
		ParentID:         comment.ParentID,
		AuthorID:         comment.AuthorID,
		Text:             comment.Text,
		Votes:            comment.Votes,
		ReplyCount:       comment.ReplyCount,
		IsDeletedByUser:  comment.IsDeletedByUser,
		IsDeletedByAdmin: comment.IsDeletedByAdmin,
		DeletedReason:    comment.DeletedReason,
		CreatedAt:        comment.CreatedAt,
		UpdatedAt:        comment.UpdatedAt,
	}
}

type PageView[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasNext bool `json:"hasNext"`
}

func newCommentPageView(page *discuss.CommentPage) PageView[CommentView] {
	return PageView[CommentView]{
		Items:   lo.Map(page.Comments, func(c *discuss.Comment, _ int) CommentView { return newCommentView(c) }),
		Page:    page.Page,
		Limit:   page.Limit,
		Total:   page.Total,
		HasNext: page.HasNext,
	}
}

type ReportView struct {
	ID                string           `json:"id"`
	ReporterID        string           `json:"reporterId"`
	ItemID            string           `json:"itemId"`
	ItemType          reports.ItemType `json:"itemType"`
	Tags              []string         `json:"tags"`
	Reason            string           `json:"reason"`
	Snapshot          json.RawMessage  `json:"snapshot"`
	Status            reports.Status   `json:"status"`
	AdminNotes        string           `json:"adminNotes"`
	ResolvedByAdminID *string          `json:"resolvedByAdminId"`
	ResolvedAt        *time.Time       `json:"resolvedAt"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
}

func newReportView(report *reports.Report) ReportView {
	return ReportView{
		ID:                report.ID,
		ReporterID:        report.ReporterID,
		ItemID:            report.ItemID,
		ItemType:          report.ItemType,
		Tags:              lo.Ternary(report.Tags == nil, []string{}, report.Tags),
		Reason:            report.Reason,
		Snapshot:          lo.Ternary(len(report.Snapshot) == 0, json.RawMessage("{}"), report.Snapshot),
		Status:            report.Status,
		AdminNotes:        report.AdminNotes,
		ResolvedByAdminID: report.ResolvedByAdminID,
		ResolvedAt:        report.ResolvedAt,
		CreatedAt:         report.CreatedAt,
		UpdatedAt:         report.UpdatedAt,
	}
}

func newReportPageView(page *reports.ReportPage) PageView[ReportView] {
	return PageView[ReportView]{
		Items:   lo.Map(page.Reports, func(r *reports.Report, _ int) ReportView { return newReportView(r) }),
		Page:    page.Page,
		Limit:   page.Limit,
		Total:   page.Total,
		HasNext: page.HasNext,
	}
}

type MuteView struct {
	IsMuted        bool       `json:"isMuted"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	MutedByAdminID string     `json:"mutedByAdminId,omitempty"`
	Reason         string     `json:"reason,omitempty"`
}

type UserView struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"displayName"`
	Bio              string    `json:"bio"`
	IsDeletedByAdmin bool      `json:"isDeletedByAdmin"`
	Mute             MuteView  `json:"mute"`
	CreatedAt        time.Time `json:"createdAt"`
}

func newUserView(user *users.User) UserView {
	return UserView{
		ID:               user.ID,
		Username:         user.Username,
		DisplayName:      user.DisplayName,
		Bio:              user.Bio,
		IsDeletedByAdmin: user.IsDeletedByAdmin,
		Mute: MuteView{
			IsMuted:        user.Mute.IsMuted,
			ExpiresAt:      user.Mute.ExpiresAt,
			MutedByAdminID: user.Mute.MutedByAdminID,
			Reason:         user.Mute.Reason,
		},
		CreatedAt: user.CreatedAt,
	}
}

type PostView struct {
	ID               string    `json:"id"`
	AuthorID         string    `json:"authorId"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Tags             []string  `json:"tags"`
	Votes            int       `json:"votes"`
	IsDeletedByUser  bool      `json:"isDeletedByUser"`
	IsDeletedByAdmin bool      `json:"isDeletedByAdmin"`
	CreatedAt        time.Time `json:"createdAt"`
}

func newPostView(post *contents.Post) PostView {
	return PostView{
		ID:               post.ID,
		AuthorID:         post.AuthorID,
		Title:            post.Title,
		Content:          post.Content,
		Tags:             lo.Ternary(post.Tags == nil, []string{}, post.Tags),
		Votes:            post.Votes,
		IsDeletedByUser:  post.IsDeletedByUser,
		IsDeletedByAdmin: post.IsDeletedByAdmin,
		CreatedAt:        post.CreatedAt,
	}
}

type ListingView struct {
	ID               string    `json:"id"`
	SellerID         string    `json:"sellerId"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	PriceCents       int64     `json:"priceCents"`
	Tags             []string  `json:"tags"`
	IsDeletedByUser  bool      `json:"isDeletedByUser"`
	IsDeletedByAdmin bool      `json:"isDeletedByAdmin"`
	CreatedAt        time.Time `json:"createdAt"`
}

func newListingView(listing *contents.Listing) ListingView {
	return ListingView{
		ID:               listing.ID,
		SellerID:         listing.SellerID,
		Title:            listing.Title,
		Description:      listing.Description,
		PriceCents:       listing.PriceCents,
		Tags:             lo.Ternary(listing.Tags == nil, []string{}, listing.Tags),
		IsDeletedByUser:  listing.IsDeletedByUser,
		IsDeletedByAdmin: listing.IsDeletedByAdmin,
		CreatedAt:        listing.CreatedAt,
	}
}

type ImageView struct {
	ID               string    `json:"id"`
	UploaderID       string    `json:"uploaderId"`
	ListingID        *string   `json:"listingId"`
	URL              string    `json:"url"`
	Caption          string    `json:"caption"`
	Votes            int       `json:"votes"`
	IsDeletedByUser  bool      `json:"isDeletedByUser"`
	IsDeletedByAdmin bool      `json:"isDeletedByAdmin"`
	CreatedAt        time.Time `json:"createdAt"`
}

func newImageView(image *contents.Image) ImageView {
	return ImageView{
		ID:               image.ID,
		UploaderID:       image.UploaderID,
		ListingID:        image.ListingID,
		URL:              image.URL,
		Caption:          image.Caption,
		Votes:            image.Votes,
		IsDeletedByUser:  image.IsDeletedByUser,
		IsDeletedByAdmin: image.IsDeletedByAdmin,
		CreatedAt:        image.CreatedAt,
	}
}
