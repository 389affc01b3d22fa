package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"social_network_client/internal/notification/domain"
	errprocess "social_network_client/pkg/err"
)

// Notifications GET /notifications, pending list newest first
func (c *Client) Notifications(ctx context.Context) ([]domain.Notification, error) {
	var out []domain.Notification
	if err := c.getJSON(ctx, "/notifications", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Profile GET /profile, or /profile/{id} when id > 0
func (c *Client) Profile(ctx context.Context, id int64) (*Profile, error) {
	path := "/profile"
	if id > 0 {
		path = fmt.Sprintf("/profile/%d", id)
	}
	var out Profile
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProfileUpdate /profile/update body
type ProfileUpdate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Nickname  string `json:"nickname" validate:"max=32,nickname"`
	About     string `json:"about"`
	IsPublic  bool   `json:"isPublic"`
}

// UpdateProfile POST /profile/update
func (c *Client) UpdateProfile(ctx context.Context, p ProfileUpdate) error {
	if err := validateForm(&p); err != nil {
		return err
	}
	return c.postJSON(ctx, "/profile/update", p, nil)
}

// UpdateAvatar POST /profile/update/avatar (multipart image)
func (c *Client) UpdateAvatar(ctx context.Context, image Upload) error {
	return c.postMultipart(ctx, "/profile/update/avatar", nil, "image", &image)
}

// Followers GET /followers, or /followers/{id}
func (c *Client) Followers(ctx context.Context, userID int64) ([]Follower, error) {
	return c.followList(ctx, "/followers", userID)
}

// Following GET /following, or /following/{id}
func (c *Client) Following(ctx context.Context, userID int64) ([]Follower, error) {
	return c.followList(ctx, "/following", userID)
}

func (c *Client) followList(ctx context.Context, base string, userID int64) ([]Follower, error) {
	path := base
	if userID > 0 {
		path = fmt.Sprintf("%s/%d", base, userID)
	}
	var out []Follower
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// privacy types of a post
const (
	PrivacyPublic = iota + 1
	PrivacyFollowers
	PrivacySelected
)

// PostForm /post multipart form
type PostForm struct {
	Content     string   `json:"content" validate:"required"`
	PrivacyType int      `json:"privacyType" validate:"required,min=1,max=3"`
	Receivers   []string `json:"selectedReceivers"`
	Image       *Upload  `json:"-" validate:"-"`
}

// CreatePost POST /post, or /groups/{id}/post when groupID > 0
func (c *Client) CreatePost(ctx context.Context, groupID int64, form PostForm) error {
	if err := validateForm(&form); err != nil {
		return err
	}
	path := "/post"
	if groupID > 0 {
		path = fmt.Sprintf("/groups/%d/post", groupID)
	}
	return c.postMultipart(ctx, path, map[string]string{
		"content":           form.Content,
		"privacyType":       strconv.Itoa(form.PrivacyType),
		"selectedReceivers": strings.Join(form.Receivers, ","),
	}, "image", form.Image)
}

// Comments GET /comments/{postId}/{offset}
func (c *Client) Comments(ctx context.Context, postID, offset int64) ([]Comment, error) {
	var out []Comment
	if err := c.getJSON(ctx, fmt.Sprintf("/comments/%d/%d", postID, offset), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CommentForm /insertcomment multipart form
type CommentForm struct {
	PostID  int64   `json:"postId" validate:"required"`
	Content string  `json:"content" validate:"required,max=100"`
	Image   *Upload `json:"-" validate:"-"`
}

// CreateComment POST /insertcomment
func (c *Client) CreateComment(ctx context.Context, form CommentForm) error {
	if err := validateForm(&form); err != nil {
		return err
	}
	err := c.postMultipart(ctx, "/insertcomment", map[string]string{
		"postId":  strconv.FormatInt(form.PostID, 10),
		"content": form.Content,
	}, "image", form.Image)
	var se *errprocess.ServerError
	if errors.As(err, &se) && se.Status == http.StatusBadRequest {
		return se.WithMessage(CommentLengthMessage)
	}
	return err
}

// UserGroups GET /usergroups
func (c *Client) UserGroups(ctx context.Context) ([]GroupSummary, error) {
	var out []GroupSummary
	if err := c.getJSON(ctx, "/usergroups", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyGroups GET /mygroups, groups the user created
func (c *Client) MyGroups(ctx context.Context) ([]GroupSummary, error) {
	var out []GroupSummary
	if err := c.getJSON(ctx, "/mygroups", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Group GET /groups/{id}
func (c *Client) Group(ctx context.Context, groupID int64) (*Group, error) {
	var out Group
	if err := c.getJSON(ctx, fmt.Sprintf("/groups/%d", groupID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupForm /creategroup body
type GroupForm struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// CreateGroup POST /creategroup
func (c *Client) CreateGroup(ctx context.Context, form GroupForm) error {
	if err := validateForm(&form); err != nil {
		return err
	}
	return c.postJSON(ctx, "/creategroup", form, nil)
}

// GroupMembers GET /groupmembers/{id}
func (c *Client) GroupMembers(ctx context.Context, groupID int64) ([]GroupMember, error) {
	var out []GroupMember
	if err := c.getJSON(ctx, fmt.Sprintf("/groupmembers/%d", groupID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type addMembersRequest struct {
	GroupID int64   `json:"groupId"`
	UserIDs []int64 `json:"userIds"`
}

// AddMembers POST /addmembers, invitations arrive as group_invite notifications
func (c *Client) AddMembers(ctx context.Context, groupID int64, userIDs []int64) error {
	return c.postJSON(ctx, "/addmembers", addMembersRequest{GroupID: groupID, UserIDs: userIDs}, nil)
}

// Event GET /event/{id}
func (c *Client) Event(ctx context.Context, eventID int64) (*Event, error) {
	var out Event
	if err := c.getJSON(ctx, fmt.Sprintf("/event/%d", eventID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserEvents GET /userevents
func (c *Client) UserEvents(ctx context.Context) ([]Event, error) {
	var out []Event
	if err := c.getJSON(ctx, "/userevents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GroupEvents GET /groupevents/{id}
func (c *Client) GroupEvents(ctx context.Context, groupID int64) ([]Event, error) {
	var out []Event
	if err := c.getJSON(ctx, fmt.Sprintf("/groupevents/%d", groupID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EventForm /creategroupevent body
type EventForm struct {
	GroupID     int64  `json:"group_id" validate:"required"`
	StartTime   string `json:"startTime" validate:"required"`
	EndTime     string `json:"endTime" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// CreateGroupEvent POST /creategroupevent
func (c *Client) CreateGroupEvent(ctx context.Context, form EventForm) error {
	if err := validateForm(&form); err != nil {
		return err
	}
	return c.postJSON(ctx, "/creategroupevent", form, nil)
}

type eventReaction struct {
	EventID     int64 `json:"eventId"`
	IsAttending bool  `json:"isAttending"`
}

// EventReaction POST /eventreaction
func (c *Client) EventReaction(ctx context.Context, eventID int64, attending bool) error {
	return c.postJSON(ctx, "/eventreaction", eventReaction{EventID: eventID, IsAttending: attending}, nil)
}

// Search GET /search/{criteria}
func (c *Client) Search(ctx context.Context, criteria string) ([]SearchResult, error) {
	criteria = strings.TrimSpace(criteria)
	if criteria == "" {
		return nil, nil
	}
	var out []SearchResult
	if err := c.getJSON(ctx, "/search/"+url.PathEscape(criteria), &out); err != nil {
		return nil, err
	}
	return out, nil
}
