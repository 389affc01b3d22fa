package api

import "time"

// Profile /profile response
type Profile struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Birthday     string    `json:"birthday"`
	Nickname     string    `json:"nickname"`
	About        string    `json:"about"`
	AvatarImage  string    `json:"imagePath"`
	CreatedAt    time.Time `json:"createdAt"`
	IsPublic     bool      `json:"isPublic"`
	IsFollowed   bool      `json:"isFollowed"`
	IsOwnProfile bool      `json:"isOwnProfile"`
}

// DisplayName nickname, or first and last name
func (p Profile) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.FirstName + " " + p.LastName
}

// Follower /followers, /following entry
type Follower struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Nickname    string `json:"nickname"`
	AvatarImage string `json:"imagePath"`
	Accepted    bool   `json:"accepted"`
}

// Post feed entry
type Post struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	UserName     string    `json:"userName"`
	Content      string    `json:"content"`
	ImagePath    string    `json:"imagePath"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	GroupID      int64     `json:"groupId"`
	GroupName    string    `json:"groupName"`
}

// Comment post comment
type Comment struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	UserName     string    `json:"userName"`
	Content      string    `json:"content"`
	ImagePath    string    `json:"imagePath"`
	CreatedAt    time.Time `json:"createdAt"`
	CommentCount int       `json:"commentCount"`
}

// GroupSummary /usergroups, /mygroups entry
type GroupSummary struct {
	ID   int64  `json:"groupId"`
	Name string `json:"groupName"`
}

// Group /groups/{id} response
type Group struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImagePath   string `json:"imagePath"`
	IsMember    bool   `json:"isMember"`
	IsCreator   bool   `json:"isCreator"`
}

// GroupMember /groupmembers/{id} entry
type GroupMember struct {
	GroupID   int64  `json:"groupId"`
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	ImagePath string `json:"imagePath"`
}

// Attendee event member
type Attendee struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Nickname    string `json:"nickname"`
	AvatarImage string `json:"imagePath"`
	IsAttending bool   `json:"isAttending"`
}

// Event group event
type Event struct {
	ID           int64       `json:"id"`
	GroupID      int64       `json:"groupId"`
	GroupName    string      `json:"groupName"`
	CreatorID    int64       `json:"creatorId"`
	CreatorName  string      `json:"creatorName"`
	CreatedAt    time.Time   `json:"createdAt"`
	EventTime    time.Time   `json:"eventTime"`
	EventEndTime time.Time   `json:"eventEndTime"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Members      []*Attendee `json:"members"`
	IsAttending  bool        `json:"isAttending"`
}

// SearchResult /search/{criteria} entry, a user or a group
type SearchResult struct {
	UserID    int64  `json:"userId"`
	GroupID   int64  `json:"groupId"`
	Name      string `json:"name"`
	ImagePath string `json:"imagePath"`
}
