package core

import "time"

// User is a Jira account as it appears on work items and comments.
type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"emailAddress,omitempty"`
	Active      bool   `json:"active"`
}

// Name returns the display name, or "Unassigned" for a nil user.
func (u *User) Name() string {
	if u == nil || u.DisplayName == "" {
		return "Unassigned"
	}
	return u.DisplayName
}

// WorkItemSummary is the short form of a work item used in lists and links.
type WorkItemSummary struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
	Type    string `json:"type"`
}

// WorkItemLink relates a work item to another one.
type WorkItemLink struct {
	ID string `json:"id"`
	// Relation is the phrase read from the linking item, e.g. "blocks"
	// or "is blocked by".
	Relation string          `json:"relation"`
	Item     WorkItemSummary `json:"item"`
}

// Attachment is a file attached to a work item.
type Attachment struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	MimeType string    `json:"mimeType"`
	Size     int64     `json:"size"`
	Author   *User     `json:"author,omitempty"`
	Created  time.Time `json:"created"`
}

// WorkItem is a Jira issue with the fields jirapipe renders.
type WorkItem struct {
	ID       string
	Key      string
	Project  string
	Summary  string
	Type     string
	Status   string
	Priority string
	Assignee *User
	Reporter *User
	Created  time.Time
	Updated  time.Time
	Labels   []string
	Sprint   string

	Parent      *WorkItemSummary
	Subtasks    []WorkItemSummary
	Links       []WorkItemLink
	Attachments []Attachment
	WebLinks    []RemoteLink
	Comments    []Comment
	Worklogs    []Worklog

	// Description is the raw field value: an ADF tree for API v3, a
	// wiki-markup string for v2, or nil.
	Description any
	// RenderedDescription is the HTML rendering when requested.
	RenderedDescription string
}

// Comment is a comment on a work item.
type Comment struct {
	ID           string
	Author       *User
	Created      time.Time
	Updated      time.Time
	Body         any
	RenderedBody string
}

// CommentPage is one page of a work item's comments.
type CommentPage struct {
	StartAt    int
	MaxResults int
	Total      int
	Comments   []Comment
}

// Worklog is a time-tracking entry.
type Worklog struct {
	ID               string
	Author           *User
	Started          time.Time
	TimeSpent        string
	TimeSpentSeconds int
	Comment          any
}

// RemoteLink is a web link attached to a work item.
type RemoteLink struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ServerInfo describes the Jira instance.
type ServerInfo struct {
	BaseURL        string `json:"baseUrl"`
	Version        string `json:"version"`
	DeploymentType string `json:"deploymentType"`
	ServerTitle    string `json:"serverTitle"`
}
