package fetch

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/gaurav-prasanna/jirapipe/core"
)

// jiraTimeLayout is the timestamp format of the REST API, e.g.
// 2024-01-15T10:30:00.000+0000.
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// jiraTime decodes API timestamps, tolerating RFC 3339 and empty values.
type jiraTime struct{ time.Time }

func (t *jiraTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		return nil
	}
	for _, layout := range []string{jiraTimeLayout, time.RFC3339Nano, "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

type named struct {
	Name string `json:"name"`
}

type wireUser struct {
	AccountID    string `json:"accountId"`
	Key          string `json:"key"`
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
}

func (u *wireUser) toCore() *core.User {
	if u == nil {
		return nil
	}
	id := u.AccountID
	if id == "" {
		// Server and Data Center identify people by key.
		id = u.Key
	}
	display := u.DisplayName
	if display == "" {
		display = u.Name
	}
	return &core.User{AccountID: id, DisplayName: display, Email: u.EmailAddress, Active: u.Active}
}

type wireSummaryFields struct {
	Summary   string `json:"summary"`
	Status    named  `json:"status"`
	IssueType named  `json:"issuetype"`
}

type wireSummary struct {
	ID     string            `json:"id"`
	Key    string            `json:"key"`
	Fields wireSummaryFields `json:"fields"`
}

func (s wireSummary) toCore() core.WorkItemSummary {
	return core.WorkItemSummary{
		Key:     s.Key,
		Summary: s.Fields.Summary,
		Status:  s.Fields.Status.Name,
		Type:    s.Fields.IssueType.Name,
	}
}

type wireIssueLink struct {
	ID   string `json:"id"`
	Type struct {
		Name    string `json:"name"`
		Inward  string `json:"inward"`
		Outward string `json:"outward"`
	} `json:"type"`
	InwardIssue  *wireSummary `json:"inwardIssue"`
	OutwardIssue *wireSummary `json:"outwardIssue"`
}

func (l wireIssueLink) toCore() (core.WorkItemLink, bool) {
	switch {
	case l.OutwardIssue != nil:
		return core.WorkItemLink{ID: l.ID, Relation: l.Type.Outward, Item: l.OutwardIssue.toCore()}, true
	case l.InwardIssue != nil:
		return core.WorkItemLink{ID: l.ID, Relation: l.Type.Inward, Item: l.InwardIssue.toCore()}, true
	}
	return core.WorkItemLink{}, false
}

type wireAttachment struct {
	ID       string    `json:"id"`
	Filename string    `json:"filename"`
	MimeType string    `json:"mimeType"`
	Size     int64     `json:"size"`
	Author   *wireUser `json:"author"`
	Created  jiraTime  `json:"created"`
}

type wireComment struct {
	ID           string    `json:"id"`
	Author       *wireUser `json:"author"`
	Body         any       `json:"body"`
	RenderedBody string    `json:"renderedBody"`
	Created      jiraTime  `json:"created"`
	Updated      jiraTime  `json:"updated"`
}

func (c wireComment) toCore() core.Comment {
	return core.Comment{
		ID:           c.ID,
		Author:       c.Author.toCore(),
		Created:      c.Created.Time,
		Updated:      c.Updated.Time,
		Body:         c.Body,
		RenderedBody: c.RenderedBody,
	}
}

type wireCommentPage struct {
	StartAt    int           `json:"startAt"`
	MaxResults int           `json:"maxResults"`
	Total      int           `json:"total"`
	Comments   []wireComment `json:"comments"`
}

func (p wireCommentPage) toCore() *core.CommentPage {
	page := &core.CommentPage{StartAt: p.StartAt, MaxResults: p.MaxResults, Total: p.Total}
	for _, c := range p.Comments {
		page.Comments = append(page.Comments, c.toCore())
	}
	return page
}

type wireWorklog struct {
	ID               string    `json:"id"`
	Author           *wireUser `json:"author"`
	Started          jiraTime  `json:"started"`
	TimeSpent        string    `json:"timeSpent"`
	TimeSpentSeconds int       `json:"timeSpentSeconds"`
	Comment          any       `json:"comment"`
}

func (w wireWorklog) toCore() core.Worklog {
	return core.Worklog{
		ID:               w.ID,
		Author:           w.Author.toCore(),
		Started:          w.Started.Time,
		TimeSpent:        w.TimeSpent,
		TimeSpentSeconds: w.TimeSpentSeconds,
		Comment:          w.Comment,
	}
}

type wireWorklogPage struct {
	Worklogs []wireWorklog `json:"worklogs"`
}

type wireProject struct {
	Key string `json:"key"`
}

type wireFields struct {
	Summary     string           `json:"summary"`
	Status      named            `json:"status"`
	IssueType   named            `json:"issuetype"`
	Priority    *named           `json:"priority"`
	Project     wireProject      `json:"project"`
	Assignee    *wireUser        `json:"assignee"`
	Reporter    *wireUser        `json:"reporter"`
	Created     jiraTime         `json:"created"`
	Updated     jiraTime         `json:"updated"`
	Labels      []string         `json:"labels"`
	Parent      *wireSummary     `json:"parent"`
	Subtasks    []wireSummary    `json:"subtasks"`
	IssueLinks  []wireIssueLink  `json:"issuelinks"`
	Attachments []wireAttachment `json:"attachment"`
	Description any              `json:"description"`
	Comment     *wireCommentPage `json:"comment"`
	Worklog     *wireWorklogPage `json:"worklog"`
}

type wireRenderedFields struct {
	Description string `json:"description"`
	Comment     *struct {
		Comments []struct {
			ID   string `json:"id"`
			Body string `json:"body"`
		} `json:"comments"`
	} `json:"comment"`
}

type wireIssue struct {
	ID             string              `json:"id"`
	Key            string              `json:"key"`
	Fields         json.RawMessage     `json:"fields"`
	RenderedFields *wireRenderedFields `json:"renderedFields"`
}

// toCore decodes the issue fields. sprintField names the custom field that
// holds the sprint; it may be empty.
func (w wireIssue) toCore(sprintField string) (*core.WorkItem, error) {
	var f wireFields
	if len(w.Fields) > 0 {
		if err := json.Unmarshal(w.Fields, &f); err != nil {
			return nil, err
		}
	}

	item := &core.WorkItem{
		ID:          w.ID,
		Key:         w.Key,
		Project:     f.Project.Key,
		Summary:     f.Summary,
		Type:        f.IssueType.Name,
		Status:      f.Status.Name,
		Assignee:    f.Assignee.toCore(),
		Reporter:    f.Reporter.toCore(),
		Created:     f.Created.Time,
		Updated:     f.Updated.Time,
		Labels:      f.Labels,
		Description: f.Description,
	}
	if f.Priority != nil {
		item.Priority = f.Priority.Name
	}
	if item.Project == "" {
		item.Project, _, _ = strings.Cut(w.Key, "-")
	}
	if f.Parent != nil {
		parent := f.Parent.toCore()
		item.Parent = &parent
	}
	for _, s := range f.Subtasks {
		item.Subtasks = append(item.Subtasks, s.toCore())
	}
	for _, l := range f.IssueLinks {
		if link, ok := l.toCore(); ok {
			item.Links = append(item.Links, link)
		}
	}
	for _, a := range f.Attachments {
		item.Attachments = append(item.Attachments, core.Attachment{
			ID:       a.ID,
			Filename: a.Filename,
			MimeType: a.MimeType,
			Size:     a.Size,
			Author:   a.Author.toCore(),
			Created:  a.Created.Time,
		})
	}

	rendered := map[string]string{}
	if r := w.RenderedFields; r != nil {
		item.RenderedDescription = r.Description
		if r.Comment != nil {
			for _, c := range r.Comment.Comments {
				rendered[c.ID] = c.Body
			}
		}
	}
	if f.Comment != nil {
		for _, c := range f.Comment.Comments {
			comment := c.toCore()
			if comment.RenderedBody == "" {
				comment.RenderedBody = rendered[c.ID]
			}
			item.Comments = append(item.Comments, comment)
		}
	}
	if f.Worklog != nil {
		for _, wl := range f.Worklog.Worklogs {
			item.Worklogs = append(item.Worklogs, wl.toCore())
		}
	}

	if sprintField != "" {
		var all map[string]json.RawMessage
		if err := json.Unmarshal(w.Fields, &all); err == nil {
			item.Sprint = sprintName(all[sprintField])
		}
	}
	return item, nil
}

var sprintNamePattern = regexp.MustCompile(`name=([^,\]]+)`)

// sprintName reads the sprint custom field. Cloud returns objects with a
// name and state; Server returns serialized strings like
// "com.atlassian.greenhopper.service.sprint.Sprint@1[id=1,state=ACTIVE,name=Sprint 4,...]".
// The active sprint wins, otherwise the last one listed.
func sprintName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var objects []struct {
		Name  string `json:"name"`
		State string `json:"state"`
	}
	if err := json.Unmarshal(raw, &objects); err == nil && len(objects) > 0 {
		for _, s := range objects {
			if strings.EqualFold(s.State, "active") {
				return s.Name
			}
		}
		return objects[len(objects)-1].Name
	}

	var strs []string
	if err := json.Unmarshal(raw, &strs); err == nil && len(strs) > 0 {
		name := ""
		for _, s := range strs {
			m := sprintNamePattern.FindStringSubmatch(s)
			if m == nil {
				continue
			}
			name = m[1]
			if strings.Contains(s, "state=ACTIVE") {
				return name
			}
		}
		return name
	}
	return ""
}

type wireSearchResult struct {
	Issues []wireSummary `json:"issues"`
}

type wireServerInfo struct {
	BaseURL        string `json:"baseUrl"`
	Version        string `json:"version"`
	DeploymentType string `json:"deploymentType"`
	ServerTitle    string `json:"serverTitle"`
}
