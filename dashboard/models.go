package dashboard

import "time"

// ScanStatus is the lifecycle state of a scan task.
type ScanStatus string

const (
	ScanPending   ScanStatus = "pending"
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
	ScanCanceled  ScanStatus = "canceled"
)

// Terminal reports whether the task will not change any more. Unknown
// values count as terminal so that a new server status cannot poll forever.
func (s ScanStatus) Terminal() bool {
	return s != ScanPending && s != ScanRunning
}

// ProbeStatus is the state of an account login probe.
type ProbeStatus string

const (
	ProbePending ProbeStatus = "pending"
	ProbeSuccess ProbeStatus = "success"
	ProbeFailed  ProbeStatus = "failed"
	ProbeUnknown ProbeStatus = "unknown"
)

// Terminal reports whether the probe has finished.
func (s ProbeStatus) Terminal() bool {
	return s != ProbePending
}

// Account is a monitored platform account.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Platform  string    `json:"platform"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountInput is the writable part of an Account.
type AccountInput struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Enabled  bool   `json:"enabled"`
}

// LoginProbe is the result of checking whether an account can log in.
type LoginProbe struct {
	AccountID string      `json:"account_id"`
	Status    ProbeStatus `json:"status"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

// Group bundles keywords scanned together.
type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AccountID string `json:"account_id"`
	Enabled   bool   `json:"enabled"`
}

// GroupInput is the writable part of a Group.
type GroupInput struct {
	Name      string `json:"name"`
	AccountID string `json:"account_id"`
	Enabled   bool   `json:"enabled"`
}

// Keyword is one search term of a group.
type Keyword struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	Word    string `json:"word"`
}

// KeywordInput is the writable part of a Keyword.
type KeywordInput struct {
	GroupID string `json:"group_id"`
	Word    string `json:"word"`
}

// ScanTask is one run over a group's keywords.
type ScanTask struct {
	ID         string     `json:"id"`
	GroupID    string     `json:"group_id"`
	Status     ScanStatus `json:"status"`
	Progress   int        `json:"progress"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Comment is a match collected by a scan task.
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Keyword   string    `json:"keyword"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentStats aggregates comments. It only changes through comment
// mutations and scans, so both must invalidate it.
type CommentStats struct {
	Total     int64            `json:"total"`
	Today     int64            `json:"today"`
	ByKeyword map[string]int64 `json:"by_keyword"`
}
