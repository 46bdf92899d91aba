package leads

import (
	"strings"
	"time"
)

// Status is the triage state of a lead.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusSpam      Status = "spam"
)

// Statuses lists every valid status in triage order.
var Statuses = []Status{StatusNew, StatusContacted, StatusQualified, StatusWon, StatusLost, StatusSpam}

// ParseStatus returns the Status for s or ErrInvalidStatus.
func ParseStatus(s string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if st == candidate {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// DefaultSource is applied when a submission carries no attribution source.
const DefaultSource = "website"

// Lead is a prospective customer inquiry captured from a site form.
type Lead struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Project      string     `json:"project,omitempty"`
	Message      string     `json:"message,omitempty"`
	Source       string     `json:"source"`
	Medium       string     `json:"medium,omitempty"`
	Campaign     string     `json:"campaign,omitempty"`
	Referrer     string     `json:"referrer,omitempty"`
	LandingPage  string     `json:"landing_page,omitempty"`
	UserAgent    string     `json:"user_agent,omitempty"`
	IP           string     `json:"ip,omitempty"`
	Status       Status     `json:"status"`
	NotifyStatus string     `json:"notify_status,omitempty"`
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateLeadRequest carries normalized fields for a new lead
type CreateLeadRequest struct {
	Name        string
	Email       string
	Project     string
	Message     string
	Source      string
	Medium      string
	Campaign    string
	Referrer    string
	LandingPage string
	UserAgent   string
	IP          string
}

// Validate checks the store-level invariants. Form-level validation with
// client-facing messages happens before this in the intake pipeline.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	return nil
}

// newLead applies creation defaults shared by every repository.
func newLead(id string, req *CreateLeadRequest, now time.Time) *Lead {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = DefaultSource
	}
	return &Lead{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Project:     req.Project,
		Message:     req.Message,
		Source:      source,
		Medium:      req.Medium,
		Campaign:    req.Campaign,
		Referrer:    req.Referrer,
		LandingPage: req.LandingPage,
		UserAgent:   req.UserAgent,
		IP:          req.IP,
		Status:      StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// LeadPatch is a partial update. Nil fields are left unchanged.
type LeadPatch struct {
	Status       *Status
	NotifyStatus *string
	NotifiedAt   *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p LeadPatch) IsEmpty() bool {
	return p.Status == nil && p.NotifyStatus == nil && p.NotifiedAt == nil
}

func (p LeadPatch) validate() error {
	if p.Status != nil {
		if _, err := ParseStatus(string(*p.Status)); err != nil {
			return err
		}
	}
	return nil
}

func (p LeadPatch) apply(lead *Lead, now time.Time) {
	if p.Status != nil {
		lead.Status = *p.Status
	}
	if p.NotifyStatus != nil {
		lead.NotifyStatus = *p.NotifyStatus
	}
	if p.NotifiedAt != nil {
		t := *p.NotifiedAt
		lead.NotifiedAt = &t
	}
	lead.UpdatedAt = now
}

// ListFilter narrows List results.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
