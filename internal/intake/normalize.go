package intake

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/stelliformdigital/stelliform-web/internal/leads"
)

// Form tags which public form a submission came through.
type Form string

const (
	FormContact     Form = "CONTACT"
	FormIntakeSmart Form = "INTAKE_SMART"
)

// label is the lower-case form name used in metrics.
func (f Form) label() string {
	return strings.ToLower(string(f))
}

const (
	// MediumContactForm is the attribution medium for the general contact form.
	MediumContactForm = "contact_form"
	// MediumIntakeSmart is the attribution medium for the qualified intake form.
	MediumIntakeSmart = "intakesmart"

	// DefaultContactProject labels contact leads that name no project.
	DefaultContactProject = "Free teardown request"
	// IntakeProjectPrefix starts every intake project label.
	IntakeProjectPrefix = "IntakeSmart"

	projectSeparator = " — "
)

// ContactSubmission is the JSON body of POST /api/contact. Both the legacy
// single name field and structured first/last names are accepted.
type ContactSubmission struct {
	Name                   string `json:"name"`
	FirstName              string `json:"firstName"`
	LastName               string `json:"lastName"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	PreferredContactMethod string `json:"preferredContactMethod"`
	BestTimeToContact      string `json:"bestTimeToContact"`
	Details                string `json:"details"`
	Project                string `json:"project"`
	Message                string `json:"message"`
	Attribution
}

// IntakeSubmission is the JSON body of POST /api/intake-smart.
type IntakeSubmission struct {
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email"`
	PracticeArea string          `json:"practiceArea"`
	Location     string          `json:"location"`
	Message      string          `json:"message"`
	Payload      json.RawMessage `json:"payload"`
	Attribution
}

// Attribution carries the marketing fields both forms share.
type Attribution struct {
	Source      string `json:"source"`
	Medium      string `json:"medium"`
	Campaign    string `json:"campaign"`
	Referrer    string `json:"referrer"`
	LandingPage string `json:"landingPage"`
}

// Submission is a normalized form post ready for the pipeline.
type Submission struct {
	Form    Form
	Lead    leads.CreateLeadRequest
	invalid error
}

// Validate returns the validation failure found during normalization, if any.
func (s Submission) Validate() error {
	return s.invalid
}

// ResolveName maps the accepted name aliases onto one full name. Structured
// first/last names win when either is present; otherwise the legacy name.
func ResolveName(name, firstName, lastName string) string {
	first := strings.TrimSpace(firstName)
	last := strings.TrimSpace(lastName)
	if first != "" || last != "" {
		return strings.TrimSpace(first + " " + last)
	}
	return strings.TrimSpace(name)
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Normalize validates the contact body and maps it onto a lead request.
func (c ContactSubmission) Normalize(meta RequestMetadata) Submission {
	name := ResolveName(c.Name, c.FirstName, c.LastName)
	email := NormalizeEmail(c.Email)

	sub := Submission{Form: FormContact}
	if err := leads.ValidateContact(name, email); err != nil {
		sub.invalid = err
		return sub
	}

	sub.Lead = leads.CreateLeadRequest{
		Name:    name,
		Email:   email,
		Project: contactProject(c.Project, c.PreferredContactMethod),
		Message: ContactMessage(c),
	}
	c.Attribution.applyTo(&sub.Lead, MediumContactForm, meta)
	return sub
}

// Normalize validates the intake body and maps it onto a lead request.
// fallbackEmail stands in when the caller gave no email.
func (in IntakeSubmission) Normalize(meta RequestMetadata, fallbackEmail string) Submission {
	email := NormalizeEmail(in.Email)

	sub := Submission{Form: FormIntakeSmart}
	if err := leads.ValidateIntake(in.FirstName, in.LastName, in.Phone, email); err != nil {
		sub.invalid = err
		return sub
	}
	if email == "" {
		email = NormalizeEmail(fallbackEmail)
	}

	sub.Lead = leads.CreateLeadRequest{
		Name:    ResolveName("", in.FirstName, in.LastName),
		Email:   email,
		Project: IntakeProject(in.Location, in.PracticeArea),
		Message: IntakeMessage(in),
	}
	in.Attribution.applyTo(&sub.Lead, MediumIntakeSmart, meta)
	return sub
}

func (a Attribution) applyTo(req *leads.CreateLeadRequest, defaultMedium string, meta RequestMetadata) {
	req.Source = firstNonBlank(a.Source, leads.DefaultSource)
	req.Medium = firstNonBlank(a.Medium, defaultMedium)
	req.Campaign = strings.TrimSpace(a.Campaign)
	req.Referrer = firstNonBlank(meta.Referer, a.Referrer)
	req.LandingPage = strings.TrimSpace(a.LandingPage)
	req.UserAgent = meta.UserAgent
	req.IP = meta.IP
}

func contactProject(project, preferredContact string) string {
	return firstNonBlank(project, preferredContact, DefaultContactProject)
}

// IntakeProject joins the IntakeSmart prefix, location and practice area
// with projectSeparator. Blank parts are left out.
func IntakeProject(location, practiceArea string) string {
	parts := []string{IntakeProjectPrefix}
	if v := strings.TrimSpace(location); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(practiceArea); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, projectSeparator)
}

// ContactMessage joins the optional contact fields into labeled lines.
// It returns "" when none are present.
func ContactMessage(c ContactSubmission) string {
	var lines messageLines
	lines.add("Phone", c.Phone)
	lines.add("Preferred contact", c.PreferredContactMethod)
	lines.add("Best time", c.BestTimeToContact)
	lines.add("Details", c.Details)
	lines.add("Message", c.Message)
	return lines.String()
}

// IntakeMessage joins the intake fields into labeled lines. Phone is always
// present; the opaque payload is appended as compact JSON.
func IntakeMessage(in IntakeSubmission) string {
	var lines messageLines
	lines.add("Phone", in.Phone)
	lines.add("Practice area", in.PracticeArea)
	lines.add("Location", in.Location)
	lines.add("Message", in.Message)
	lines.add("Payload", compactPayload(in.Payload))
	return lines.String()
}

type messageLines []string

func (m *messageLines) add(label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	*m = append(*m, label+": "+value)
}

func (m messageLines) String() string {
	return strings.Join(m, "\n")
}

// compactPayload renders the payload as compact JSON. Falsy scalars (null,
// false, 0, "") count as absent.
func compactPayload(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || falsyJSON(trimmed) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

func falsyJSON(raw []byte) bool {
	switch raw[0] {
	case '{', '[':
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == ""
	}
	return false
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
