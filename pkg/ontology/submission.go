package ontology

import "strings"

// ContactSubmission is the typed form of one inbound contact request.
type ContactSubmission struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	MiddleName  string `json:"middle_name,omitempty"`
	Title       string `json:"title,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	MobilePhone string `json:"mobile_phone,omitempty"`
	LinkedIn    string `json:"linkedin,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Company     string `json:"company,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`
	Role        string `json:"role,omitempty"`
	Department  string `json:"department,omitempty"`
	IssueAreas  string `json:"issue_areas,omitempty"`
	Notes       string `json:"notes,omitempty"`
	OrgNotes    string `json:"org_notes,omitempty"`
}

// Trim removes surrounding whitespace from every field.
func (s *ContactSubmission) Trim() {
	for _, f := range []*string{
		&s.FirstName, &s.LastName, &s.MiddleName, &s.Title, &s.Email,
		&s.Phone, &s.MobilePhone, &s.LinkedIn, &s.Twitter, &s.Company,
		&s.JobTitle, &s.Role, &s.Department, &s.IssueAreas, &s.Notes, &s.OrgNotes,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// EffectiveJobTitle falls back to Role when JobTitle is empty.
func (s *ContactSubmission) EffectiveJobTitle() string {
	if s.JobTitle != "" {
		return s.JobTitle
	}
	return s.Role
}

// IntakeResult is returned for a successfully recorded submission.
type IntakeResult struct {
	PersonID       string  `json:"person_id"`
	OrganizationID *string `json:"organization_id"`
	Message        string  `json:"message"`
}
