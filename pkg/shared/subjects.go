package shared

import "fmt"

// NATS Subject patterns
const (
	SubjectPrefix = "intake"

	SubjectContacts       = "intake.contacts"
	SubjectContactsAll    = "intake.contacts.>"
	SubjectContactCreated = "intake.contacts.%s.created" // organization id or "none"
)

// Stream names
const (
	StreamContacts = "INTAKE_CONTACTS"
)

// Consumer names
const (
	ConsumerContactProcessor = "contact-processor"
)

// ContactCreatedSubject returns the subject for a created contact. Contacts
// without an organization publish under "none".
func ContactCreatedSubject(orgID *string) string {
	id := "none"
	if orgID != nil && *orgID != "" {
		id = *orgID
	}
	return fmt.Sprintf(SubjectContactCreated, id)
}
