package workers

import (
	"context"
	"encoding/json"
	"fmt"

	"contact-intake/pkg/shared"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// ContactWorker consumes contact created events.
type ContactWorker struct {
	*BaseWorker
	handle func(shared.ContactCreatedEvent)
}

func NewContactWorker(js nats.JetStreamContext, logger logrus.FieldLogger) *ContactWorker {
	w := &ContactWorker{
		BaseWorker: NewBaseWorker(
			"ContactWorker",
			js,
			shared.StreamContacts,
			shared.ConsumerContactProcessor,
			shared.SubjectContactsAll,
			logger,
		),
	}
	w.handle = w.logEvent
	return w
}

func (w *ContactWorker) Start(ctx context.Context) error {
	return w.processMessages(ctx, w.HandleMessage)
}

// HandleMessage decodes one event and passes it on.
func (w *ContactWorker) HandleMessage(msg *nats.Msg) error {
	var event shared.ContactCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return fmt.Errorf("failed to decode contact event: %w", err)
	}
	if event.PersonID == "" {
		return fmt.Errorf("contact event %s has no person id", event.ID)
	}
	w.handle(event)
	return nil
}

func (w *ContactWorker) logEvent(event shared.ContactCreatedEvent) {
	fields := logrus.Fields{
		"event_id":    event.ID,
		"person_id":   event.PersonID,
		"issue_links": event.IssueLinks,
	}
	if event.OrganizationID != nil {
		fields["organization_id"] = *event.OrganizationID
		fields["organization"] = event.Organization
	}
	w.logger.WithFields(fields).Info("Contact created")
}
