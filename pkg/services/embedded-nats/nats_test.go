package embeddednats

import (
	"context"
	"testing"
	"time"

	"contact-intake/pkg/shared"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestNATS(t *testing.T) *EmbeddedNATS {
	t.Helper()

	logger, _ := test.NewNullLogger()
	cfg := DefaultConfig()
	cfg.Port = server.RANDOM_PORT
	cfg.DataDir = t.TempDir()

	en, err := New(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, en.Start())
	t.Cleanup(func() { en.Shutdown(context.Background()) })

	require.NoError(t, en.CreateIntakeStreams())
	require.NoError(t, en.CreateDurableConsumer(shared.StreamContacts, shared.ConsumerContactProcessor, shared.SubjectContactsAll))
	return en
}

func TestPublishWithDedup(t *testing.T) {
	en := startTestNATS(t)
	require.NoError(t, en.HealthCheck())

	subject := shared.ContactCreatedSubject(nil)
	require.NoError(t, en.PublishWithDedup(subject, []byte(`{"person_id":"p-1"}`), "p-1"))
	require.NoError(t, en.PublishWithDedup(subject, []byte(`{"person_id":"p-1"}`), "p-1"))
	require.NoError(t, en.PublishWithDedup(subject, []byte(`{"person_id":"p-2"}`), "p-2"))

	info, err := en.JetStream().StreamInfo(shared.StreamContacts)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.State.Msgs)

	sub, err := en.JetStream().PullSubscribe(shared.SubjectContactsAll, shared.ConsumerContactProcessor,
		nats.Bind(shared.StreamContacts, shared.ConsumerContactProcessor))
	require.NoError(t, err)

	msgs, err := sub.Fetch(10, nats.MaxWait(2*time.Second))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "p-1", msgs[0].Header.Get(nats.MsgIdHdr))
}

func TestAddStreamIsIdempotent(t *testing.T) {
	en := startTestNATS(t)
	assert.NoError(t, en.CreateIntakeStreams())
	assert.NoError(t, en.CreateDurableConsumer(shared.StreamContacts, shared.ConsumerContactProcessor, shared.SubjectContactsAll))
}

func TestHealthCheckBeforeStart(t *testing.T) {
	logger, _ := test.NewNullLogger()
	en, err := New(nil, logger)
	require.NoError(t, err)
	assert.Error(t, en.HealthCheck())
	assert.Error(t, en.PublishWithDedup("intake.contacts.none.created", nil, "x"))
}
