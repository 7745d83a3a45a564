package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"contact-intake/db"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newTestDB(t *testing.T) *db.Service {
	t.Helper()

	svc, err := db.New(&db.Config{
		URL:            filepath.Join(t.TempDir(), "intake.db"),
		AutoInitialize: true,
	}, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func countRows(t *testing.T, svc *db.Service, table string) int {
	t.Helper()
	var n int
	require.NoError(t, svc.DB.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

// inTx runs fn in a committed transaction and fails the test on error.
func inTx(t *testing.T, svc *db.Service, fn func(ctx context.Context, q db.Querier) error) {
	t.Helper()
	require.NoError(t, svc.Transaction(context.Background(), fn))
}

type publishedEvent struct {
	subject string
	data    []byte
	msgID   string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishWithDedup(subject string, data []byte, msgID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{subject: subject, data: data, msgID: msgID})
	return p.err
}
