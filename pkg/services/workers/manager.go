package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	embeddednats "contact-intake/pkg/services/embedded-nats"

	"github.com/sirupsen/logrus"
)

type Manager struct {
	workers []Worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  logrus.FieldLogger
}

func NewManager(natsClient *embeddednats.EmbeddedNATS, logger logrus.FieldLogger) (*Manager, error) {
	if natsClient.Connection() == nil {
		return nil, fmt.Errorf("NATS connection not initialized")
	}

	js := natsClient.JetStream()
	if js == nil {
		return nil, fmt.Errorf("JetStream not initialized")
	}

	return NewManagerWithWorkers(logger, NewContactWorker(js, logger)), nil
}

func NewManagerWithWorkers(logger logrus.FieldLogger, workers ...Worker) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

func (m *Manager) Start() error {
	for _, worker := range m.workers {
		m.wg.Add(1)
		go func(w Worker) {
			defer m.wg.Done()

			if err := w.Start(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.WithError(err).WithField("worker", w.Name()).Error("Worker exited")
			}
		}(worker)
	}

	m.logger.WithField("count", len(m.workers)).Info("Started workers")
	return nil
}

func (m *Manager) Stop() error {
	m.cancel()

	for _, worker := range m.workers {
		if err := worker.Stop(); err != nil {
			m.logger.WithError(err).WithField("worker", worker.Name()).Warn("Error stopping worker")
		}
	}

	m.wg.Wait()

	m.logger.Info("All workers stopped")
	return nil
}
