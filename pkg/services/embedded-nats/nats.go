package embeddednats

import (
	"context"
	"fmt"
	"time"

	"contact-intake/pkg/shared"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Host            string
	Port            int
	DataDir         string
	MaxMemory       int64
	MaxFileStore    int64
	JetStreamDomain string
}

type EmbeddedNATS struct {
	server  *server.Server
	nc      *nats.Conn
	js      nats.JetStreamContext
	config  *Config
	streams map[string]*StreamConfig
	logger  logrus.FieldLogger
}

type StreamConfig struct {
	Name            string
	Subjects        []string
	Retention       nats.RetentionPolicy
	MaxMsgs         int64
	MaxBytes        int64
	MaxAge          time.Duration
	MaxMsgSize      int32
	Replicas        int
	DuplicateWindow time.Duration
	DiscardPolicy   nats.DiscardPolicy
}

func DefaultConfig() *Config {
	return &Config{
		Host:            "127.0.0.1",
		Port:            4222,
		DataDir:         "./data/nats",
		MaxMemory:       64 * 1024 * 1024,  // 64MB
		MaxFileStore:    512 * 1024 * 1024, // 512MB
		JetStreamDomain: "intake",
	}
}

func New(cfg *Config, logger logrus.FieldLogger) (*EmbeddedNATS, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &EmbeddedNATS{
		config:  cfg,
		streams: make(map[string]*StreamConfig),
		logger:  logger,
	}, nil
}

func (en *EmbeddedNATS) Start() error {
	opts := &server.Options{
		Host:               en.config.Host,
		Port:               en.config.Port,
		JetStream:          true,
		StoreDir:           en.config.DataDir,
		JetStreamMaxMemory: en.config.MaxMemory,
		JetStreamMaxStore:  en.config.MaxFileStore,
		JetStreamDomain:    en.config.JetStreamDomain,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("failed to create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(10 * time.Second) {
		return fmt.Errorf("NATS server not ready for connections")
	}

	en.server = ns

	if err := en.connect(); err != nil {
		return fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	en.logger.WithField("port", en.config.Port).Info("Embedded NATS server started")
	return nil
}

func (en *EmbeddedNATS) connect() error {
	nc, err := nats.Connect(en.server.ClientURL(),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			en.logger.WithError(err).Warn("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				en.logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			en.logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	en.nc = nc
	en.js = js
	return nil
}

func (en *EmbeddedNATS) AddStream(streamConfig *StreamConfig) error {
	if en.js == nil {
		return fmt.Errorf("JetStream not initialized")
	}

	config := &nats.StreamConfig{
		Name:       streamConfig.Name,
		Subjects:   streamConfig.Subjects,
		Retention:  streamConfig.Retention,
		MaxMsgs:    streamConfig.MaxMsgs,
		MaxBytes:   streamConfig.MaxBytes,
		MaxAge:     streamConfig.MaxAge,
		MaxMsgSize: streamConfig.MaxMsgSize,
		Replicas:   streamConfig.Replicas,
		Duplicates: streamConfig.DuplicateWindow,
		Discard:    streamConfig.DiscardPolicy,
	}

	// Try to update stream if it exists, otherwise create it
	if _, err := en.js.StreamInfo(streamConfig.Name); err == nil {
		if _, err := en.js.UpdateStream(config); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", streamConfig.Name, err)
		}
		en.logger.WithField("stream", streamConfig.Name).Info("Updated existing stream")
	} else {
		if _, err := en.js.AddStream(config); err != nil {
			return fmt.Errorf("failed to add stream %s: %w", streamConfig.Name, err)
		}
		en.logger.WithField("stream", streamConfig.Name).Info("Created new stream")
	}

	en.streams[streamConfig.Name] = streamConfig
	return nil
}

// CreateIntakeStreams declares the contact event stream.
func (en *EmbeddedNATS) CreateIntakeStreams() error {
	return en.AddStream(&StreamConfig{
		Name:            shared.StreamContacts,
		Subjects:        []string{shared.SubjectContactsAll},
		Retention:       nats.WorkQueuePolicy, // Events consumed once
		MaxMsgs:         100000,
		MaxBytes:        64 * 1024 * 1024, // 64MB
		MaxAge:          7 * 24 * time.Hour,
		MaxMsgSize:      64 * 1024, // 64KB
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
		DiscardPolicy:   nats.DiscardOld,
	})
}

// PublishWithDedup publishes data with msgID as the JetStream dedup id.
func (en *EmbeddedNATS) PublishWithDedup(subject string, data []byte, msgID string) error {
	if en.js == nil {
		return fmt.Errorf("JetStream not initialized")
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, msgID)

	if _, err := en.js.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (en *EmbeddedNATS) CreateDurableConsumer(streamName, consumerName string, filterSubject string) error {
	config := &nats.ConsumerConfig{
		Durable:       consumerName,
		FilterSubject: filterSubject,
		AckPolicy:     nats.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    3,
		MaxAckPending: 1000,
		DeliverPolicy: nats.DeliverAllPolicy,
		ReplayPolicy:  nats.ReplayInstantPolicy,
	}

	if _, err := en.js.ConsumerInfo(streamName, consumerName); err == nil {
		return nil
	}

	if _, err := en.js.AddConsumer(streamName, config); err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", consumerName, err)
	}

	en.logger.WithFields(logrus.Fields{"consumer": consumerName, "stream": streamName}).Info("Created durable consumer")
	return nil
}

func (en *EmbeddedNATS) Connection() *nats.Conn {
	return en.nc
}

func (en *EmbeddedNATS) JetStream() nats.JetStreamContext {
	return en.js
}

func (en *EmbeddedNATS) Shutdown(ctx context.Context) error {
	if en.nc != nil {
		en.nc.Close()
	}

	if en.server != nil {
		en.server.Shutdown()
		en.server.WaitForShutdown()
	}

	return nil
}

func (en *EmbeddedNATS) HealthCheck() error {
	if en.nc == nil {
		return fmt.Errorf("NATS connection not initialized")
	}

	if !en.nc.IsConnected() {
		return fmt.Errorf("NATS not connected")
	}

	if en.server != nil && !en.server.Running() {
		return fmt.Errorf("NATS server not running")
	}

	return nil
}
