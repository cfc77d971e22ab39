// Packboard - Modpack Storefront and Launcher
// Copyright 2026 Packboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/packboard/packboard

package ingest

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// SubscriberConfig holds the NATS subscriber settings for the push channel.
type SubscriberConfig struct {
	// URL is the NATS server address.
	URL string

	// DurableName prefixes the JetStream durable consumer names so the
	// daemon resumes where it left off after a restart.
	DurableName string

	// QueueGroup load-balances consumption if more than one daemon
	// instance ever connects (normally exactly one does).
	QueueGroup string

	// SubscribersCount is the number of concurrent NATS subscriptions per
	// topic.
	SubscribersCount int

	// AckWaitTimeout is how long the server waits for an ack before
	// redelivery.
	AckWaitTimeout time.Duration

	// CloseTimeout bounds subscriber shutdown.
	CloseTimeout time.Duration

	// MaxReconnects and ReconnectWait control client reconnection.
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultSubscriberConfig returns settings suitable for the local bus.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      "launcherd",
		QueueGroup:       "launcherd",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// NewSubscriber creates a JetStream subscriber for the task push channel.
// Streams for the task topics are auto-provisioned on first subscribe.
func NewSubscriber(cfg SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("push channel disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("push channel reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.AckWait(cfg.AckWaitTimeout),
		// New deliveries only; the reconciler replays history via full pulls.
		natsgo.DeliverNew(),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    true,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create push channel subscriber: %w", err)
	}
	return sub, nil
}
