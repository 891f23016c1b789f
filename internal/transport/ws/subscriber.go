// Package ws subscribes to the push feed and forwards events to the messaging core.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketchat/internal/core"
	"github.com/vovakirdan/marketchat/internal/proto"
	"github.com/vovakirdan/marketchat/internal/transport/rest"
)

// ErrUnauthorized is returned when the feed refuses the token. It is not retried.
var ErrUnauthorized = errors.New("push feed refused the token")

// Sink receives decoded push events. *core.Messenger satisfies it.
type Sink interface {
	Deliver(msg core.Message) error
	DeliverRecall(msg core.Message) error
}

// Options configures a Subscriber.
type Options struct {
	URL          string
	Token        string
	PingInterval time.Duration
	RetryDelay   time.Duration
	Logger       *zerolog.Logger
}

// Subscriber keeps a push feed connection open and forwards its events to a Sink.
type Subscriber struct {
	opts Options
	sink Sink
	log  *zerolog.Logger
}

// NewSubscriber creates a subscriber.
func NewSubscriber(opts Options, sink Sink) *Subscriber {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	return &Subscriber{opts: opts, sink: sink, log: opts.Logger}
}

// Run connects and reconnects until ctx is done or the token is refused.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, core.ErrStopped) {
			return err
		}
		s.log.Warn().Err(err).Dur("retry_in", s.opts.RetryDelay).Msg("push feed disconnected")

		timer := time.NewTimer(s.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection until it fails.
func (s *Subscriber) session(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, s.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("dial push feed: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := s.hello(ctx, conn); err != nil {
		return err
	}
	s.log.Info().Str("url", s.opts.URL).Msg("push feed connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.keepAlive(ctx, conn)

	for {
		var frame proto.Outbound
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read push frame: %w", err)
		}
		if err := s.dispatch(frame); err != nil {
			return err
		}
	}
}

func (s *Subscriber) hello(ctx context.Context, conn *websocket.Conn) error {
	payload, err := json.Marshal(proto.HelloData{Token: s.opts.Token, Protocol: proto.ProtocolVersion})
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: payload}); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	var frame proto.Outbound
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		return fmt.Errorf("read ready: %w", err)
	}
	if frame.Type == proto.OutboundTypeError && frame.Error != nil {
		if frame.Error.Code == "unauthorized" {
			return ErrUnauthorized
		}
		return fmt.Errorf("push feed error %s: %s", frame.Error.Code, frame.Error.Msg)
	}
	if frame.Event != proto.EventReady {
		return fmt.Errorf("expected ready, got %q", frame.Event)
	}
	return nil
}

func (s *Subscriber) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypePing}); err != nil {
				s.log.Debug().Err(err).Msg("push feed ping failed")
				return
			}
		}
	}
}

// dispatch forwards one frame. Malformed payloads are logged and skipped.
func (s *Subscriber) dispatch(frame proto.Outbound) error {
	if frame.Type == proto.OutboundTypeError {
		s.log.Warn().Interface("error", frame.Error).Msg("push feed error frame")
		return nil
	}

	switch frame.Event {
	case proto.EventMessage, proto.EventRecall:
	default:
		return nil
	}

	var dto proto.MessageDTO
	if err := json.Unmarshal(frame.Data, &dto); err != nil {
		s.log.Warn().Err(err).Str("event", frame.Event).Msg("malformed push payload")
		return nil
	}
	msg := rest.MessageFromDTO(dto, 0)

	if frame.Event == proto.EventRecall {
		return s.sink.DeliverRecall(msg)
	}
	return s.sink.Deliver(msg)
}
