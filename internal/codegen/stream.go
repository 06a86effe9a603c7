package codegen

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Frame kinds carried on a generation topic.
const (
	FrameChunk = "chunk"
	FrameError = "error"
	FrameDone  = "done"
)

const frameKindMetadata = "kind"

// Frame is one element of a broadcast generation stream.
type Frame struct {
	Kind string
	Data string
}

// Broadcaster fans generation frames out to any number of subscribers over
// in-process topics. Subscribers only receive frames published after they
// subscribe; there is no replay.
type Broadcaster struct {
	pubsub *gochannel.GoChannel
}

func NewBroadcaster(logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			watermillLogger{logger: logger},
		),
	}
}

// Publish sends one frame to every current subscriber of topic.
func (b *Broadcaster) Publish(topic string, frame Frame) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(frame.Data))
	msg.Metadata.Set(frameKindMetadata, frame.Kind)
	return errors.Wrap(b.pubsub.Publish(topic, msg), "publish frame")
}

// Subscribe returns a frame channel for topic. The channel closes when ctx is
// canceled or the broadcaster shuts down.
func (b *Broadcaster) Subscribe(ctx context.Context, topic string) (<-chan Frame, error) {
	msgs, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe topic")
	}

	out := make(chan Frame, 64)
	go func() {
		defer close(out)
		for msg := range msgs {
			frame := Frame{
				Kind: msg.Metadata.Get(frameKindMetadata),
				Data: string(msg.Payload),
			}
			msg.Ack()
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts down the pubsub and closes all subscriber channels.
func (b *Broadcaster) Close() error {
	return b.pubsub.Close()
}

// watermillLogger adapts zerolog to watermill's logger interface.
type watermillLogger struct {
	logger zerolog.Logger
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.logger.Error().Err(err), msg, fields)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.logger.Debug(), msg, fields)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.logger.Debug(), msg, fields)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.logger.Trace(), msg, fields)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	logger := l.logger
	for k, v := range fields {
		logger = logger.With().Interface(k, v).Logger()
	}
	return watermillLogger{logger: logger}
}

func (l watermillLogger) event(e *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}
