package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpsession/internal/pkg/instrument"
	"github.com/shandysiswandi/otpsession/internal/pkg/messaging"
	"github.com/shandysiswandi/otpsession/internal/session/usecase"
	"github.com/shandysiswandi/otpsession/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishSessionCreated(ctx context.Context, ev usecase.SessionEvent) error {
	return m.publish(ctx, "PublishSessionCreated", event.SessionCreatedDestination, ev)
}

func (m *Messaging) PublishSessionConfirmed(ctx context.Context, ev usecase.SessionEvent) error {
	return m.publish(ctx, "PublishSessionConfirmed", event.SessionConfirmedDestination, ev)
}

func (m *Messaging) PublishSessionExpired(ctx context.Context, ev usecase.SessionEvent) error {
	return m.publish(ctx, "PublishSessionExpired", event.SessionExpiredDestination, ev)
}

func (m *Messaging) publish(ctx context.Context, spanName, destination string, ev usecase.SessionEvent) error {
	ctx, span := m.ins.Tracer("session.outbound.mq").Start(ctx, spanName)
	defer span.End()

	ss := ev.Session
	body, err := json.Marshal(event.SessionMessage{
		SessionID:   ss.PrefixedID(),
		UserID:      ss.User.PrefixedID(),
		DeviceID:    ss.Device.PrefixedID(),
		DeviceType:  ss.Device.Kind.String(),
		Status:      ss.Status.String(),
		IsNewUser:   ss.IsNewUser,
		IsNewDevice: ss.IsNewDevice,
		OccurredAt:  ev.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(ss.PrefixedID()),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
