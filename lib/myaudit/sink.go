package myaudit

import (
	"context"
	"fmt"

	"github.com/carebase/emrbackend/lib/mylog"
	"github.com/carebase/emrbackend/lib/mypublisher"
)

type publishingSink struct {
	publisher mypublisher.Publisher
	logger    mylog.Logger
}

// NewSink records audit events by publishing them on the audit topic. The
// publisher's outbox guarantees delivery even when pubsub is briefly down.
func NewSink(publisher mypublisher.Publisher) *publishingSink {
	return &publishingSink{
		publisher: publisher,
		logger:    mylog.New("audit"),
	}
}

func (s *publishingSink) CreateTopics(c context.Context) error {
	err := s.publisher.CreateTopic(c, TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", TopicName, err)
	}

	return nil
}

func (s *publishingSink) Record(c context.Context, event Event) error {
	err := s.publisher.Publish(c, TopicName, event)
	if err != nil {
		return fmt.Errorf("error publishing audit event: %s", err)
	}

	s.logger.Log(c, event.Actor, mylog.SeverityDebug, "Recorded audit event %s on %s (success=%t)", event.Action, event.Resource, event.Success)

	return nil
}
