package myaudit

import "context"

const (
	TopicName = "audit"
)

type Action string

const (
	ActionAccess Action = "ACCESS"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Event is a security-relevant fact: who did what to which resource and
// whether it worked.
type Event struct {
	Actor       string
	Action      Action
	Resource    string
	Success     bool
	RiskLevel   RiskLevel
	Description string
}

func (e Event) GetEventTypeName() string {
	return TopicName + "." + string(e.Action)
}

func (e Event) GetAggregateName() string {
	return e.Actor
}

//go:generate mockgen -source=api.go -package myaudit -destination sink_mock.go Sink
type Sink interface {
	Record(c context.Context, event Event) error
}
