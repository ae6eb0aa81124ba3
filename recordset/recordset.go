// Package recordset models Route53 record set changes and decodes them from
// the CloudTrail-backed EventBridge notifications emitted for
// ChangeResourceRecordSets calls.
package recordset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	json "github.com/goccy/go-json"
)

// Action is a record set change action.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionDelete Action = "DELETE"
	ActionUpsert Action = "UPSERT"
)

// Valid reports whether a is one of the three provider actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionDelete, ActionUpsert:
		return true
	}
	return false
}

// SimpleSetIdentifier is the only set identifier replicated automatically.
const SimpleSetIdentifier = "Simple"

// AliasTarget points a record set at another DNS resource.
type AliasTarget struct {
	HostedZoneID         string `json:"hostedZoneId"`
	DNSName              string `json:"dNSName"`
	EvaluateTargetHealth bool   `json:"evaluateTargetHealth"`
}

// Change is one record set change taken from an event.
// SetIdentifier is empty when the source record set had none.
// AliasTarget is nil for plain value records, which are never replicated.
type Change struct {
	Action        Action
	Name          string
	Type          string
	SetIdentifier string
	AliasTarget   *AliasTarget
}

// HasSetIdentifier reports whether the change carried a set identifier.
func (c Change) HasSetIdentifier() bool {
	return c.SetIdentifier != ""
}

// ErrMalformedEvent is returned when an event does not have the
// detail.requestParameters.changeBatch.changes shape.
var ErrMalformedEvent = errors.New("malformed record set change event")

type resourceRecordSet struct {
	Name          string       `json:"name"`
	Type          string       `json:"type"`
	SetIdentifier string       `json:"setIdentifier"`
	AliasTarget   *AliasTarget `json:"aliasTarget"`
}

type rawChange struct {
	Action            string             `json:"action"`
	ResourceRecordSet *resourceRecordSet `json:"resourceRecordSet"`
}

type detail struct {
	EventName         string `json:"eventName"`
	RequestParameters *struct {
		HostedZoneID string `json:"hostedZoneId"`
		ChangeBatch  *struct {
			Comment string      `json:"comment"`
			Changes []rawChange `json:"changes"`
		} `json:"changeBatch"`
	} `json:"requestParameters"`
}

// Event is a decoded change notification.
type Event struct {
	ID           string
	Source       string
	DetailType   string
	Account      string
	Region       string
	EventName    string
	HostedZoneID string // source hosted zone
	Changes      []Change
}

// DecodeEvent parses an EventBridge payload into an Event.
// Any deviation from the expected structure yields an error wrapping
// ErrMalformedEvent; individual changes must carry an action and a
// record set name and type.
func DecodeEvent(payload []byte) (Event, error) {
	var envelope events.CloudWatchEvent
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if len(envelope.Detail) == 0 {
		return Event{}, fmt.Errorf("%w: missing detail", ErrMalformedEvent)
	}

	var d detail
	if err := json.Unmarshal(envelope.Detail, &d); err != nil {
		return Event{}, fmt.Errorf("%w: detail: %v", ErrMalformedEvent, err)
	}
	if d.RequestParameters == nil {
		return Event{}, fmt.Errorf("%w: missing detail.requestParameters", ErrMalformedEvent)
	}
	if d.RequestParameters.ChangeBatch == nil {
		return Event{}, fmt.Errorf("%w: missing detail.requestParameters.changeBatch", ErrMalformedEvent)
	}

	ev := Event{
		ID:           envelope.ID,
		Source:       envelope.Source,
		DetailType:   envelope.DetailType,
		Account:      envelope.AccountID,
		Region:       envelope.Region,
		EventName:    d.EventName,
		HostedZoneID: d.RequestParameters.HostedZoneID,
		Changes:      make([]Change, 0, len(d.RequestParameters.ChangeBatch.Changes)),
	}

	for i, rc := range d.RequestParameters.ChangeBatch.Changes {
		c, err := rc.toChange()
		if err != nil {
			return Event{}, fmt.Errorf("%w: change %d: %v", ErrMalformedEvent, i, err)
		}
		ev.Changes = append(ev.Changes, c)
	}

	return ev, nil
}

func (rc rawChange) toChange() (Change, error) {
	action := Action(strings.ToUpper(rc.Action))
	if !action.Valid() {
		return Change{}, fmt.Errorf("unknown action %q", rc.Action)
	}
	if rc.ResourceRecordSet == nil {
		return Change{}, fmt.Errorf("missing resourceRecordSet")
	}
	rrs := rc.ResourceRecordSet
	if rrs.Name == "" {
		return Change{}, fmt.Errorf("missing resourceRecordSet.name")
	}
	if rrs.Type == "" {
		return Change{}, fmt.Errorf("missing resourceRecordSet.type")
	}

	return Change{
		Action:        action,
		Name:          rrs.Name,
		Type:          rrs.Type,
		SetIdentifier: rrs.SetIdentifier,
		AliasTarget:   rrs.AliasTarget,
	}, nil
}
