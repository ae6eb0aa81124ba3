package replicator

import (
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/route53/types"
)

type conflict int

const (
	notAConflict          conflict = iota // not an InvalidChangeBatch
	conflictNotFound                      // tried to delete ... but it was not found
	conflictAlreadyExists                 // tried to create ... but it already exists
	conflictOther                         // any other InvalidChangeBatch
)

// classify maps an InvalidChangeBatch to a conflict kind by its message text.
// Route53 exposes no reason code for these, so the phrases are matched as-is:
//
//	[Tried to delete resource record set [name='a.example.com.', type='A', set-identifier='Simple'] but it was not found]
//	[Tried to create resource record set [name='a.example.com.', type='A', set-identifier='Simple'] but it already exists]
func classify(err error) conflict {
	var icb *types.InvalidChangeBatch
	if !errors.As(err, &icb) {
		return notAConflict
	}

	msgs := append([]string{icb.ErrorMessage()}, icb.Messages...)
	text := strings.ToLower(strings.Join(msgs, " "))

	switch {
	case strings.Contains(text, "tried to delete resource record set ") && strings.Contains(text, "but it was not found"):
		return conflictNotFound
	case strings.Contains(text, "tried to create resource record set ") && strings.Contains(text, "but it already exists"):
		return conflictAlreadyExists
	default:
		return conflictOther
	}
}
