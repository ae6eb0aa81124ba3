package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
)

// Route53Client is an in-memory hosted zone implementing aws.Route53Client.
// It rejects conflicting changes with the same InvalidChangeBatch messages
// Route53 returns.
type Route53Client struct {
	mu sync.Mutex

	// Records maps "name|type" to the stored record set
	Records map[string]types.ResourceRecordSet
	// Batches holds every accepted change batch in order
	Batches []*types.ChangeBatch
	// PendingPolls is the number of GetChange calls answered PENDING
	// before a change reports INSYNC
	PendingPolls int
	// Err, when set, is returned by every ChangeResourceRecordSets call
	Err error

	ChangeCalls int
	ListCalls   int
	GetCalls    int

	nextID int
	polls  map[string]int
}

// NewRoute53Client creates an empty zone.
func NewRoute53Client() *Route53Client {
	return &Route53Client{
		Records: make(map[string]types.ResourceRecordSet),
		polls:   make(map[string]int),
	}
}

func recordKey(name string, rrType types.RRType) string {
	return strings.ToLower(strings.TrimSuffix(name, ".")) + "|" + string(rrType)
}

// Put stores a record set directly, bypassing change validation.
func (m *Route53Client) Put(rrs types.ResourceRecordSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[recordKey(aws.ToString(rrs.Name), rrs.Type)] = rrs
}

// Get returns the stored record set for name and type.
func (m *Route53Client) Get(name string, rrType types.RRType) (types.ResourceRecordSet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rrs, ok := m.Records[recordKey(name, rrType)]
	return rrs, ok
}

func describe(rrs *types.ResourceRecordSet) string {
	setID := aws.ToString(rrs.SetIdentifier)
	if setID == "" {
		setID = "Simple"
	}
	return fmt.Sprintf("[name='%s', type='%s', set-identifier='%s']", aws.ToString(rrs.Name), rrs.Type, setID)
}

func rejected(msg string) error {
	return &types.InvalidChangeBatch{Messages: []string{msg}}
}

func (m *Route53Client) ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChangeCalls++

	if m.Err != nil {
		return nil, m.Err
	}

	for _, c := range params.ChangeBatch.Changes {
		rrs := c.ResourceRecordSet
		key := recordKey(aws.ToString(rrs.Name), rrs.Type)
		existing, found := m.Records[key]

		switch c.Action {
		case types.ChangeActionCreate:
			if found {
				return nil, rejected(fmt.Sprintf("[Tried to create resource record set %s but it already exists]", describe(rrs)))
			}
			m.Records[key] = *rrs
		case types.ChangeActionUpsert:
			m.Records[key] = *rrs
		case types.ChangeActionDelete:
			if !found {
				return nil, rejected(fmt.Sprintf("[Tried to delete resource record set %s but it was not found]", describe(rrs)))
			}
			if !sameAlias(existing.AliasTarget, rrs.AliasTarget) {
				return nil, rejected(fmt.Sprintf("[Tried to delete resource record set %s but the values provided do not match the current values]", describe(rrs)))
			}
			delete(m.Records, key)
		default:
			return nil, fmt.Errorf("unsupported action %s", c.Action)
		}
	}

	m.Batches = append(m.Batches, params.ChangeBatch)
	m.nextID++
	id := fmt.Sprintf("/change/C%06d", m.nextID)
	return &route53.ChangeResourceRecordSetsOutput{
		ChangeInfo: &types.ChangeInfo{
			Id:      aws.String(id),
			Status:  types.ChangeStatusPending,
			Comment: params.ChangeBatch.Comment,
		},
	}, nil
}

func sameAlias(a, b *types.AliasTarget) bool {
	if a == nil || b == nil {
		return a == b
	}
	return aws.ToString(a.HostedZoneId) == aws.ToString(b.HostedZoneId) &&
		strings.EqualFold(aws.ToString(a.DNSName), aws.ToString(b.DNSName)) &&
		a.EvaluateTargetHealth == b.EvaluateTargetHealth
}

// ListResourceRecordSets returns records in name order starting at
// StartRecordName and StartRecordType, like Route53 does.
func (m *Route53Client) ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++

	keys := make([]string, 0, len(m.Records))
	for k := range m.Records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := ""
	if params.StartRecordName != nil {
		start = recordKey(aws.ToString(params.StartRecordName), params.StartRecordType)
	}
	limit := int(aws.ToInt32(params.MaxItems))
	if limit == 0 {
		limit = 300
	}

	out := &route53.ListResourceRecordSetsOutput{MaxItems: aws.Int32(int32(limit))}
	for _, k := range keys {
		if k < start {
			continue
		}
		if len(out.ResourceRecordSets) == limit {
			out.IsTruncated = true
			break
		}
		out.ResourceRecordSets = append(out.ResourceRecordSets, m.Records[k])
	}
	return out, nil
}

func (m *Route53Client) GetChange(ctx context.Context, params *route53.GetChangeInput, optFns ...func(*route53.Options)) (*route53.GetChangeOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++

	id := aws.ToString(params.Id)
	m.polls[id]++
	status := types.ChangeStatusInsync
	if m.polls[id] <= m.PendingPolls {
		status = types.ChangeStatusPending
	}
	return &route53.GetChangeOutput{
		ChangeInfo: &types.ChangeInfo{Id: params.Id, Status: status},
	}, nil
}
