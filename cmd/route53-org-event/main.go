// Package main generates EventBridge record set change events for local
// runs and tests. It can also submit the same change to a source hosted
// zone so that CloudTrail emits a real event.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/aws-lambda-go/events"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gurre/route53-org-sync/aws"
	"github.com/gurre/route53-org-sync/recordset"
	"github.com/gurre/route53-org-sync/replicator"
)

// Config holds the command-line configuration for the event generator.
type Config struct {
	Action         string
	Name           string // record name, random under Domain when empty
	Domain         string
	Type           string
	SetIdentifier  string
	AliasZone      string
	AliasDNSName   string
	EvaluateHealth bool
	SourceZone     string
	Account        string
	Region         string
	Count          int
	Seed           int64
	Out            string
	Apply          bool
}

func randomLabel(r *rand.Rand, n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[r.Intn(len(letters))]
	}
	return string(b)
}

func fqdn(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

func buildChanges(cfg Config, r *rand.Rand) ([]map[string]any, error) {
	action := recordset.Action(strings.ToUpper(cfg.Action))
	if !action.Valid() {
		return nil, fmt.Errorf("invalid action %q", cfg.Action)
	}

	changes := make([]map[string]any, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		name := cfg.Name
		if name == "" || cfg.Count > 1 {
			name = randomLabel(r, 8) + "." + strings.TrimSuffix(cfg.Domain, ".")
		}
		rrs := map[string]any{
			"name": fqdn(name),
			"type": cfg.Type,
			"aliasTarget": recordset.AliasTarget{
				HostedZoneID:         cfg.AliasZone,
				DNSName:              fqdn(cfg.AliasDNSName),
				EvaluateTargetHealth: cfg.EvaluateHealth,
			},
		}
		if cfg.SetIdentifier != "" {
			rrs["setIdentifier"] = cfg.SetIdentifier
		}
		changes = append(changes, map[string]any{
			"action":            string(action),
			"resourceRecordSet": rrs,
		})
	}
	return changes, nil
}

func buildEvent(cfg Config, r *rand.Rand, now time.Time) (events.CloudWatchEvent, error) {
	changes, err := buildChanges(cfg, r)
	if err != nil {
		return events.CloudWatchEvent{}, err
	}

	detail, err := json.Marshal(map[string]any{
		"eventVersion": "1.08",
		"eventTime":    now.Format(time.RFC3339),
		"eventSource":  "route53.amazonaws.com",
		"eventName":    "ChangeResourceRecordSets",
		"awsRegion":    cfg.Region,
		"requestParameters": map[string]any{
			"hostedZoneId": cfg.SourceZone,
			"changeBatch":  map[string]any{"changes": changes},
		},
	})
	if err != nil {
		return events.CloudWatchEvent{}, fmt.Errorf("failed to encode detail: %w", err)
	}

	return events.CloudWatchEvent{
		Version:    "0",
		ID:         uuid.NewString(),
		DetailType: "AWS API Call via CloudTrail",
		Source:     "aws.route53",
		AccountID:  cfg.Account,
		Time:       now,
		Region:     cfg.Region,
		Resources:  []string{},
		Detail:     detail,
	}, nil
}

// applyToSource submits the generated changes to the source zone.
func applyToSource(ctx context.Context, client aws.Route53Client, zone string, ev recordset.Event) error {
	batch := &types.ChangeBatch{Comment: awssdk.String(replicator.DefaultComment)}
	for _, c := range ev.Changes {
		batch.Changes = append(batch.Changes, types.Change{
			Action: types.ChangeAction(c.Action),
			ResourceRecordSet: &types.ResourceRecordSet{
				Name:          awssdk.String(c.Name),
				Type:          types.RRType(c.Type),
				SetIdentifier: nilIfEmpty(c.SetIdentifier),
				AliasTarget: &types.AliasTarget{
					HostedZoneId:         awssdk.String(c.AliasTarget.HostedZoneID),
					DNSName:              awssdk.String(c.AliasTarget.DNSName),
					EvaluateTargetHealth: c.AliasTarget.EvaluateTargetHealth,
				},
			},
		})
	}

	resp, err := client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: awssdk.String(zone),
		ChangeBatch:  batch,
	})
	if err != nil {
		return fmt.Errorf("failed to change source zone %s: %w", zone, err)
	}
	fmt.Printf("Submitted change %s to %s\n", awssdk.ToString(resp.ChangeInfo.Id), zone)
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return awssdk.String(s)
}

func main() {
	cfg := Config{}

	flag.StringVar(&cfg.Action, "action", "CREATE", "Change action: CREATE | DELETE | UPSERT")
	flag.StringVar(&cfg.Name, "name", "", "Record name (random under -domain if empty)")
	flag.StringVar(&cfg.Domain, "domain", "api.test.io", "Domain for random record names")
	flag.StringVar(&cfg.Type, "type", "A", "Record type")
	flag.StringVar(&cfg.SetIdentifier, "set-identifier", "", "Optional set identifier")
	flag.StringVar(&cfg.AliasZone, "alias-zone", "Z35SXDOTRQ7X7K", "Alias target hosted zone id")
	flag.StringVar(&cfg.AliasDNSName, "alias-dns", "dualstack.internal-test-alb-1234567890.us-east-1.elb.amazonaws.com.", "Alias target DNS name")
	flag.BoolVar(&cfg.EvaluateHealth, "evaluate-health", false, "Alias EvaluateTargetHealth")
	flag.StringVar(&cfg.SourceZone, "source-zone", "Z1SOURCEZONE", "Source hosted zone id")
	flag.StringVar(&cfg.Account, "account", "222222222222", "Source account id")
	flag.StringVar(&cfg.Region, "region", "us-east-1", "Event region")
	flag.IntVar(&cfg.Count, "count", 1, "Number of changes in the batch")
	flag.Int64Var(&cfg.Seed, "seed", 0, "Random seed (0 = time-based)")
	flag.StringVar(&cfg.Out, "out", "", "Write the event to this file instead of stdout")
	flag.BoolVar(&cfg.Apply, "apply", false, "Also submit the change to -source-zone")
	flag.Parse()

	if cfg.Count < 1 {
		log.Fatalf("-count must be at least 1")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))

	ev, err := buildEvent(cfg, r, time.Now().UTC())
	if err != nil {
		log.Fatalf("Failed to build event: %v", err)
	}
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode event: %v", err)
	}

	if cfg.Out == "" {
		fmt.Println(string(data))
	} else {
		if err := os.WriteFile(cfg.Out, data, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", cfg.Out, err)
		}
		fmt.Printf("Wrote event %s to %s (seed %d)\n", ev.ID, cfg.Out, seed)
	}

	if !cfg.Apply {
		return
	}

	decoded, err := recordset.DecodeEvent(data)
	if err != nil {
		log.Fatalf("Generated event does not decode: %v", err)
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.Fatalf("Unable to load SDK config: %v", err)
	}
	client := aws.NewRoute53Client(route53.NewFromConfig(awsCfg))
	if err := applyToSource(context.Background(), client, cfg.SourceZone, decoded); err != nil {
		log.Fatalf("%v", err)
	}
}
