// Package dynamodb implements the annotation repositories on a single
// DynamoDB table. Items are keyed USER#<owner> / NOTE#<id> or HL#<id>, and
// a GSI keyed by the bare annotation id supports lookups that do not know
// the owner yet.
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// IndexByID is the GSI used for id-only lookups.
const IndexByID = "GSI1"

// NewClient builds a DynamoDB client from the ambient AWS configuration.
// endpoint, when non-empty, overrides the resolved endpoint for local
// development against dynamodb-local.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var clientOpts []func(*dynamodb.Options)
	if endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return dynamodb.NewFromConfig(cfg, clientOpts...), nil
}
