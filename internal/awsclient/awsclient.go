// Package awsclient builds the shared AWS SDK configuration.
package awsclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"github.com/theirongolddev/costnotify/internal/config"
)

// Load resolves an aws.Config from the [aws] section. Static keys win over the
// named profile; without either the default credential chain is used.
func Load(ctx context.Context, c config.AWSConfig) (aws.Config, error) {
	region := strings.TrimSpace(c.Region)
	accessKey := strings.TrimSpace(c.AccessKeyID)
	secretKey := strings.TrimSpace(c.SecretAccessKey)

	var opts []func(*awscfg.LoadOptions) error
	if region != "" {
		opts = append(opts, awscfg.WithRegion(region))
	}

	switch {
	case accessKey != "" || secretKey != "":
		if accessKey == "" || secretKey == "" {
			return aws.Config{}, errors.New("aws.access_key_id and aws.secret_access_key must be set together")
		}
		provider := credentials.NewStaticCredentialsProvider(accessKey, secretKey, strings.TrimSpace(c.SessionToken))
		opts = append(opts, awscfg.WithCredentialsProvider(provider))
	case strings.TrimSpace(c.Profile) != "":
		opts = append(opts, awscfg.WithSharedConfigProfile(strings.TrimSpace(c.Profile)))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading aws config: %w", err)
	}
	if cfg.Region == "" {
		return aws.Config{}, errors.New("aws region is not set (aws.region, Region or AWS_REGION)")
	}
	return cfg, nil
}
