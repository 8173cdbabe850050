package job

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/costnotify/internal/awsclient"
	"github.com/theirongolddev/costnotify/internal/config"
	"github.com/theirongolddev/costnotify/internal/mail"
	"github.com/theirongolddev/costnotify/internal/metrics"
	"github.com/theirongolddev/costnotify/internal/params"
	"github.com/theirongolddev/costnotify/internal/source/awsce"
	"github.com/theirongolddev/costnotify/internal/source/azurecost"
	"github.com/theirongolddev/costnotify/internal/store"
)

// Setup holds a Job built from configuration and the resources it owns.
type Setup struct {
	Job   *Job
	store *store.Store
}

// Close releases the history store.
func (s *Setup) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// FromConfig wires a Job with real AWS, Azure, SQLite and Prometheus
// collaborators. A nil sender sends through SES.
func FromConfig(ctx context.Context, cfg config.Config, sender mail.Sender, log logrus.FieldLogger) (*Setup, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	needAWS := !cfg.AWS.Disabled ||
		cfg.AWS.ProjectDataParameter != "" ||
		cfg.AWS.SecretParameter != "" ||
		sender == nil

	var awsCfg aws.Config
	if needAWS {
		var err error
		awsCfg, err = awsclient.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
	}

	deps := Deps{
		Metrics: metrics.NewRecorder(),
		Log:     log,
		NewAzure: func(creds []config.AzureCredential) AzureSource {
			return azurecost.New(creds, azurecost.DefaultFactory, log)
		},
	}

	var ssmAPI params.ParameterAPI
	if cfg.AWS.ProjectDataParameter != "" || cfg.AWS.SecretParameter != "" {
		ssmAPI = ssm.NewFromConfig(awsCfg)
	}
	deps.Params = params.NewLoader(ssmAPI, log)

	if !cfg.AWS.Disabled {
		deps.AWS = awsce.NewFromConfig(awsCfg, cfg.AWS.LookupAccountNames,
			awsce.WithRequestsPerSecond(cfg.AWS.RequestsPerSecond),
			awsce.WithLogger(log),
		)
	}

	if sender == nil {
		sender = mail.NewSESSender(sesv2.NewFromConfig(awsCfg), log)
	}
	deps.Sender = sender

	setup := &Setup{}
	if cfg.Store.Enabled {
		path := cfg.Store.Path
		if path == "" {
			path = store.DefaultPath()
		}
		st, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening run history: %w", err)
		}
		setup.store = st
		deps.Store = st
	}

	setup.Job = New(cfg, deps)
	return setup, nil
}
