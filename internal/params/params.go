// Package params reads the project map and Azure credentials from SSM
// Parameter Store and merges them with the config file.
package params

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/costnotify/internal/config"
)

// ErrEmptyParameter is returned when a parameter exists but has no value.
var ErrEmptyParameter = errors.New("params: parameter has no value")

// ParameterAPI is the subset of the SSM client used here.
type ParameterAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Loader reads costnotify parameters from SSM.
type Loader struct {
	api ParameterAPI
	log logrus.FieldLogger
}

// NewLoader creates a Loader. api may be nil when no parameter names are configured.
func NewLoader(api ParameterAPI, log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{api: api, log: log}
}

// Resolved is the merged parameter set for one run.
type Resolved struct {
	Projects         config.ProjectMap
	AzureCredentials []config.AzureCredential
	// ProjectSource is "ssm" or "config".
	ProjectSource string
}

// LoadProjects reads the project map stored as a plain parameter.
func (l *Loader) LoadProjects(ctx context.Context, name string) (config.ProjectMap, error) {
	data, err := l.get(ctx, name, false)
	if err != nil {
		return config.ProjectMap{}, err
	}
	return config.ParseProjectData(data)
}

// LoadAzureCredentials reads the credential list stored as a SecureString.
func (l *Loader) LoadAzureCredentials(ctx context.Context, name string) ([]config.AzureCredential, error) {
	data, err := l.get(ctx, name, true)
	if err != nil {
		return nil, err
	}
	return config.ParseAzureCredentials(data)
}

// Resolve merges SSM parameters with the config file. The SSM project map
// replaces the config one when a parameter name is set; Azure credentials
// from both places are combined.
func (l *Loader) Resolve(ctx context.Context, cfg config.Config) (*Resolved, error) {
	r := &Resolved{
		Projects:      config.ProjectMapFromConfig(cfg.Projects),
		ProjectSource: "config",
	}

	if name := cfg.AWS.ProjectDataParameter; name != "" {
		projects, err := l.LoadProjects(ctx, name)
		if err != nil {
			return nil, err
		}
		r.Projects = projects
		r.ProjectSource = "ssm"
	}
	if err := r.Projects.Validate(); err != nil {
		return nil, err
	}

	var ssmCreds []config.AzureCredential
	if name := cfg.AWS.SecretParameter; name != "" && cfg.Azure.Enabled {
		creds, err := l.LoadAzureCredentials(ctx, name)
		if err != nil {
			return nil, err
		}
		ssmCreds = creds
	}
	for _, c := range cfg.Azure.Subscriptions {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	r.AzureCredentials = config.MergeAzureCredentials(ssmCreds, cfg.Azure.Subscriptions)

	l.log.WithFields(logrus.Fields{
		"projects":            len(r.Projects.Projects),
		"project_source":      r.ProjectSource,
		"azure_subscriptions": len(r.AzureCredentials),
	}).Debug("resolved parameters")
	return r, nil
}

func (l *Loader) get(ctx context.Context, name string, decrypt bool) ([]byte, error) {
	if l.api == nil {
		return nil, fmt.Errorf("params: no SSM client for parameter %q", name)
	}
	out, err := l.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		return nil, fmt.Errorf("params: get %q: %w", name, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyParameter, name)
	}
	return []byte(aws.ToString(out.Parameter.Value)), nil
}
