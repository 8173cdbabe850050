package params

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costnotify/internal/config"
)

type fakeSSM struct {
	values    map[string]string
	decrypted map[string]bool
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	name := aws.ToString(in.Name)
	if f.decrypted == nil {
		f.decrypted = make(map[string]bool)
	}
	f.decrypted[name] = aws.ToBool(in.WithDecryption)
	v, ok := f.values[name]
	if !ok {
		return nil, &ssmtypes.ParameterNotFound{}
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(v)}}, nil
}

const projectJSON = `{"default_project": "common", "project_data": {
  "common": {"AccountID": ["111"], "SubscriptionID": [], "budget_yen": 1000},
  "alpha": {"AccountID": ["222"], "SubscriptionID": ["sub-1"], "budget_yen": 500}}}`

const credsJSON = `[{"az_tenant_id": "t", "az_client_id": "c", "az_client_secret": "s", "az_subscription_id": "sub-1", "az_subscription_name": "Prod"}]`

func TestResolve_FromSSM(t *testing.T) {
	api := &fakeSSM{values: map[string]string{
		"/cost/projects": projectJSON,
		"/cost/azure":    credsJSON,
	}}
	cfg := config.DefaultConfig()
	cfg.AWS.ProjectDataParameter = "/cost/projects"
	cfg.AWS.SecretParameter = "/cost/azure"
	cfg.Azure.Subscriptions = []config.AzureCredential{
		{TenantID: "t2", ClientID: "c2", ClientSecret: "s2", SubscriptionID: "SUB-1"},
		{TenantID: "t3", ClientID: "c3", ClientSecret: "s3", SubscriptionID: "sub-2"},
	}

	r, err := NewLoader(api, nil).Resolve(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "ssm", r.ProjectSource)
	assert.Equal(t, []string{"alpha", "common"}, r.Projects.Names())
	require.Len(t, r.AzureCredentials, 2)
	assert.Equal(t, "Prod", r.AzureCredentials[0].SubscriptionName)
	assert.Equal(t, "sub-2", r.AzureCredentials[1].SubscriptionID)

	assert.False(t, api.decrypted["/cost/projects"])
	assert.True(t, api.decrypted["/cost/azure"])
}

func TestResolve_FromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Projects = config.ProjectsConfig{
		Default: "common",
		Items:   map[string]config.ProjectConfig{"common": {Budget: 10}},
	}
	r, err := NewLoader(nil, nil).Resolve(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "config", r.ProjectSource)
	assert.Empty(t, r.AzureCredentials)
}

func TestResolve_Errors(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := NewLoader(nil, nil).Resolve(context.Background(), cfg)
	assert.Error(t, err, "no projects anywhere")

	cfg.AWS.ProjectDataParameter = "/missing"
	_, err = NewLoader(&fakeSSM{}, nil).Resolve(context.Background(), cfg)
	var notFound *ssmtypes.ParameterNotFound
	assert.True(t, errors.As(err, &notFound))

	api := &fakeSSM{values: map[string]string{"/p": `{"default_project": "x", "project_data": {"y": {}}}`}}
	cfg.AWS.ProjectDataParameter = "/p"
	_, err = NewLoader(api, nil).Resolve(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrNoDefaultProject)
}

func TestLoadProjects_Empty(t *testing.T) {
	api := &fakeSSM{values: map[string]string{"/p": ""}}
	_, err := NewLoader(api, nil).LoadProjects(context.Background(), "/p")
	assert.ErrorIs(t, err, ErrEmptyParameter)
}
