package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/costnotify/internal/job"
)

var lambdaCmd = &cobra.Command{
	Use:    "lambda",
	Short:  "Run as an AWS Lambda function (one report run per invocation)",
	Hidden: true,
	RunE:   runLambda,
}

func init() {
	rootCmd.AddCommand(lambdaCmd)
}

// lambdaResponse uses the API Gateway proxy response shape.
type lambdaResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type lambdaBody struct {
	RunID    string   `json:"run_id"`
	Sent     []string `json:"sent"`
	Failed   []string `json:"failed,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func runLambda(cmd *cobra.Command, _ []string) error {
	// Lambda logs go to CloudWatch; JSON unless the flag was set explicitly.
	if !cmd.Flags().Changed("log-format") {
		flagLogFormat = "json"
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// The function filesystem is ephemeral; keep history only on an explicit path.
	if cfg.Store.Path == "" {
		cfg.Store.Enabled = false
	}
	log, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}

	lambda.Start(func(ctx context.Context, _ json.RawMessage) (lambdaResponse, error) {
		setup, err := job.FromConfig(ctx, cfg, nil, log)
		if err != nil {
			return lambdaResponse{StatusCode: 500}, err
		}
		defer setup.Close()

		res, runErr := setup.Job.Run(ctx, job.Options{})
		body := lambdaBody{}
		if res != nil {
			body = lambdaBody{RunID: res.RunID, Sent: res.Sent, Failed: res.Failed, Warnings: res.Warnings}
		}
		data, err := json.Marshal(body)
		if err != nil {
			return lambdaResponse{StatusCode: 500}, fmt.Errorf("encoding response: %w", err)
		}
		if runErr != nil {
			return lambdaResponse{StatusCode: 500, Body: string(data)}, runErr
		}
		return lambdaResponse{StatusCode: 200, Body: string(data)}, nil
	})
	return nil
}
