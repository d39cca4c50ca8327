// Package app wires configuration, provider clients and the AWS-backed
// integrations into an AnnotateService. Both entrypoints share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"source-annotator/internal/config"
	"source-annotator/internal/integrations/paramstore"
	"source-annotator/internal/repository"
	"source-annotator/internal/usecase"
)

// NewService builds the annotation service described by cfg. AWS config is
// only loaded when SSM or the ledger is enabled, so local runs need no AWS
// credentials.
func NewService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*usecase.AnnotateService, error) {
	var (
		getter   paramstore.Getter
		recorder usecase.RunRecorder
	)
	if cfg.UsesAWS() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		getter, recorder, err = awsIntegrations(cfg, awsCfg)
		if err != nil {
			return nil, err
		}
	}
	return newService(cfg, logger, getter, recorder)
}

func awsIntegrations(cfg config.Config, awsCfg aws.Config) (paramstore.Getter, usecase.RunRecorder, error) {
	var (
		getter   paramstore.Getter
		recorder usecase.RunRecorder
	)
	if cfg.ParamPrefix != "" {
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, nil, fmt.Errorf("app: create SSM client: %w", err)
		}
		getter = ps
	}
	if cfg.LedgerTable != "" {
		ledger, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.LedgerTable)
		if err != nil {
			return nil, nil, fmt.Errorf("app: create ledger client: %w", err)
		}
		recorder = ledger
	}
	return getter, recorder, nil
}

func newService(cfg config.Config, logger *slog.Logger, getter paramstore.Getter, recorder usecase.RunRecorder) (*usecase.AnnotateService, error) {
	token, err := newTokenSource(cfg, getter)
	if err != nil {
		return nil, err
	}
	llm, err := NewChatClient(cfg, token)
	if err != nil {
		return nil, fmt.Errorf("app: create %s client: %w", cfg.Provider, err)
	}

	opts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithProvider(cfg.Provider),
		usecase.WithLanguage(cfg.Language),
		usecase.WithAtomicWrite(cfg.AtomicWrite),
		usecase.WithMaxSourceBytes(cfg.MaxSourceBytes),
	}
	if recorder != nil {
		opts = append(opts, usecase.WithRecorder(recorder))
	}
	return usecase.NewAnnotateService(llm, cfg.ResolvedModel(), opts...)
}
