package services

import (
	"context"

	"github.com/policyforge/policyforge-backend/internal/platform/logger"
	"github.com/policyforge/policyforge-backend/internal/platform/opatool"
)

// ValidationService fronts the opa toolchain for the validation and
// evaluation endpoints. Malformed or empty policies are an invalid
// *result*, not a transport error, so the tools' structured output is
// passed through untouched.
type ValidationService interface {
	ValidateRego(ctx context.Context, rego string) (*opatool.ValidationResult, error)
	EvaluateRego(ctx context.Context, rego string, input map[string]any) (*opatool.EvaluationResult, error)
}

type validationService struct {
	log   *logger.Logger
	tools opatool.Tools
}

func NewValidationService(baseLog *logger.Logger, tools opatool.Tools) ValidationService {
	serviceLog := baseLog.With("service", "ValidationService")
	return &validationService{log: serviceLog, tools: tools}
}

func (s *validationService) ValidateRego(ctx context.Context, rego string) (*opatool.ValidationResult, error) {
	result, err := s.tools.Validate(ctx, rego)
	if err != nil {
		return nil, err
	}
	s.log.Debug("rego validated", "valid", result.Valid, "errors", len(result.Errors))
	return result, nil
}

func (s *validationService) EvaluateRego(ctx context.Context, rego string, input map[string]any) (*opatool.EvaluationResult, error) {
	result, err := s.tools.Evaluate(ctx, rego, input)
	if err != nil {
		return nil, err
	}
	s.log.Debug("rego evaluated", "command", result.Command)
	return result, nil
}
