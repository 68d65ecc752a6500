package mail

import (
	"context"

	"github.com/erp/messaging/internal/domain/identity"
	"github.com/erp/messaging/internal/domain/mail"
	"github.com/erp/messaging/internal/domain/shared"
	"github.com/erp/messaging/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ParameterService manages system parameters. Reading is open to employees;
// setting and unsetting require an administrator.
type ParameterService struct {
	repo mail.ParameterRepository
}

// NewParameterService creates a new ParameterService
func NewParameterService(repo mail.ParameterRepository) *ParameterService {
	return &ParameterService{repo: repo}
}

// Get returns a parameter; NOT_FOUND when it is not set
func (s *ParameterService) Get(ctx context.Context, p *identity.Principal, key string) (*ParameterResponse, error) {
	if !p.IsEmployee() {
		return nil, parameterDenied(mail.OperationRead)
	}
	value, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &ParameterResponse{Key: key, Value: value}, nil
}

// List returns every parameter
func (s *ParameterService) List(ctx context.Context, p *identity.Principal) ([]ParameterResponse, error) {
	if !p.IsAdmin() {
		return nil, parameterDenied(mail.OperationRead)
	}
	params, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ParameterResponse, len(params))
	for i, param := range params {
		out[i] = ParameterResponse{Key: param.Key, Value: param.Value}
	}
	return out, nil
}

// Set creates or replaces a parameter
func (s *ParameterService) Set(ctx context.Context, p *identity.Principal, key, value string) (*ParameterResponse, error) {
	if !p.IsAdmin() {
		return nil, parameterDenied(mail.OperationWrite)
	}
	param, err := mail.NewConfigParameter(key, value)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Set(ctx, param); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("System parameter set", zap.String("key", param.Key))
	return &ParameterResponse{Key: param.Key, Value: param.Value}, nil
}

// Unset removes a parameter; unsetting a missing key succeeds
func (s *ParameterService) Unset(ctx context.Context, p *identity.Principal, key string) error {
	if !p.IsAdmin() {
		return parameterDenied(mail.OperationUnlink)
	}
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	logger.L(ctx).Info("System parameter unset", zap.String("key", key))
	return nil
}

// SeedDefaults stores the given values for keys that are not set yet.
// Empty values are skipped.
func (s *ParameterService) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	for key, value := range defaults {
		if value == "" {
			continue
		}
		_, ok, err := s.repo.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		param, err := mail.NewConfigParameter(key, value)
		if err != nil {
			return err
		}
		if err := s.repo.Set(ctx, param); err != nil {
			return err
		}
		logger.L(ctx).Info("Seeded system parameter", zap.String("key", key))
	}
	return nil
}

func parameterDenied(op mail.Operation) error {
	return mail.AccessDenied(op, "ir.config_parameter")
}
