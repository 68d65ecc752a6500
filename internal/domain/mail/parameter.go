package mail

import (
	"context"
	"strings"

	"github.com/erp/messaging/internal/domain/shared"
)

// ConfigParameter is a system-wide key/value setting
type ConfigParameter struct {
	Key   string
	Value string
}

// NewConfigParameter validates and creates a parameter
func NewConfigParameter(key, value string) (*ConfigParameter, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, shared.NewDomainError("INVALID_PARAMETER_KEY", "Parameter key cannot be empty")
	}
	if len(key) > 256 {
		return nil, shared.NewDomainError("INVALID_PARAMETER_KEY", "Parameter key cannot exceed 256 characters")
	}
	return &ConfigParameter{Key: key, Value: value}, nil
}

// ParameterRepository defines the interface for system parameter persistence
type ParameterRepository interface {
	// Get returns the value and whether the key exists
	Get(ctx context.Context, key string) (string, bool, error)
	// Set creates or replaces a parameter
	Set(ctx context.Context, param *ConfigParameter) error
	// Delete removes a parameter; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// List returns every parameter ordered by key
	List(ctx context.Context) ([]*ConfigParameter, error)
}

// LoadCatchallSettings reads the catch-all parameters
func LoadCatchallSettings(ctx context.Context, repo ParameterRepository) (CatchallSettings, error) {
	domain, _, err := repo.Get(ctx, ParamCatchallDomain)
	if err != nil {
		return CatchallSettings{}, err
	}
	alias, _, err := repo.Get(ctx, ParamCatchallAlias)
	if err != nil {
		return CatchallSettings{}, err
	}
	return CatchallSettings{Domain: domain, Alias: alias}, nil
}
