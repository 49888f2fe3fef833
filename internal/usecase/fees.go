package usecase

import "github.com/A-Yoshitsugu/crossborder/internal/domain"

// ResolveFees applies request overrides on top of the process defaults and validates the result.
// Precedence is settled here, before any cost math runs.
func ResolveFees(defaults domain.FeeConfig, overrides domain.FeeOverrides) (domain.FeeConfig, error) {
	resolved := defaults.Apply(overrides)
	if err := resolved.Validate(); err != nil {
		return domain.FeeConfig{}, err
	}
	return resolved, nil
}
