package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if len(c.Exchanges) == 0 {
		return errors.New("at least one exchange must be configured")
	}

	for id, ex := range c.Exchanges {
		if err := ex.validate("exchanges." + id); err != nil {
			return err
		}
	}

	if c.Storage.BaseDir == "" {
		return errors.New("storage.base_dir is required")
	}

	if c.Normalize.MaxSkipRatio < 0 || c.Normalize.MaxSkipRatio > 1 {
		return fmt.Errorf("normalize.max_skip_ratio must be between 0 and 1, got %g", c.Normalize.MaxSkipRatio)
	}

	if c.Catalog.Enabled {
		if err := c.Catalog.validate("catalog"); err != nil {
			return err
		}
	}

	return nil
}

func (ex *ExchangeConfig) validate(prefix string) error {
	if ex.Endpoint == "" {
		return fmt.Errorf("%s.endpoint is required", prefix)
	}
	if ex.Pagination.PageSize < 1 || ex.Pagination.PageSize > 200 {
		return fmt.Errorf("%s.pagination.page_size must be between 1 and 200, got %d", prefix, ex.Pagination.PageSize)
	}
	if ex.RateLimit.MinInterval < 0 {
		return fmt.Errorf("%s.rate_limit.min_interval must be >= 0", prefix)
	}
	if ex.RateLimit.PageDelay < 0 {
		return fmt.Errorf("%s.rate_limit.page_delay must be >= 0", prefix)
	}
	if ex.Retry.MaxAttempts < 1 || ex.Retry.MaxAttempts > 10 {
		return fmt.Errorf("%s.retry.max_attempts must be between 1 and 10, got %d", prefix, ex.Retry.MaxAttempts)
	}
	if ex.Retry.BaseDelay <= 0 {
		return fmt.Errorf("%s.retry.base_delay must be > 0", prefix)
	}
	if ex.Timeout <= 0 {
		return fmt.Errorf("%s.timeout must be > 0", prefix)
	}
	return nil
}

func (db *CatalogConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
