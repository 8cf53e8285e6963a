package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultSSEEndpoint    = "https://query.sse.com.cn/sseQuery/commonQuery.do"
	DefaultTimeout        = 30 * time.Second
	DefaultPageSize       = 25
	DefaultCacheSize      = 1
	DefaultMinInterval    = 500 * time.Millisecond
	DefaultPageDelay      = 500 * time.Millisecond
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = 1 * time.Second
	DefaultJSONPParam     = "jsonCallBack"
	DefaultCallbackPrefix = "jsonpCallback"
	DefaultBaseDir        = "data/universe"
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
)

func (c *Config) applyDefaults() {
	if c.Exchanges == nil {
		c.Exchanges = make(map[string]ExchangeConfig)
	}

	// The SSE entry always exists: its endpoint and query shape are stable
	// public values, so a bare config still produces a working fetch.
	sse, ok := c.Exchanges["sse"]
	if !ok {
		sse = ExchangeConfig{}
	}
	applySSEDefaults(&sse)
	c.Exchanges["sse"] = sse

	for id, ex := range c.Exchanges {
		if id == "sse" {
			continue
		}
		applyExchangeDefaults(&ex)
		c.Exchanges[id] = ex
	}

	if c.Storage.BaseDir == "" {
		c.Storage.BaseDir = DefaultBaseDir
	}

	if c.Catalog.Port == 0 {
		c.Catalog.Port = DefaultDBPort
	}
	if c.Catalog.SSLMode == "" {
		c.Catalog.SSLMode = DefaultDBSSLMode
	}
	if c.Catalog.MaxConns == 0 {
		c.Catalog.MaxConns = DefaultMaxConns
	}
	if c.Catalog.MinConns == 0 {
		c.Catalog.MinConns = DefaultMinConns
	}
}

func applyExchangeDefaults(ex *ExchangeConfig) {
	if ex.Timeout == 0 {
		ex.Timeout = DefaultTimeout
	}
	if ex.Pagination.PageSize == 0 {
		ex.Pagination.PageSize = DefaultPageSize
	}
	if ex.Pagination.CacheSize == 0 {
		ex.Pagination.CacheSize = DefaultCacheSize
	}
	if ex.RateLimit.MinInterval == 0 {
		ex.RateLimit.MinInterval = DefaultMinInterval
	}
	if ex.RateLimit.PageDelay == 0 {
		ex.RateLimit.PageDelay = DefaultPageDelay
	}
	if ex.Retry.MaxAttempts == 0 {
		ex.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if ex.Retry.BaseDelay == 0 {
		ex.Retry.BaseDelay = DefaultBaseDelay
	}
	if ex.JSONP.Param == "" {
		ex.JSONP.Param = DefaultJSONPParam
	}
	if ex.JSONP.CallbackPrefix == "" {
		ex.JSONP.CallbackPrefix = DefaultCallbackPrefix
	}
}

func applySSEDefaults(ex *ExchangeConfig) {
	applyExchangeDefaults(ex)

	if ex.Endpoint == "" {
		ex.Endpoint = DefaultSSEEndpoint
	}
	if len(ex.Query) == 0 {
		ex.Query = map[string]string{
			"sqlId":        "COMMON_SSE_CP_GPJCTPZ_GPLB_GP_L",
			"type":         "inParams",
			"isPagination": "true",
		}
	}
	if len(ex.Filters) == 0 {
		ex.Filters = map[string]string{
			"STOCK_TYPE":     "1",
			"REG_PROVINCE":   "",
			"CSRC_CODE":      "",
			"STOCK_CODE":     "",
			"COMPANY_STATUS": "2,4,5,7,8",
		}
	}
}
