package redis

type RedisConfig struct {
	// host:port address.
	Host     string `json:"host" yaml:"host"`
	Password string `json:"password" yaml:"password"`
	// Database to be selected after connecting to the server.
	Db int `json:"db" yaml:"db"`
	// Maximum number of socket connections.
	PoolSize int `json:"pool_size" yaml:"poolSize"`
	// Maximum number of retries before giving up. -1 (not 0) disables retries.
	MaxRetries int `json:"max_retries" yaml:"maxRetries"`
	// Connection age at which client retires (closes) the connection.
	MaxConnAge int64 `json:"max_conn_age" yaml:"maxConnAge"`
	// Dial timeout for establishing new connections, seconds.
	DialTimeout int64 `json:"dial_timeout" yaml:"dialTimeout"`
	// Timeout for socket reads, seconds.
	ReadTimeout int64 `json:"read_timeout" yaml:"readTimeout"`
	// Timeout for socket writes, seconds.
	WriteTimeout int64 `json:"write_timeout" yaml:"writeTimeout"`
	// Minimum number of idle connections.
	MinIdleConns int `json:"min_idle_conns" yaml:"minIdleConns"`
	// Amount of time client waits for connection if all connections are busy.
	PoolTimeout int64 `json:"pool_timeout" yaml:"poolTimeout"`
	// Amount of time after which client closes idle connections.
	IdleTimeout int64 `json:"idle_timeout" yaml:"idleTimeout"`
}

func (rc *RedisConfig) DefaultConfig() {
	if rc.PoolSize == 0 {
		rc.PoolSize = 100
	}
	if rc.MaxRetries == 0 {
		rc.MaxRetries = 3
	}
	if rc.DialTimeout == 0 {
		rc.DialTimeout = 30
	}
	if rc.ReadTimeout == 0 {
		rc.ReadTimeout = 5
	}
	if rc.WriteTimeout == 0 {
		rc.WriteTimeout = 5
	}
	if rc.MinIdleConns == 0 {
		rc.MinIdleConns = 10
	}
	if rc.PoolTimeout == 0 {
		rc.PoolTimeout = 30
	}
	if rc.IdleTimeout == 0 {
		rc.IdleTimeout = 30
	}
}
