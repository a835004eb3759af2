package config

// NetConfig tunes the agent's dial-retry behavior in pkg/transport's
// DialWithBackoff: how long to wait before the first retry, how far that
// wait is allowed to grow, and how much random jitter to add so that many
// agents reconnecting to the same server don't all retry in lockstep.
type NetConfig struct {
	DialBackoffInitialMS int `mapstructure:"dial_backoff_initial_ms"`
	DialBackoffMaxMS     int `mapstructure:"dial_backoff_max_ms"`
	DialBackoffJitterMS  int `mapstructure:"dial_backoff_jitter_ms"`
}
