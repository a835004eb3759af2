package config

// AgentConfig holds the settings a NetTask agent process needs to dial a
// server and run the registration handshake.
type AgentConfig struct {
	// Transport selects the concrete channel: "udp" or "quic".
	Transport string `mapstructure:"transport"`
	// ServerAddress is the address to dial.
	ServerAddress string `mapstructure:"server_address"`
	// TaskSchemasFile points at a YAML file describing the task schemas
	// this agent pushes to the server after the handshake completes.
	TaskSchemasFile string `mapstructure:"task_schemas_file"`
}

// ServerConfig holds the settings a NetTask server process needs to listen
// for agents and decode the metrics they report.
type ServerConfig struct {
	// Transport selects the concrete channel: "udp" or "quic".
	Transport string `mapstructure:"transport"`
	// ListenAddress is the local address to accept agent datagrams on.
	ListenAddress string `mapstructure:"listen_address"`
	// TaskDescriptorsFile points at a YAML file describing every task
	// descriptor the server knows how to decode metrics for, keyed by
	// taskId. An agent's own PushSchemas traffic extends this set at
	// runtime; this file seeds it for tasks expected before any agent
	// connects.
	TaskDescriptorsFile string `mapstructure:"task_descriptors_file"`
	// GatewayListenAddress is the address the admin/introspection gRPC
	// gateway listens on. Empty disables the gateway.
	GatewayListenAddress string `mapstructure:"gateway_listen_address"`
}
