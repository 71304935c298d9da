// Package common provides shared types and constants used across the tagwatch
// client-server communication layer.
package common

// Environment variable names for configuration.
const (
	// SocketPathEnv is the environment variable for custom socket path.
	SocketPathEnv = "TAGWATCH_SOCKET_PATH"

	// TCPPortEnv is the environment variable for custom TCP port.
	TCPPortEnv = "TAGWATCH_TCP_PORT"

	// ForceTCPEnv is the environment variable to force TCP connections.
	ForceTCPEnv = "TAGWATCH_FORCE_TCP"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "TAGWATCH_DEBUG"

	// DaemonURIEnv overrides the daemon connection URI for clients
	// (unix:///path, tcp://host:port, pipe://name).
	DaemonURIEnv = "TAGWATCH_DAEMON_URI"

	// DaemonTimeoutEnv overrides how long clients wait for a spawned
	// daemon to come up, as a Go duration string.
	DaemonTimeoutEnv = "TAGWATCH_DAEMON_TIMEOUT"

	// PipeNameEnv is the environment variable for a custom Windows pipe name.
	PipeNameEnv = "TAGWATCH_PIPE_NAME"

	// ConfigDirEnv overrides the directory the config file is read from.
	ConfigDirEnv = "TAGWATCH_CONFIG_DIR"

	// DataDirEnv overrides the directory state files are kept in.
	DataDirEnv = "TAGWATCH_DATA_DIR"

	// MasterKeyEnv supplies the credential vault key when no OS keyring
	// is available (headless systems, CI).
	MasterKeyEnv = "TAGWATCH_MASTER_KEY"

	// RPCSecretEnv supplies the JSON-RPC auth token. Empty leaves the
	// RPC endpoint disabled.
	RPCSecretEnv = "TAGWATCH_RPC_SECRET"

	// RPCListenAllEnv, when set to a truthy value, binds the RPC endpoint
	// to all interfaces instead of loopback.
	RPCListenAllEnv = "TAGWATCH_RPC_LISTEN_ALL"

	// SkipDaemonSpawnEnv disables the automatic daemon spawn on client
	// connect. Connection attempts then fail instead of forking a
	// daemon, which tests and supervised setups rely on.
	SkipDaemonSpawnEnv = "TAGWATCH_SKIP_DAEMON_SPAWN"
)
