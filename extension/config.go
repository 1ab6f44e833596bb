package extension

// Config holds the groupbuy extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.groupbuy" or "groupbuy" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for groupbuy routes (default: "/groupbuy").
	// The LINE webhook is mounted at BasePath + "/webhook".
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// ChannelSecret verifies webhook signatures.
	ChannelSecret string `json:"channel_secret" mapstructure:"channel_secret" yaml:"channel_secret"`

	// ChannelAccessToken authenticates Messaging API calls.
	ChannelAccessToken string `json:"channel_access_token" mapstructure:"channel_access_token" yaml:"channel_access_token"`

	// LINEEndpoint overrides the Messaging API base URL.
	LINEEndpoint string `json:"line_endpoint" mapstructure:"line_endpoint" yaml:"line_endpoint"`

	// Coordinators are the user ids allowed to run keyword commands.
	Coordinators []string `json:"coordinators" mapstructure:"coordinators" yaml:"coordinators"`

	// EchoUnrecognized repeats messages that are not commands.
	EchoUnrecognized bool `json:"echo_unrecognized" mapstructure:"echo_unrecognized" yaml:"echo_unrecognized"`

	// AnnounceTo is the chat that receives ledger announcements.
	AnnounceTo string `json:"announce_to" mapstructure:"announce_to" yaml:"announce_to"`

	// Concurrency bounds how many webhook events are handled at once
	// (default: 8).
	Concurrency int `json:"concurrency" mapstructure:"concurrency" yaml:"concurrency"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and auto-constructs
	// the appropriate store based on the driver type (pg/sqlite/mongo).
	// When empty and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:    "/groupbuy",
		Concurrency: 8,
	}
}
