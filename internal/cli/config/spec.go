package config

// CLIConfig is the configuration for shardkv-cli.
type CLIConfig struct {
	// Current names the profile used when --profile is not given.
	Current string `koanf:"current"`

	// Output is the default output format: table, json or yaml.
	Output string `koanf:"output"`

	Profiles map[string]Profile `koanf:"profiles"`
}

// Profile stores the connection details of one server.
type Profile struct {
	Server     string `koanf:"server"`
	AdminToken string `koanf:"admin_token"`
}

// DefaultServer is used when no profile names a server.
const DefaultServer = "http://localhost:5080"

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Output:   "table",
		Profiles: make(map[string]Profile),
	}
}

// Profile returns the named profile, or the current one when name is
// empty. A missing profile yields DefaultServer with no token.
func (c *CLIConfig) Profile(name string) Profile {
	if name == "" {
		name = c.Current
	}
	p := c.Profiles[name]
	if p.Server == "" {
		p.Server = DefaultServer
	}
	return p
}
