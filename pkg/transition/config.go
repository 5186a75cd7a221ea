package transition

// Config holds the principal tags stored in the grant pivot.
type Config struct {
	UserModel string `env:"TRANSITIONS_USER_MODEL" envDefault:"user"`
	RoleModel string `env:"TRANSITIONS_ROLE_MODEL" envDefault:"role"`
}

// DefaultConfig returns the tags used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		UserModel: "user",
		RoleModel: "role",
	}
}

// User builds a user principal.
func (c Config) User(id string) Principal {
	return Principal{Type: PrincipalType(c.UserModel), ID: id}
}

// Role builds a role principal.
func (c Config) Role(id string) Principal {
	return Principal{Type: PrincipalType(c.RoleModel), ID: id}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.UserModel == "" {
		c.UserModel = d.UserModel
	}
	if c.RoleModel == "" {
		c.RoleModel = d.RoleModel
	}
	return c
}
