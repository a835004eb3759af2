package config

// PresharedSecretConfig describes where the long-lived secret shared by an
// agent and its server comes from. It replaces the teacher's per-node
// ed25519 identity config: NetTask's key agreement is bootstrapped by a
// symmetric pre-shared secret, not a node signing key.
type PresharedSecretConfig struct {
	// PresharedSecret is a base64url(no padding)-encoded secret, inline.
	PresharedSecret string `mapstructure:"preshared_secret"`
	// PresharedSecretFile is a path to a file containing the same, used
	// when the secret shouldn't live in the config file itself.
	PresharedSecretFile string `mapstructure:"preshared_secret_file"`
}
