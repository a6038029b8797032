// Package config provides Viper-based configuration loading for the telnet core.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Options holds every tunable named by the protocol core: sub-negotiation
// buffer limits, reader backpressure thresholds, and the connect-time
// negotiation clock's timing.
type Options struct {
	// MaxSubnegotiation caps the SB payload buffer in bytes. A SB that grows
	// past this without a terminating IAC SE is dropped and logged.
	MaxSubnegotiation int `mapstructure:"max_subnegotiation"`
	// ReaderSoftLimit is the Stream reader's soft buffer limit. The transport
	// is paused once buffered bytes reach twice this value.
	ReaderSoftLimit int `mapstructure:"reader_soft_limit"`
	// ConnectDeferred is the poll interval of the connect-time negotiation clock.
	ConnectDeferred time.Duration `mapstructure:"connect_deferred"`
	// ConnectMinWaitClient is the minimum elapsed time before negotiation may
	// be declared complete, from the client role.
	ConnectMinWaitClient time.Duration `mapstructure:"connect_minwait_client"`
	// ConnectMinWaitServer is the server-role equivalent of ConnectMinWaitClient.
	ConnectMinWaitServer time.Duration `mapstructure:"connect_minwait_server"`
	// ConnectMaxWaitClient forces negotiation complete regardless of pending
	// replies, from the client role.
	ConnectMaxWaitClient time.Duration `mapstructure:"connect_maxwait_client"`
	// ConnectMaxWaitServer is the server-role equivalent of ConnectMaxWaitClient.
	ConnectMaxWaitServer time.Duration `mapstructure:"connect_maxwait_server"`
	// AlwaysDO lists option bytes the client should accept a peer-initiated
	// WILL for even though they're refused by default (NAWS, LINEMODE,
	// SNDLOC, LFLOW, STATUS per spec §4.E).
	AlwaysDO []int `mapstructure:"always_do"`
}

// MinWait returns the configured minimum wait for the given role.
//
// Precondition: role is "client" or "server".
func (o Options) MinWait(role string) time.Duration {
	if role == "server" {
		return o.ConnectMinWaitServer
	}
	return o.ConnectMinWaitClient
}

// MaxWait returns the configured maximum wait for the given role.
//
// Precondition: role is "client" or "server".
func (o Options) MaxWait(role string) time.Duration {
	if role == "server" {
		return o.ConnectMaxWaitServer
	}
	return o.ConnectMaxWaitClient
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (o Options) Validate() error {
	var errs []string

	if o.MaxSubnegotiation <= 0 {
		errs = append(errs, fmt.Sprintf("max_subnegotiation must be > 0, got %d", o.MaxSubnegotiation))
	}
	if o.ReaderSoftLimit <= 0 {
		errs = append(errs, fmt.Sprintf("reader_soft_limit must be > 0, got %d", o.ReaderSoftLimit))
	}
	if o.ConnectDeferred <= 0 {
		errs = append(errs, "connect_deferred must be > 0")
	}
	if o.ConnectMinWaitClient < 0 || o.ConnectMinWaitServer < 0 {
		errs = append(errs, "connect_minwait_* must not be negative")
	}
	if o.ConnectMaxWaitClient < o.ConnectMinWaitClient {
		errs = append(errs, "connect_maxwait_client must be >= connect_minwait_client")
	}
	if o.ConnectMaxWaitServer < o.ConnectMinWaitServer {
		errs = append(errs, "connect_maxwait_server must be >= connect_minwait_server")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Options or a non-nil error.
func Load(path string) (Options, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("TELNETLIB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Options{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds Options from an already-configured Viper instance,
// falling back to built-in defaults for anything unset.
//
// Precondition: v must be non-nil.
// Postcondition: Returns a valid Options or a non-nil error.
func LoadFromViper(v *viper.Viper) (Options, error) {
	setDefaults(v)

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Default returns the built-in defaults without touching the filesystem.
func Default() Options {
	v := viper.New()
	setDefaults(v)
	opts, err := LoadFromViper(v)
	if err != nil {
		// setDefaults always produces a valid configuration; a failure here
		// indicates a programming error in setDefaults itself.
		panic(fmt.Sprintf("config: built-in defaults are invalid: %v", err))
	}
	return opts
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("max_subnegotiation", 32768)
	v.SetDefault("reader_soft_limit", 65536)
	v.SetDefault("connect_deferred", "50ms")
	v.SetDefault("connect_minwait_client", "1s")
	v.SetDefault("connect_minwait_server", "500ms")
	v.SetDefault("connect_maxwait_client", "4s")
	v.SetDefault("connect_maxwait_server", "6s")
	v.SetDefault("always_do", []int{})
}
