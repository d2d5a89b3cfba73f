// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package settings loads the settings shared by every traffic test: where the
// controller is, which ports to use and how long to wait for results.
//
// Values are layered, each layer overriding the previous one:
//
//   - built-in defaults
//   - the settings file (settings.json, or the file given by --settings)
//   - the file named by the SETTINGS_FILE environment variable, if it exists
//   - SNAPPI_<KEY> environment variables
//   - command line flags
package settings

import (
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/golang/glog"
	"github.com/open-traffic-generator/snappi-tests/internal/otgutils"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultFile is the settings file read when none is given.
	DefaultFile = "settings.json"
	// EnvFile names the environment variable pointing at a custom settings file.
	EnvFile = "SETTINGS_FILE"

	TransportGRPC = "grpc"
	TransportHTTP = "http"
)

// ErrNoPorts is returned by Validate when no test ports are configured.
var ErrNoPorts = errors.New("no test ports configured")

// Keys of the settings, also used as flag names.
const (
	keyUsername           = "username"
	keyLocation           = "location"
	keyAPIServer          = "api_server"
	keyExt                = "ext"
	keyTransport          = "transport"
	keyPorts              = "ports"
	keySpeed              = "speed"
	keyMedia              = "media"
	keyTimeoutSeconds     = "timeout_seconds"
	keyIntervalSeconds    = "interval_seconds"
	keyLogLevel           = "log_level"
	keyDynamicStatsOutput = "dynamic_stats_output"
	keyLicenseServers     = "license_servers"
	keyPromiscuous        = "promiscuous"
	keySettings           = "settings"
)

// Settings holds the resolved settings of a test run.
type Settings struct {
	Username string `yaml:"username,omitempty"`
	// Location is the controller address, host:port for gRPC or a URL for HTTP.
	Location string `yaml:"location"`
	// Ext names a vendor extension of the SDK, if any.
	Ext       string   `yaml:"ext,omitempty"`
	Transport string   `yaml:"transport"`
	Ports     []string `yaml:"ports"`
	Speed     string   `yaml:"speed"`
	Media     string   `yaml:"media,omitempty"`
	// TimeoutSeconds and IntervalSeconds drive every wait.
	TimeoutSeconds     float64  `yaml:"timeout_seconds"`
	IntervalSeconds    float64  `yaml:"interval_seconds"`
	LogLevel           string   `yaml:"log_level,omitempty"`
	DynamicStatsOutput bool     `yaml:"dynamic_stats_output"`
	LicenseServers     []string `yaml:"license_servers,omitempty"`
	Promiscuous        bool     `yaml:"promiscuous"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyUsername, "")
	v.SetDefault(keyLocation, "localhost:40051")
	v.SetDefault(keyExt, "")
	v.SetDefault(keyTransport, TransportGRPC)
	v.SetDefault(keyPorts, []string{})
	v.SetDefault(keySpeed, "speed_1_gbps")
	v.SetDefault(keyMedia, "")
	v.SetDefault(keyTimeoutSeconds, 30)
	v.SetDefault(keyIntervalSeconds, 0.5)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyDynamicStatsOutput, false)
	v.SetDefault(keyLicenseServers, []string{})
	v.SetDefault(keyPromiscuous, true)
}

// RegisterFlags adds a flag per setting to fs. Flags left unset do not
// override the settings files.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(keySettings, DefaultFile, "Path of the JSON settings file.")
	fs.String(keyUsername, "", "Name of the user running the tests.")
	fs.String(keyLocation, "", "Controller location, host:port for grpc or a URL for http.")
	fs.String(keyExt, "", "SDK extension to use.")
	fs.String(keyTransport, "", "Controller transport, grpc or http.")
	fs.String(keyPorts, "", "Whitespace separated test port locations.")
	fs.String(keySpeed, "", "Port speed, for example speed_100_gbps.")
	fs.String(keyMedia, "", "Port media, for example copper or fiber.")
	fs.Float64(keyTimeoutSeconds, 0, "Seconds to wait for a condition before giving up.")
	fs.Float64(keyIntervalSeconds, 0, "Seconds between two checks of a condition.")
	fs.String(keyLogLevel, "", "Controller log level.")
	fs.Bool(keyDynamicStatsOutput, false, "Clear the screen before printing stats.")
	fs.String(keyLicenseServers, "", "Whitespace separated license server addresses.")
	fs.Bool(keyPromiscuous, true, "Put test ports in promiscuous mode.")
}

// Load resolves the settings from files, environment and the flags
// registered on fs by RegisterFlags. fs may be nil.
func Load(fs *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	path, explicit := DefaultFile, false
	if fs != nil {
		if f := fs.Lookup(keySettings); f != nil && f.Changed {
			path, explicit = f.Value.String(), true
		}
	}
	if custom := os.Getenv(EnvFile); custom != "" {
		if _, err := os.Stat(custom); err == nil {
			path, explicit = custom, true
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading settings file %s: %w", path, err)
		}
		log.Infof("No settings file %s, using defaults", path)
	}
	// Older settings files name the controller location api_server.
	v.RegisterAlias(keyAPIServer, keyLocation)

	v.SetEnvPrefix("snappi")
	v.AutomaticEnv()

	if fs != nil {
		for _, key := range []string{
			keyUsername, keyLocation, keyExt, keyTransport, keyPorts, keySpeed, keyMedia,
			keyTimeoutSeconds, keyIntervalSeconds, keyLogLevel, keyDynamicStatsOutput,
			keyLicenseServers, keyPromiscuous,
		} {
			if f := fs.Lookup(key); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", key, err)
				}
			}
		}
	}

	s := &Settings{
		Username:           v.GetString(keyUsername),
		Location:           v.GetString(keyLocation),
		Ext:                v.GetString(keyExt),
		Transport:          v.GetString(keyTransport),
		Ports:              v.GetStringSlice(keyPorts),
		Speed:              v.GetString(keySpeed),
		Media:              v.GetString(keyMedia),
		TimeoutSeconds:     v.GetFloat64(keyTimeoutSeconds),
		IntervalSeconds:    v.GetFloat64(keyIntervalSeconds),
		LogLevel:           v.GetString(keyLogLevel),
		DynamicStatsOutput: v.GetBool(keyDynamicStatsOutput),
		LicenseServers:     v.GetStringSlice(keyLicenseServers),
		Promiscuous:        v.GetBool(keyPromiscuous),
	}
	return s, nil
}

// Validate checks that the settings can drive a test run.
func (s *Settings) Validate() error {
	if len(s.Ports) == 0 {
		return ErrNoPorts
	}
	if s.Location == "" {
		return errors.New("no controller location configured")
	}
	switch s.Transport {
	case TransportGRPC, TransportHTTP:
	default:
		return fmt.Errorf("unsupported transport %q", s.Transport)
	}
	if s.IntervalSeconds <= 0 {
		return fmt.Errorf("interval_seconds must be positive, got %v", s.IntervalSeconds)
	}
	if s.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative, got %v", s.TimeoutSeconds)
	}
	return nil
}

// Timeout returns TimeoutSeconds as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds * float64(time.Second))
}

// Interval returns IntervalSeconds as a duration.
func (s *Settings) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds * float64(time.Second))
}

// WaitForOpts returns wait options for condition using the configured
// interval and timeout.
func (s *Settings) WaitForOpts(condition string) *otgutils.WaitForOpts {
	return &otgutils.WaitForOpts{
		Condition: condition,
		Interval:  s.Interval(),
		Timeout:   s.Timeout(),
	}
}

// Port returns the location of the i-th test port.
func (s *Settings) Port(i int) (string, error) {
	if i < 0 || i >= len(s.Ports) {
		return "", fmt.Errorf("port %d requested but only %d ports configured", i, len(s.Ports))
	}
	return s.Ports[i], nil
}
