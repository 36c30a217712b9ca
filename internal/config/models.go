package config

import "github.com/gingus/katfod/internal/urls"

const (
	// DefaultHost is the appliance address used until the user sets one.
	DefaultHost = "192.168.100.100"

	// DefaultPort is the appliance's HTTP port.
	DefaultPort = "80"

	// DefaultVibration enables haptic acknowledgement of taps.
	DefaultVibration = true
)

// Endpoint is the appliance address a command is sent to.
// Host never carries a URI scheme; Port is kept exactly as entered.
type Endpoint struct {
	Host string
	Port string
}

// DefaultEndpoint returns the factory endpoint.
func DefaultEndpoint() Endpoint {
	return Endpoint{Host: DefaultHost, Port: DefaultPort}
}

// BaseURL returns "http://host:port".
func (e Endpoint) BaseURL() string {
	return urls.Base(e.Host, e.Port)
}

// URL returns the full URL of an appliance path.
func (e Endpoint) URL(path string) string {
	return urls.Endpoint(e.Host, e.Port, path)
}

// VideoURL returns the MJPEG stream URL.
func (e Endpoint) VideoURL() string {
	return urls.Video(e.Host, e.Port)
}

// String returns "host:port"
func (e Endpoint) String() string {
	return e.Host + ":" + e.Port
}

// Settings is everything the app persists.
type Settings struct {
	IPAddress        string
	Port             string
	VibrationEnabled bool
}

// DefaultSettings returns settings for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		IPAddress:        DefaultHost,
		Port:             DefaultPort,
		VibrationEnabled: DefaultVibration,
	}
}

// Endpoint returns the appliance endpoint described by s.
func (s Settings) Endpoint() Endpoint {
	return Endpoint{Host: s.IPAddress, Port: s.Port}
}

// settingsFile is the on-disk layout. Pointers distinguish a missing key
// from a zero value so each key can default on its own.
type settingsFile struct {
	IPAddress        *string `yaml:"ip_address,omitempty"`
	Port             *string `yaml:"port,omitempty"`
	VibrationEnabled *bool   `yaml:"vibration_enabled,omitempty"`
}

func (f settingsFile) settings() Settings {
	s := DefaultSettings()
	if f.IPAddress != nil {
		s.IPAddress = *f.IPAddress
	}
	if f.Port != nil {
		s.Port = *f.Port
	}
	if f.VibrationEnabled != nil {
		s.VibrationEnabled = *f.VibrationEnabled
	}
	return s
}

func fileFromSettings(s Settings) settingsFile {
	return settingsFile{
		IPAddress:        &s.IPAddress,
		Port:             &s.Port,
		VibrationEnabled: &s.VibrationEnabled,
	}
}
