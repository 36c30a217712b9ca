package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store, path
}

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "katfod") {
		t.Errorf("GetConfigDir() = %v, should contain 'katfod'", configDir)
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		if os.Getenv("XDG_CONFIG_HOME") == "" && !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(ConfigEnvVar, want)

	got, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if got != want {
		t.Errorf("GetConfigPath() = %v, want %v", got, want)
	}
}

func TestOpen_MissingFileUsesDefaults(t *testing.T) {
	store, path := openTemp(t)

	got := store.Settings()
	if got != DefaultSettings() {
		t.Errorf("Settings() = %+v, want defaults %+v", got, DefaultSettings())
	}

	ep := store.Endpoint()
	if ep.Host != "192.168.100.100" || ep.Port != "80" {
		t.Errorf("Endpoint() = %+v, want 192.168.100.100:80", ep)
	}

	if !store.VibrationEnabled() {
		t.Error("vibration should default to enabled")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Open() should not create the file before the first change")
	}
}

func TestOpen_PartialFileDefaultsPerKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ip_address: 10.1.1.1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got := store.Settings()
	if got.IPAddress != "10.1.1.1" {
		t.Errorf("IPAddress = %q, want 10.1.1.1", got.IPAddress)
	}
	if got.Port != DefaultPort {
		t.Errorf("Port = %q, want default %q", got.Port, DefaultPort)
	}
	if !got.VibrationEnabled {
		t.Error("VibrationEnabled should default to true when the key is absent")
	}
}

func TestOpen_ExplicitFalseVibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vibration_enabled: false\n"), 0600); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if store.VibrationEnabled() {
		t.Error("explicit false must not be replaced by the default")
	}
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ip_address: [unclosed\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Error("Open() should fail on a corrupt file")
	}
}

func TestSetHost_SanitizesAndPersists(t *testing.T) {
	store, path := openTemp(t)

	host, err := store.SetHost("  https://192.168.100.69  ")
	if err != nil {
		t.Fatalf("SetHost() error = %v", err)
	}
	if host != "192.168.100.69" {
		t.Errorf("SetHost() = %q, want 192.168.100.69", host)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if got := reopened.Endpoint().Host; got != "192.168.100.69" {
		t.Errorf("persisted host = %q, want 192.168.100.69", got)
	}
}

func TestSetHost_KeepsTrailingSlash(t *testing.T) {
	store, path := openTemp(t)

	if _, err := store.SetHost("https://10.0.0.5/"); err != nil {
		t.Fatalf("SetHost() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if got := reopened.Endpoint().Host; got != "10.0.0.5/" {
		t.Errorf("persisted host = %q, want 10.0.0.5/", got)
	}
}

func TestSetPort_Verbatim(t *testing.T) {
	store, path := openTemp(t)

	for _, raw := range []string{"8080", " 81 ", "abc", ""} {
		got, err := store.SetPort(raw)
		if err != nil {
			t.Fatalf("SetPort(%q) error = %v", raw, err)
		}
		if got != raw {
			t.Errorf("SetPort(%q) = %q, want verbatim", raw, got)
		}

		reopened, err := Open(path)
		if err != nil {
			t.Fatalf("reopen error = %v", err)
		}
		if reopened.Endpoint().Port != raw {
			t.Errorf("persisted port = %q, want %q", reopened.Endpoint().Port, raw)
		}
	}
}

func TestSetVibration_Persists(t *testing.T) {
	store, path := openTemp(t)

	if err := store.SetVibration(false); err != nil {
		t.Fatalf("SetVibration() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if reopened.VibrationEnabled() {
		t.Error("vibration_enabled should persist as false")
	}
}

func TestSetEndpoint(t *testing.T) {
	store, _ := openTemp(t)

	ep, err := store.SetEndpoint(Endpoint{Host: "http://feeder.local", Port: "8080"})
	if err != nil {
		t.Fatalf("SetEndpoint() error = %v", err)
	}
	if ep.Host != "feeder.local" || ep.Port != "8080" {
		t.Errorf("SetEndpoint() = %+v, want feeder.local:8080", ep)
	}
}

func TestFileLayout(t *testing.T) {
	store, path := openTemp(t)

	if _, err := store.SetHost("10.0.0.9"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	for _, key := range []string{"ip_address: 10.0.0.9", `port: "80"`, "vibration_enabled: true"} {
		if !strings.Contains(content, key) {
			t.Errorf("settings file missing %q:\n%s", key, content)
		}
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after save")
	}
}

func TestSubscribe(t *testing.T) {
	store, _ := openTemp(t)

	var got []Settings
	cancel := store.Subscribe(func(s Settings) {
		got = append(got, s)
	})

	if _, err := store.SetHost("10.0.0.1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SetPort("81"); err != nil {
		t.Fatal(err)
	}

	cancel()

	if err := store.SetVibration(false); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 {
		t.Fatalf("listener called %d times, want 2", len(got))
	}
	if got[0].IPAddress != "10.0.0.1" {
		t.Errorf("first event host = %q", got[0].IPAddress)
	}
	if got[1].Port != "81" || got[1].IPAddress != "10.0.0.1" {
		t.Errorf("second event = %+v", got[1])
	}
}

func TestSetHost_WriteFailureKeepsValue(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "katfod")

	store, err := Open(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// The config directory turns into a regular file, so MkdirAll fails
	if err := os.WriteFile(dir, nil, 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := store.SetHost("10.0.0.2"); err == nil {
		t.Error("SetHost() should report the write failure")
	}
	if store.Endpoint().Host != "10.0.0.2" {
		t.Error("in-memory host should still be updated")
	}
}

func TestEndpointURLs(t *testing.T) {
	ep := Endpoint{Host: "192.168.100.69", Port: "80"}

	if got := ep.BaseURL(); got != "http://192.168.100.69:80" {
		t.Errorf("BaseURL() = %q", got)
	}
	if got := ep.URL("/dispense"); got != "http://192.168.100.69:80/dispense" {
		t.Errorf("URL() = %q", got)
	}
	if got := ep.VideoURL(); got != "http://192.168.100.69:80/video" {
		t.Errorf("VideoURL() = %q", got)
	}
	if got := ep.String(); got != "192.168.100.69:80" {
		t.Errorf("String() = %q", got)
	}
}
