package control

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/momentics/serbridge/api"
	"github.com/momentics/serbridge/transport"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.ListenAddr() != "0.0.0.0:8722" {
		t.Fatalf("listen addr = %s", c.ListenAddr())
	}
	if c.BufferSize != 512 || c.Serial.BaudRate != transport.DefaultBaudRate {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.ClientMode() {
		t.Fatal("default config must run as server")
	}
}

func TestValidate_RaisesSmallBuffer(t *testing.T) {
	c := Default()
	c.Serial.Name = "/dev/ttyUSB0"
	c.BufferSize = 100
	warnings, err := c.Validate()
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "512") {
		t.Fatalf("warnings = %v", warnings)
	}
	if c.BufferSize != 512 {
		t.Fatalf("buffer size = %d", c.BufferSize)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(*Config){
		"no serial":   func(c *Config) { c.Serial.Name = "" },
		"zero baud":   func(c *Config) { c.Serial.BaudRate = 0 },
		"bad port":    func(c *Config) { c.Listen.Port = 70000 },
		"bad remote":  func(c *Config) { c.Remote = "nohostport" },
		"blank name":  func(c *Config) { c.Serial.Name = "   " },
		"negative pt": func(c *Config) { c.Listen.Port = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			c.Serial.Name = "/dev/ttyS0"
			mutate(c)
			if _, err := c.Validate(); !errors.Is(err, api.ErrInvalidArgument) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestValidate_ClientModeIgnoresPort(t *testing.T) {
	c := Default()
	c.Serial.Name = "/dev/ttyS0"
	c.Remote = "10.0.0.1:8722"
	c.Listen.Port = 0
	if _, err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoader_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serbridge.yaml")
	body := "serial:\n  name: /dev/ttyACM0\n  baud_rate: 9600\nbuffer_size: 4096\nlisten:\n  port: 9000\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERBRIDGE_LOG_LEVEL", "debug")

	c, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Serial.Name != "/dev/ttyACM0" || c.Serial.BaudRate != 9600 {
		t.Fatalf("serial = %+v", c.Serial)
	}
	if c.BufferSize != 4096 || c.Listen.Port != 9000 || c.Listen.Host != "0.0.0.0" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.Log.Level != "debug" {
		t.Fatalf("env override not applied: %q", c.Log.Level)
	}
}

func TestLoader_NoFile(t *testing.T) {
	c, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Listen.Port != DefaultPort {
		t.Fatalf("port = %d", c.Listen.Port)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	c := Default()
	c.Serial.Name = "/dev/ttyS3"
	out, err := c.YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var back Config
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Serial != c.Serial || back.Listen != c.Listen {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestConfigStore_Reload(t *testing.T) {
	store := NewConfigStore(Default())
	got := make(chan string, 1)
	store.OnReload(func(c *Config) { got <- c.Log.Level })

	next := Default()
	next.Log.Level = "error"
	store.Set(next)
	if lvl := <-got; lvl != "error" {
		t.Fatalf("listener saw %q", lvl)
	}
	if snap := store.Snapshot(); snap.Log.Level != "error" {
		t.Fatalf("snapshot = %q", snap.Log.Level)
	}
}

func TestLoader_WatchPublishesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serbridge.yaml")
	write := func(body string) { writeAtomic(t, path, body) }
	write("serial:\n  name: /dev/ttyS0\nlog:\n  level: info\n")
	l := NewLoader(path)
	c, err := l.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	store := NewConfigStore(c)
	levels := make(chan string, 8)
	store.OnReload(func(c *Config) { levels <- c.Log.Level })
	rejected := make(chan error, 8)
	l.Watch(store, nil, func(err error) { rejected <- err })

	write("serial:\n  name: /dev/ttyS0\nlog:\n  level: warn\n")
	if !waitLevel(levels, "warn") {
		t.Skip("no file change notification observed")
	}

	// a reload failing validation is reported and not published
	write("serial:\n  name: /dev/ttyS0\n  baud_rate: 0\nlog:\n  level: error\n")
	select {
	case err := <-rejected:
		if !errors.Is(err, api.ErrInvalidArgument) {
			t.Fatalf("reload error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("invalid reload was not reported")
	}
	if lvl := store.Snapshot().Log.Level; lvl != "warn" {
		t.Fatalf("invalid config published, level = %q", lvl)
	}
}

func TestLoader_WatchReportsOverrideFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serbridge.yaml")
	if err := os.WriteFile(path, []byte("serial:\n  name: /dev/ttyS0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader(path)
	c, err := l.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	store := NewConfigStore(c)
	published := make(chan string, 8)
	store.OnReload(func(c *Config) { published <- c.Log.Level })
	cause := errors.New("bad serial descriptor")
	rejected := make(chan error, 8)
	l.Watch(store, func(*Config) error { return cause }, func(err error) { rejected <- err })

	writeAtomic(t, path, "serial:\n  name: /dev/ttyS0\nlog:\n  level: debug\n")
	select {
	case err := <-rejected:
		if !errors.Is(err, cause) {
			t.Fatalf("reload error = %v", err)
		}
	case <-published:
		t.Fatal("config published although overrides failed")
	case <-time.After(5 * time.Second):
		t.Skip("no file change notification observed")
	}
}

func waitLevel(levels <-chan string, want string) bool {
	deadline := time.After(5 * time.Second)
	for {
		select {
		case lvl := <-levels:
			if lvl == want {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

// writeAtomic replaces path in one rename so a watcher never reads a
// truncated file.
func writeAtomic(t *testing.T, path, body string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}
