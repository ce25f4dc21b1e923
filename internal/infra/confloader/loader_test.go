package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Storage struct {
		Backend string `koanf:"backend"`
		Badger  struct {
			Dir        string `koanf:"dir"`
			SyncWrites bool   `koanf:"sync_writes"`
		} `koanf:"badger"`
		Mongo struct {
			Timeout time.Duration `koanf:"timeout"`
		} `koanf:"mongo"`
	} `koanf:"storage"`
	Backup struct {
		Collections []string `koanf:"collections"`
		KDF         struct {
			MCost uint32 `koanf:"m_cost"`
		} `koanf:"kdf"`
	} `koanf:"backup"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
		WithEnvIgnore("TEST_SECRET"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
	if !l.envIgnore["TEST_SECRET"] {
		t.Error("envIgnore should contain TEST_SECRET")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: badger
  badger:
    dir: /var/lib/bestelldesk
    sync_writes: true
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if dir := l.GetString("storage.badger.dir"); dir != "/var/lib/bestelldesk" {
		t.Errorf("storage.badger.dir = %q", dir)
	}
	if !l.GetBool("storage.badger.sync_writes") {
		t.Error("storage.badger.sync_writes should be true")
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
	if err := l.LoadFile(writeConfig(t, "storage: [unclosed")); err == nil {
		t.Error("LoadFile() should return error for invalid YAML")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("BESTELLDESK_STORAGE__BADGER__SYNC_WRITES", "true")
	t.Setenv("BESTELLDESK_BACKUP__KDF__M_COST", "65536")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if !l.GetBool("storage.badger.sync_writes") {
		t.Error("storage.badger.sync_writes should be true")
	}
	if v := l.GetString("backup.kdf.m_cost"); v != "65536" {
		t.Errorf("backup.kdf.m_cost = %q, want %q", v, "65536")
	}
}

func TestLoader_LoadEnv_Ignore(t *testing.T) {
	t.Setenv("BESTELLDESK_BACKUP_PASSPHRASE", "hunter2")
	t.Setenv("BESTELLDESK_STORAGE__BACKEND", "mongo")

	l := NewLoader(WithEnvIgnore("BESTELLDESK_BACKUP_PASSPHRASE"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	for _, k := range l.Keys() {
		if k == "backup_passphrase" {
			t.Errorf("ignored variable was loaded as %q", k)
		}
	}
	if v := l.GetString("storage.backend"); v != "mongo" {
		t.Errorf("storage.backend = %q, want mongo", v)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_STORAGE__BACKEND", "memory")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if v := l.GetString("storage.backend"); v != "memory" {
		t.Errorf("storage.backend = %q, want %q", v, "memory")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: badger
  badger:
    dir: from-file
`)
	t.Setenv("BESTELLDESK_STORAGE__BADGER__DIR", "from-env")

	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	cfg.Storage.Backend = "memory"
	cfg.Backup.KDF.MCost = 19456
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Badger.Dir != "from-env" {
		t.Errorf("Dir = %q, want %q (env should override file)", cfg.Storage.Badger.Dir, "from-env")
	}
	if cfg.Storage.Backend != "badger" {
		t.Errorf("Backend = %q, want %q (file should override default)", cfg.Storage.Backend, "badger")
	}
	if cfg.Backup.KDF.MCost != 19456 {
		t.Errorf("MCost = %d, want default 19456 to survive", cfg.Backup.KDF.MCost)
	}
}

func TestLoader_Unmarshal_Types(t *testing.T) {
	path := writeConfig(t, `
storage:
  mongo:
    timeout: 3s
backup:
  collections: [settings, dishes]
  kdf:
    m_cost: 65536
`)
	t.Setenv("BESTELLDESK_BACKUP__COLLECTIONS", "orders,suppliers")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Mongo.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Storage.Mongo.Timeout)
	}
	if cfg.Backup.KDF.MCost != 65536 {
		t.Errorf("MCost = %d, want 65536", cfg.Backup.KDF.MCost)
	}
	want := []string{"orders", "suppliers"}
	if len(cfg.Backup.Collections) != len(want) {
		t.Fatalf("Collections = %v, want %v", cfg.Backup.Collections, want)
	}
	for i := range want {
		if cfg.Backup.Collections[i] != want[i] {
			t.Errorf("Collections[%d] = %q, want %q", i, cfg.Backup.Collections[i], want[i])
		}
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{
		"storage.badger.dir": "from-flag",
		"storage.backend":    "badger",
	}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Storage.Badger.Dir != "from-flag" {
		t.Errorf("Dir = %q, want %q", cfg.Storage.Badger.Dir, "from-flag")
	}
}

func TestLoader_IsLoaded(t *testing.T) {
	l := NewLoader()

	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestMapProvider_ReadBytes(t *testing.T) {
	if _, err := mapProvider(nil).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v, want ErrReadBytesNotSupported", err)
	}
}
