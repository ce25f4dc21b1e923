package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/juju/mgo/v3/bson"

	"github.com/yndnr/bestelldesk-go/internal/cli/config"
	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/internal/storage"
)

// fixture is a config file pointing at a Badger directory under t.TempDir,
// with cheap KDF costs.
type fixture struct {
	t       *testing.T
	dir     string
	dataDir string
	config  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		t:       t,
		dir:     dir,
		dataDir: filepath.Join(dir, "data"),
		config:  filepath.Join(dir, "backup.yaml"),
	}

	content := fmt.Sprintf(`
storage:
  backend: badger
  badger:
    dir: %s
    sync_writes: false
    cache_size: 1048576
    value_log_file_size: 1048576
backup:
  collections: [settings, suppliers, dishes, orders]
  kdf:
    m_cost: 64
    t_cost: 1
    p_cost: 1
log:
  level: error
`, f.dataDir)
	if err := os.WriteFile(f.config, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	// Keep the passphrase env of the developer machine out of the tests.
	t.Setenv(config.PassphraseEnv, "")
	return f
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

// result captures one run of the CLI.
type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI with the fixture config and stdin.
func (f *fixture) run(stdin string, args ...string) result {
	f.t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)

	argv := append([]string{"bestelldesk-backup", "--config", f.config}, args...)
	err := app.Run(argv)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// store opens the fixture datastore for direct access. It must be closed
// before the CLI runs again.
func (f *fixture) store() *storage.BadgerStore {
	f.t.Helper()
	cfg := storage.DefaultBadgerConfig()
	cfg.Dir = f.dataDir
	cfg.SyncWrites = false
	cfg.CacheSize = 1 << 20
	cfg.ValueLogFileSize = 1 << 20
	s, err := storage.NewBadgerStore(cfg, nil)
	if err != nil {
		f.t.Fatalf("open store: %v", err)
	}
	return s
}

func (f *fixture) seed(data map[string][]domain.Document) {
	f.t.Helper()
	s := f.store()
	defer s.Close()
	ctx := context.Background()
	for name, docs := range data {
		if err := s.DeleteAll(ctx, name); err != nil {
			f.t.Fatal(err)
		}
		if err := s.InsertMany(ctx, name, docs); err != nil {
			f.t.Fatal(err)
		}
	}
}

func (f *fixture) read(name string) []domain.Document {
	f.t.Helper()
	s := f.store()
	defer s.Close()
	docs, err := s.ReadAll(context.Background(), name)
	if err != nil {
		f.t.Fatal(err)
	}
	return docs
}

func (f *fixture) writePassphrase(pass string) string {
	f.t.Helper()
	p := f.path("passphrase")
	if err := os.WriteFile(p, []byte(pass+"\n"), 0o600); err != nil {
		f.t.Fatal(err)
	}
	return p
}

func doc(pairs ...any) domain.Document {
	d := domain.Document{}
	for i := 0; i < len(pairs); i += 2 {
		d = append(d, bson.DocElem{Name: pairs[i].(string), Value: pairs[i+1]})
	}
	return d
}

func assertDocs(t *testing.T, got, want []domain.Document) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d documents, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		g, _ := bson.Marshal(got[i])
		w, _ := bson.Marshal(want[i])
		if !bytes.Equal(g, w) {
			t.Errorf("doc[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func sampleData() map[string][]domain.Document {
	return map[string][]domain.Document{
		"settings":  {doc("_id", "site", "name", "Pizzeria Roma", "open", true)},
		"suppliers": {doc("_id", 1, "name", "Mehl AG"), doc("_id", 2, "name", "Käserei Süd")},
		"dishes": {
			doc("_id", bson.ObjectIdHex("5f1d7a2b9c3e4a0012345678"), "name", "Margherita", "price", 9.5,
				"tags", []interface{}{"veg", "classic"}),
		},
		"orders": {},
	}
}
