package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/pkg/crypto/adaptive"
)

func testEnvelope() *Envelope {
	return &Envelope{
		Version:    EnvelopeVersion,
		KDF:        KDFArgon2id,
		Params:     DefaultKDFParams(),
		Salt:       bytes.Repeat([]byte{0x01}, SaltLength),
		Cipher:     adaptive.CipherAESGCM,
		Nonce:      bytes.Repeat([]byte{0x02}, 12),
		Ciphertext: []byte("ciphertext-and-tag"),
	}
}

func TestPackUnpack(t *testing.T) {
	env := testEnvelope()
	data, err := Pack(env)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	got, err := Unpack(data)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if got.Version != env.Version || got.KDF != env.KDF || got.Cipher != env.Cipher || got.Params != env.Params {
		t.Errorf("header mismatch: got %+v, want %+v", got, env)
	}
	if !bytes.Equal(got.Salt, env.Salt) || !bytes.Equal(got.Nonce, env.Nonce) || !bytes.Equal(got.Ciphertext, env.Ciphertext) {
		t.Error("binary fields mismatch")
	}
}

func TestPack_WireFields(t *testing.T) {
	data, err := Pack(testEnvelope())
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("envelope is not JSON: %v", err)
	}
	for _, key := range []string{"version", "kdf", "m_cost", "t_cost", "p_cost", "salt", "cipher", "nonce", "ciphertext"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("envelope missing field %q", key)
		}
	}
	if len(fields) != 9 {
		t.Errorf("envelope has %d fields, want 9", len(fields))
	}
	if fields["kdf"] != "argon2id" || fields["cipher"] != "aes-256-gcm" {
		t.Errorf("identifiers = %v/%v", fields["kdf"], fields["cipher"])
	}
	if !bytes.Contains(data, []byte("\n  \"")) {
		t.Error("envelope should be pretty-printed")
	}
}

func TestPack_RejectsUnknownIdentifiers(t *testing.T) {
	env := testEnvelope()
	env.Cipher = "rot13"
	if _, err := Pack(env); !errors.Is(err, domain.ErrBackupFormat) {
		t.Errorf("Pack() error = %v, want ErrBackupFormat", err)
	}
}

// mutate packs testEnvelope, applies fn to its generic JSON form and re-encodes.
func mutate(t *testing.T, fn func(map[string]interface{})) []byte {
	t.Helper()
	data, err := Pack(testEnvelope())
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	fn(fields)
	out, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return out
}

func TestUnpack_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not json", []byte("BESTELLDESK-BACKUP")},
		{"json array", []byte("[1,2,3]")},
		{"truncated", []byte(`{"version": 1, "kdf": "argon`)},
		{"future version", mutate(t, func(m map[string]interface{}) { m["version"] = 2 })},
		{"version zero", mutate(t, func(m map[string]interface{}) { m["version"] = 0 })},
		{"unknown kdf", mutate(t, func(m map[string]interface{}) { m["kdf"] = "scrypt" })},
		{"unknown cipher", mutate(t, func(m map[string]interface{}) { m["cipher"] = "aes-128-cbc" })},
		{"negative m_cost", mutate(t, func(m map[string]interface{}) { m["m_cost"] = -1 })},
		{"string t_cost", mutate(t, func(m map[string]interface{}) { m["t_cost"] = "two" })},
		{"bad salt base64", mutate(t, func(m map[string]interface{}) { m["salt"] = "***" })},
		{"bad nonce base64", mutate(t, func(m map[string]interface{}) { m["nonce"] = "!!" })},
		{"bad ciphertext base64", mutate(t, func(m map[string]interface{}) { m["ciphertext"] = "%%%" })},
	}
	for _, field := range []string{"version", "kdf", "m_cost", "t_cost", "p_cost", "salt", "cipher", "nonce", "ciphertext"} {
		field := field
		tests = append(tests, struct {
			name string
			data []byte
		}{"missing " + field, mutate(t, func(m map[string]interface{}) { delete(m, field) })})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Unpack(tt.data)
			if !errors.Is(err, domain.ErrBackupFormat) {
				t.Fatalf("Unpack() error = %v, want ErrBackupFormat", err)
			}
			if env != nil {
				t.Error("Unpack() should not return an envelope on error")
			}
		})
	}
}

func TestUnpack_ToleratesUnknownFields(t *testing.T) {
	data := mutate(t, func(m map[string]interface{}) { m["comment"] = "weekly" })
	if _, err := Unpack(data); err != nil {
		t.Errorf("Unpack() error = %v", err)
	}
}

func TestUnpack_ChaCha20(t *testing.T) {
	env := testEnvelope()
	env.Cipher = adaptive.CipherChaCha20
	data, err := Pack(env)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	got, err := Unpack(data)
	if err != nil {
		t.Fatalf("Unpack() error = %v", err)
	}
	if got.Cipher != adaptive.CipherChaCha20 {
		t.Errorf("Cipher = %s, want %s", got.Cipher, adaptive.CipherChaCha20)
	}
}

func TestWriteReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backup.bdbk")

	if err := WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("WriteFile() overwrite error = %v", err)
	}

	data, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("ReadFile() = %q, want second", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestWriteFile_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "backup.bdbk")
	err := WriteFile(path, []byte("x"))
	if !errors.Is(err, domain.ErrBackupIO) {
		t.Errorf("WriteFile() error = %v, want ErrBackupIO", err)
	}
	if domain.KindOf(err) != domain.KindIO {
		t.Errorf("KindOf() = %q, want io", domain.KindOf(err))
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.bdbk"))
	if !errors.Is(err, domain.ErrBackupIO) {
		t.Errorf("ReadFile() error = %v, want ErrBackupIO", err)
	}
}
