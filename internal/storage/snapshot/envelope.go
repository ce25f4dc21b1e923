package snapshot

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/pkg/crypto/adaptive"
)

// EnvelopeVersion is the only envelope format version understood.
const EnvelopeVersion = 1

// Envelope is the persisted backup artifact: everything needed to decrypt
// except the passphrase.
type Envelope struct {
	Version    int
	KDF        string
	Params     KDFParams
	Salt       []byte
	Cipher     adaptive.CipherType
	Nonce      []byte
	Ciphertext []byte // tag appended
}

// envelopeJSON is the wire form. Pointer fields detect missing keys.
type envelopeJSON struct {
	Version    *int    `json:"version"`
	KDF        *string `json:"kdf"`
	MCost      *uint32 `json:"m_cost"`
	TCost      *uint32 `json:"t_cost"`
	PCost      *uint32 `json:"p_cost"`
	Salt       *string `json:"salt"`
	Cipher     *string `json:"cipher"`
	Nonce      *string `json:"nonce"`
	Ciphertext *string `json:"ciphertext"`
}

// Pack serializes env as pretty-printed JSON.
func Pack(env *Envelope) ([]byte, error) {
	if err := checkIdentifiers(env.Version, env.KDF, string(env.Cipher)); err != nil {
		return nil, err
	}

	enc := base64.StdEncoding
	version, kdf, cipher := env.Version, env.KDF, string(env.Cipher)
	salt, nonce, ct := enc.EncodeToString(env.Salt), enc.EncodeToString(env.Nonce), enc.EncodeToString(env.Ciphertext)
	w := envelopeJSON{
		Version:    &version,
		KDF:        &kdf,
		MCost:      &env.Params.MemoryKiB,
		TCost:      &env.Params.Time,
		PCost:      &env.Params.Parallelism,
		Salt:       &salt,
		Cipher:     &cipher,
		Nonce:      &nonce,
		Ciphertext: &ct,
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, domain.ErrBackupFormat.WithDetails("encode envelope").WithCause(err)
	}
	return append(data, '\n'), nil
}

// Unpack parses an envelope and rejects unknown versions and identifiers
// before any cryptographic work can happen.
func Unpack(data []byte) (*Envelope, error) {
	var w envelopeJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&w); err != nil {
		return nil, domain.ErrBackupFormat.WithDetails("parse envelope: " + err.Error()).WithCause(err)
	}

	if missing := w.missingField(); missing != "" {
		return nil, domain.ErrBackupFormat.WithDetails("envelope field missing: " + missing)
	}
	if err := checkIdentifiers(*w.Version, *w.KDF, *w.Cipher); err != nil {
		return nil, err
	}

	env := &Envelope{
		Version: *w.Version,
		KDF:     *w.KDF,
		Params: KDFParams{
			MemoryKiB:   *w.MCost,
			Time:        *w.TCost,
			Parallelism: *w.PCost,
		},
		Cipher: adaptive.CipherType(*w.Cipher),
	}

	var err error
	if env.Salt, err = decodeField("salt", *w.Salt); err != nil {
		return nil, err
	}
	if env.Nonce, err = decodeField("nonce", *w.Nonce); err != nil {
		return nil, err
	}
	if env.Ciphertext, err = decodeField("ciphertext", *w.Ciphertext); err != nil {
		return nil, err
	}
	return env, nil
}

func (w *envelopeJSON) missingField() string {
	switch {
	case w.Version == nil:
		return "version"
	case w.KDF == nil:
		return "kdf"
	case w.MCost == nil:
		return "m_cost"
	case w.TCost == nil:
		return "t_cost"
	case w.PCost == nil:
		return "p_cost"
	case w.Salt == nil:
		return "salt"
	case w.Cipher == nil:
		return "cipher"
	case w.Nonce == nil:
		return "nonce"
	case w.Ciphertext == nil:
		return "ciphertext"
	}
	return ""
}

func checkIdentifiers(version int, kdf, cipher string) error {
	if version != EnvelopeVersion {
		return domain.ErrBackupFormat.WithDetails(fmt.Sprintf("unsupported envelope version %d", version))
	}
	if kdf != KDFArgon2id {
		return domain.ErrBackupFormat.WithDetails(fmt.Sprintf("unsupported kdf %q", kdf))
	}
	if !adaptive.IsSupported(adaptive.CipherType(cipher)) {
		return domain.ErrBackupFormat.WithDetails(fmt.Sprintf("unsupported cipher %q", cipher))
	}
	return nil
}

func decodeField(name, value string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, domain.ErrBackupFormat.WithDetails(fmt.Sprintf("decode %s: %v", name, err)).WithCause(err)
	}
	return b, nil
}

// WriteFile writes data to path through a temporary file in the same
// directory, so an existing file is replaced only by a complete artifact.
// The file is created with mode 0600.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ioError("create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return ioError("chmod temp file", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ioError("write", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ioError("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return ioError("close", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return ioError("rename", err)
	}
	return nil
}

// ReadFile reads a backup artifact.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError("read", err)
	}
	return data, nil
}

func ioError(op string, err error) error {
	return domain.ErrBackupIO.WithDetails(fmt.Sprintf("%s: %v", op, err)).WithCause(err)
}
