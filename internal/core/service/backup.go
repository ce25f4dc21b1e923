package service

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/bestelldesk-go/internal/core/domain"
	"github.com/yndnr/bestelldesk-go/internal/storage/snapshot"
	"github.com/yndnr/bestelldesk-go/internal/telemetry/logger"
	"github.com/yndnr/bestelldesk-go/internal/telemetry/metric"
	"github.com/yndnr/bestelldesk-go/pkg/crypto/adaptive"
)

// Operation names used in logs and metrics.
const (
	OpExport = "export"
	OpImport = "import"
	OpVerify = "verify"
)

// Stage is a step of an export or import.
type Stage string

// Export stages.
const (
	StageCollecting  Stage = "collecting"
	StageSerializing Stage = "serializing"
	StageDerivingKey Stage = "deriving_key"
	StageEncrypting  Stage = "encrypting"
	StagePackaging   Stage = "packaging"
	StageWriting     Stage = "writing"
)

// Import stages. StageDerivingKey is shared with export.
const (
	StageReading       Stage = "reading"
	StageUnpacking     Stage = "unpacking"
	StageDecrypting    Stage = "decrypting"
	StageDeserializing Stage = "deserializing"
	StageRestoring     Stage = "restoring"
)

// authFailedDetail is the only detail ever reported for a failed decryption.
const authFailedDetail = "wrong passphrase or corrupted backup"

// BackupServiceConfig holds configuration for BackupService.
type BackupServiceConfig struct {
	// Collections is the fixed list of collections exported.
	Collections []string

	// Cipher is the AEAD used for new backups (default: aes-256-gcm).
	Cipher adaptive.CipherType

	// KDF holds the Argon2id costs used for new backups. Imports always use
	// the costs stored in the backup.
	KDF snapshot.KDFParams

	// App is the application tag written into the snapshot meta.
	App string

	// Logger receives stage transitions and failures (default: logger.Default()).
	Logger logger.Logger

	// Metrics records operation outcomes (nil: disabled).
	Metrics *metric.BackupMetrics
}

// DefaultBackupServiceConfig returns default configuration.
func DefaultBackupServiceConfig() *BackupServiceConfig {
	return &BackupServiceConfig{
		Collections: append([]string(nil), domain.DefaultCollections...),
		Cipher:      adaptive.CipherAESGCM,
		KDF:         snapshot.DefaultKDFParams(),
		App:         domain.DefaultAppTag,
	}
}

// BackupService exports the datastore to encrypted backup files and
// restores it from them.
//
// Operations are synchronous and not coordinated with each other: callers
// must not run an import concurrently with any other writer of the store.
type BackupService struct {
	store       DocumentStore
	collections []string
	cipher      adaptive.CipherType
	kdf         snapshot.KDFParams
	app         string
	logger      logger.Logger
	metrics     *metric.BackupMetrics

	now       func() time.Time
	deriveKey func(passphrase, salt []byte, p snapshot.KDFParams) ([]byte, error)
}

// NewBackupService creates a new BackupService.
func NewBackupService(store DocumentStore, config *BackupServiceConfig) *BackupService {
	if config == nil {
		config = DefaultBackupServiceConfig()
	}

	s := &BackupService{
		store:       store,
		collections: config.Collections,
		cipher:      config.Cipher,
		kdf:         config.KDF,
		app:         config.App,
		logger:      config.Logger,
		metrics:     config.Metrics,
		now:         time.Now,
		deriveKey:   snapshot.DeriveKey,
	}
	if len(s.collections) == 0 {
		s.collections = append([]string(nil), domain.DefaultCollections...)
	}
	if s.cipher == "" {
		s.cipher = adaptive.CipherAESGCM
	}
	if s.kdf == (snapshot.KDFParams{}) {
		s.kdf = snapshot.DefaultKDFParams()
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}
	return s
}

// ExportResult describes a written backup.
type ExportResult struct {
	BackupID    string             `json:"backup_id" yaml:"backup_id"`
	Path        string             `json:"path" yaml:"path"`
	CreatedAt   time.Time          `json:"created_at" yaml:"created_at"`
	Cipher      string             `json:"cipher" yaml:"cipher"`
	Collections []CollectionResult `json:"collections" yaml:"collections"`
	Records     int                `json:"records" yaml:"records"`
	Bytes       int                `json:"bytes" yaml:"bytes"`
}

// ImportResult describes a restored backup. On a restore failure it holds
// the collections replaced before the failure.
type ImportResult struct {
	BackupID  string         `json:"backup_id" yaml:"backup_id"`
	App       string         `json:"app" yaml:"app"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	Report    *RestoreReport `json:"report" yaml:"report"`
}

// VerifyResult describes a backup that decrypted and decoded cleanly.
type VerifyResult struct {
	Envelope    *EnvelopeInfo      `json:"envelope" yaml:"envelope"`
	BackupID    string             `json:"backup_id" yaml:"backup_id"`
	App         string             `json:"app" yaml:"app"`
	CreatedAt   time.Time          `json:"created_at" yaml:"created_at"`
	Collections []CollectionResult `json:"collections" yaml:"collections"`
	Records     int                `json:"records" yaml:"records"`
}

// EnvelopeInfo is the unencrypted header of a backup file.
type EnvelopeInfo struct {
	Path            string `json:"path" yaml:"path"`
	Version         int    `json:"version" yaml:"version"`
	KDF             string `json:"kdf" yaml:"kdf"`
	MemoryKiB       uint32 `json:"m_cost" yaml:"m_cost"`
	Time            uint32 `json:"t_cost" yaml:"t_cost"`
	Parallelism     uint32 `json:"p_cost" yaml:"p_cost"`
	Cipher          string `json:"cipher" yaml:"cipher"`
	SaltBytes       int    `json:"salt_bytes" yaml:"salt_bytes"`
	NonceBytes      int    `json:"nonce_bytes" yaml:"nonce_bytes"`
	CiphertextBytes int    `json:"ciphertext_bytes" yaml:"ciphertext_bytes"`
}

func envelopeInfo(path string, env *snapshot.Envelope) *EnvelopeInfo {
	return &EnvelopeInfo{
		Path:            path,
		Version:         env.Version,
		KDF:             env.KDF,
		MemoryKiB:       env.Params.MemoryKiB,
		Time:            env.Params.Time,
		Parallelism:     env.Params.Parallelism,
		Cipher:          string(env.Cipher),
		SaltBytes:       len(env.Salt),
		NonceBytes:      len(env.Nonce),
		CiphertextBytes: len(env.Ciphertext),
	}
}

func summarize(snap *domain.Snapshot) []CollectionResult {
	out := make([]CollectionResult, 0, len(snap.Collections))
	for _, c := range snap.Collections {
		out = append(out, CollectionResult{Name: c.Name, Records: len(c.Records)})
	}
	return out
}

// ============================================================================
// Export
// ============================================================================

// Export collects the configured collections, encrypts them under a key
// derived from passphrase and writes the backup to path. Nothing is written
// unless every earlier stage succeeded, and an existing file at path is
// replaced only by a complete backup.
func (s *BackupService) Export(ctx context.Context, path string, passphrase []byte) (res *ExportResult, err error) {
	ctx, op := s.begin(ctx, OpExport)
	defer func() { op.finish(err, res.records()) }()

	if len(passphrase) == 0 {
		return nil, domain.ErrBackupCrypto.WithDetails("empty passphrase")
	}

	op.enter(StageCollecting)
	now := s.now()
	meta, err := domain.NewMeta(s.app, now)
	if err != nil {
		return nil, domain.ErrBackupCrypto.WithDetails("generate backup id").WithCause(err)
	}
	snap, err := Collect(ctx, s.store, s.collections, meta)
	if err != nil {
		return nil, err
	}

	op.enter(StageSerializing)
	plaintext, err := snapshot.EncodePlaintext(snap)
	if err != nil {
		return nil, err
	}
	defer snapshot.ZeroKey(plaintext)

	op.enter(StageDerivingKey)
	salt, err := snapshot.GenerateSalt()
	if err != nil {
		return nil, err
	}
	key, err := s.deriveKey(passphrase, salt, s.kdf)
	if err != nil {
		return nil, err
	}
	defer snapshot.ZeroKey(key)

	op.enter(StageEncrypting)
	aead, err := adaptive.NewWithType(key, s.cipher)
	if err != nil {
		return nil, domain.ErrBackupCrypto.WithDetails("init cipher").WithCause(err)
	}
	nonce, err := adaptive.NewNonce(aead)
	if err != nil {
		return nil, domain.ErrBackupCrypto.WithDetails("generate nonce").WithCause(err)
	}
	ciphertext, err := aead.Seal(nonce, plaintext, nil)
	if err != nil {
		return nil, domain.ErrBackupCrypto.WithDetails("encrypt").WithCause(err)
	}

	op.enter(StagePackaging)
	data, err := snapshot.Pack(&snapshot.Envelope{
		Version:    snapshot.EnvelopeVersion,
		KDF:        snapshot.KDFArgon2id,
		Params:     s.kdf,
		Salt:       salt,
		Cipher:     aead.Type(),
		Nonce:      nonce,
		Ciphertext: ciphertext,
	})
	if err != nil {
		return nil, err
	}

	op.enter(StageWriting)
	if err := snapshot.WriteFile(path, data); err != nil {
		return nil, err
	}

	res = &ExportResult{
		BackupID:    meta.ID,
		Path:        path,
		CreatedAt:   meta.CreatedTime(),
		Cipher:      string(aead.Type()),
		Collections: summarize(snap),
		Records:     snap.RecordCount(),
		Bytes:       len(data),
	}
	op.log.Info("backup exported", "backup_id", res.BackupID, "path", path,
		"collections", len(res.Collections), "records", res.Records, "bytes", res.Bytes)
	return res, nil
}

// ============================================================================
// Import / Verify / Inspect
// ============================================================================

// Import decrypts the backup at path and replaces the datastore collections
// it contains. Version and identifier checks happen before any key
// derivation. The restore stage is not atomic, see Restore.
func (s *BackupService) Import(ctx context.Context, path string, passphrase []byte) (res *ImportResult, err error) {
	ctx, op := s.begin(ctx, OpImport)
	defer func() {
		n := 0
		if res != nil && res.Report != nil {
			n = res.Report.Records()
		}
		op.finish(err, n)
	}()

	snap, _, err := s.open(op, path, passphrase)
	if err != nil {
		return nil, err
	}

	op.enter(StageRestoring)
	report, err := Restore(ctx, s.store, snap)
	res = &ImportResult{
		BackupID:  snap.Meta.ID,
		App:       snap.Meta.App,
		CreatedAt: snap.Meta.CreatedTime(),
		Report:    report,
	}
	if err != nil {
		op.log.Warn("restore stopped part way", "replaced", len(report.Replaced), "failed_collection", report.Failed)
		return res, err
	}

	op.log.Info("backup imported", "backup_id", res.BackupID, "collections", len(report.Replaced), "records", report.Records())
	return res, nil
}

// Verify decrypts and decodes the backup at path without touching the datastore.
func (s *BackupService) Verify(ctx context.Context, path string, passphrase []byte) (res *VerifyResult, err error) {
	_, op := s.begin(ctx, OpVerify)
	defer func() {
		n := 0
		if res != nil {
			n = res.Records
		}
		op.finish(err, n)
	}()

	snap, env, err := s.open(op, path, passphrase)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		Envelope:    envelopeInfo(path, env),
		BackupID:    snap.Meta.ID,
		App:         snap.Meta.App,
		CreatedAt:   snap.Meta.CreatedTime(),
		Collections: summarize(snap),
		Records:     snap.RecordCount(),
	}, nil
}

// Inspect reads the unencrypted envelope header of the backup at path.
// It needs no passphrase and performs no cryptographic work.
func (s *BackupService) Inspect(path string) (*EnvelopeInfo, error) {
	data, err := snapshot.ReadFile(path)
	if err != nil {
		return nil, err
	}
	env, err := snapshot.Unpack(data)
	if err != nil {
		return nil, err
	}
	return envelopeInfo(path, env), nil
}

// open runs the read, unpack, derive, decrypt and decode stages.
func (s *BackupService) open(op *operation, path string, passphrase []byte) (*domain.Snapshot, *snapshot.Envelope, error) {
	op.enter(StageReading)
	data, err := snapshot.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	op.enter(StageUnpacking)
	env, err := snapshot.Unpack(data)
	if err != nil {
		return nil, nil, err
	}

	op.enter(StageDerivingKey)
	key, err := s.deriveKey(passphrase, env.Salt, env.Params)
	if err != nil {
		return nil, nil, err
	}
	defer snapshot.ZeroKey(key)

	op.enter(StageDecrypting)
	aead, err := adaptive.NewWithType(key, env.Cipher)
	if err != nil {
		return nil, nil, domain.ErrBackupCrypto.WithDetails(authFailedDetail)
	}
	plaintext, err := aead.Open(env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, nil, domain.ErrBackupCrypto.WithDetails(authFailedDetail)
	}
	defer snapshot.ZeroKey(plaintext)

	op.enter(StageDeserializing)
	snap, err := snapshot.DecodePlaintext(plaintext)
	if err != nil {
		return nil, nil, err
	}
	return snap, env, nil
}

// ============================================================================
// Operation tracking
// ============================================================================

// operation tracks the current stage of one call for logs and metrics.
type operation struct {
	name    string
	log     logger.Logger
	metrics *metric.BackupMetrics
	now     func() time.Time
	start   time.Time
	stage   Stage
}

func (s *BackupService) begin(ctx context.Context, name string) (context.Context, *operation) {
	if logger.OperationIDFromContext(ctx) == "" {
		ctx = logger.WithOperationID(ctx, ulid.Make().String())
	}
	ctx = logger.WithLogger(ctx, s.logger)

	op := &operation{
		name:    name,
		log:     logger.L(ctx).With("operation", name),
		metrics: s.metrics,
		now:     s.now,
		start:   s.now(),
	}
	return ctx, op
}

func (op *operation) enter(stage Stage) {
	op.stage = stage
	op.log.Debug("stage", "stage", string(stage))
}

func (op *operation) finish(err error, records int) {
	elapsed := op.now().Sub(op.start)
	if err == nil {
		op.metrics.RecordSuccess(op.name, records, elapsed, op.now())
		return
	}

	kind := domain.KindOf(err)
	op.metrics.RecordFailure(op.name, string(kind), elapsed)
	op.log.Error("operation failed",
		"stage", string(op.stage),
		"kind", string(kind),
		"code", domain.GetErrorCode(err),
		"error", err.Error())
}

func (r *ExportResult) records() int {
	if r == nil {
		return 0
	}
	return r.Records
}
