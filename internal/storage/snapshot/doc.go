// Package snapshot turns a domain.Snapshot into an encrypted, portable backup
// artifact and back.
//
// An artifact is a single pretty-printed JSON envelope:
//
//	{
//	  "version": 1,
//	  "kdf": "argon2id",
//	  "m_cost": 19456,
//	  "t_cost": 2,
//	  "p_cost": 1,
//	  "salt": "<base64>",
//	  "cipher": "aes-256-gcm",
//	  "nonce": "<base64>",
//	  "ciphertext": "<base64, tag appended>"
//	}
//
// The ciphertext decrypts to the BSON encoding of the snapshot (meta followed
// by the collections in order). KDF parameters travel with the artifact, so
// decoding never depends on the current defaults.
//
// Neither the plaintext nor the derived key is ever written to disk.
package snapshot
