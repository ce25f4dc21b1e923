// Package confloader loads configuration into typed structs with koanf.
//
// Priority (highest to lowest):
//
//  1. Values set with LoadMap after Load (command-line flags)
//  2. Environment variables
//  3. Configuration file (YAML)
//  4. Values already present in the target struct (defaults)
//
// Environment variables carry the prefix, separate nesting levels with a
// double underscore and keep single underscores inside a key:
//
//	BESTELLDESK_STORAGE__BADGER__SYNC_WRITES=false -> storage.badger.sync_writes
package confloader
