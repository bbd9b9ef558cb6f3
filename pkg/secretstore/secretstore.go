// Package secretstore keeps trading credentials and signing keys in an
// encrypted-at-rest Badger database. Encryption comes from Badger's own
// value-log and key-registry options, not from this wrapper.
package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/kuestmarket/kuest-go/clob/types"
)

const (
	keyCredentials    = "clob/credentials"
	keyPrivateKey     = "wallet/private-key"
	keyCustodyAddress = "wallet/custody-address"
)

type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path string

	// EncryptionKey is 32 bytes; nil opens the store unencrypted.
	EncryptionKey []byte

	ReadOnly bool
}

func Open(opts OpenOptions) (*Store, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("secretstore: path is required")
	}

	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(nil).
		WithReadOnly(opts.ReadOnly)
	if len(opts.EncryptionKey) > 0 {
		// Badger requires an index cache for encrypted workloads.
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "open secret store")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveCreds persists the HMAC trading credential triple.
func (s *Store) SaveCreds(creds types.APICreds) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrap(err, "marshal credentials")
	}
	return s.setBytes(keyCredentials, data)
}

// LoadCreds returns the stored credential triple. found is false when
// none have been saved.
func (s *Store) LoadCreds() (creds types.APICreds, found bool, err error) {
	data, found, err := s.getBytes(keyCredentials)
	if err != nil || !found {
		return types.APICreds{}, found, err
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return types.APICreds{}, false, errors.Wrap(err, "unmarshal credentials")
	}
	return creds, true, nil
}

// SavePrivateKey stores the hex signing key.
func (s *Store) SavePrivateKey(hexKey string) error {
	return s.setBytes(keyPrivateKey, []byte(strings.TrimSpace(hexKey)))
}

func (s *Store) LoadPrivateKey() (string, bool, error) {
	data, found, err := s.getBytes(keyPrivateKey)
	return string(data), found, err
}

// SaveCustodyAddress stores the deployed custody wallet address.
func (s *Store) SaveCustodyAddress(address string) error {
	return s.setBytes(keyCustodyAddress, []byte(strings.TrimSpace(address)))
}

func (s *Store) LoadCustodyAddress() (string, bool, error) {
	data, found, err := s.getBytes(keyCustodyAddress)
	return string(data), found, err
}

func (s *Store) setBytes(key string, val []byte) error {
	if s == nil || s.db == nil {
		return errors.New("secretstore: not opened")
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
}

func (s *Store) getBytes(key string) (val []byte, found bool, err error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("secretstore: not opened")
	}
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		return item.Value(func(v []byte) error {
			val = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return val, found, nil
}

// ParseKey decodes a 32-byte store key from hex or base64. Empty input
// returns nil, meaning no encryption.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	rawHex := strings.TrimPrefix(raw, "0x")
	if b, err := hex.DecodeString(rawHex); err == nil {
		if len(b) != 32 {
			return nil, errors.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}

	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, errors.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}

	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
