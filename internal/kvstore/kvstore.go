// Package kvstore keeps the ledger in an embedded badger database, for
// single-binary deployments and tests that should not need Postgres.
package kvstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"poker-ledger/internal/ledger"

	"github.com/dgraph-io/badger/v4"
)

// Key layout:
//
//	meta\x00seq                  last assigned sequence (uint64, big endian)
//	meta\x00active               current session id
//	tx\x00<session>\x00<seq>     transaction JSON, seq big endian so keys sort by insertion
var (
	keySeq    = []byte("meta\x00seq")
	keyActive = []byte("meta\x00active")
)

type Store struct {
	db *badger.DB
	// badger transactions detect conflicts rather than wait; appends are
	// serialized here so the sequence counter never conflicts.
	appendMu sync.Mutex
}

type Options struct {
	Dir      string
	InMemory bool
	// Verbose keeps badger's info and debug lines; by default only
	// warnings and errors reach the log.
	Verbose bool
}

func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithLogger(badgerLogger{verbose: opts.Verbose})
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func OpenInMemory() (*Store, error) {
	return Open(Options{InMemory: true})
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(_ context.Context) error {
	if s.db == nil || s.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

func (s *Store) Append(ctx context.Context, tx ledger.Transaction) (ledger.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Transaction{}, err
	}
	if err := ledger.CheckStructure(tx); err != nil {
		return ledger.Transaction{}, err
	}
	if strings.ContainsRune(tx.SessionID, 0) {
		return ledger.Transaction{}, errors.New("session id contains NUL")
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		seq, err := readSeq(txn)
		if err != nil {
			return err
		}
		// Opens only land on an empty prefix, so a non-empty prefix always
		// starts with the session's open.
		exists, err := hasPrefix(txn, sessionPrefix(tx.SessionID))
		if err != nil {
			return err
		}
		switch {
		case tx.Kind == ledger.KindSessionOpened && exists:
			return fmt.Errorf("%w: session %s already has transactions", ledger.ErrSessionExists, tx.SessionID)
		case tx.Kind != ledger.KindSessionOpened && !exists:
			return fmt.Errorf("%w: %s", ledger.ErrSessionNotOpened, tx.SessionID)
		}
		seq++
		tx.Seq = int64(seq)
		raw, err := json.Marshal(tx)
		if err != nil {
			return err
		}
		if err := txn.Set(keySeq, encodeSeq(seq)); err != nil {
			return err
		}
		if err := txn.Set(txKey(tx.SessionID, seq), raw); err != nil {
			return err
		}
		if tx.Kind == ledger.KindSessionOpened {
			return txn.Set(keyActive, []byte(tx.SessionID))
		}
		return nil
	})
	if err != nil {
		return ledger.Transaction{}, err
	}
	return tx, nil
}

func (s *Store) CurrentSessionID(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyActive)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id = string(raw)
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return id, id != "", nil
}

func (s *Store) TransactionsForSession(ctx context.Context, sessionID string) ([]ledger.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []ledger.Transaction{}
	prefix := sessionPrefix(sessionID)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var tx ledger.Transaction
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &tx)
			})
			if err != nil {
				return err
			}
			out = append(out, tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readSeq(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get(keySeq)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var seq uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt sequence value of %d bytes", len(val))
		}
		seq = binary.BigEndian.Uint64(val)
		return nil
	})
	return seq, err
}

func hasPrefix(txn *badger.Txn, prefix []byte) (bool, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	it.Seek(prefix)
	return it.ValidForPrefix(prefix), nil
}

func encodeSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func sessionPrefix(sessionID string) []byte {
	return []byte("tx\x00" + sessionID + "\x00")
}

func txKey(sessionID string, seq uint64) []byte {
	return append(sessionPrefix(sessionID), encodeSeq(seq)...)
}
