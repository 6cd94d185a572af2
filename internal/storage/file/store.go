// Package file stores users and match results as flat sequential files of
// fixed-size binary records: the user file is rewritten wholesale on save,
// the results file is append-only.
package file

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/storage"
)

// Record field widths. The hash field is wider than the wire password
// limit because it stores a bcrypt hash, not the password itself.
const (
	usernameFieldLen = model.MaxUsernameLen
	hashFieldLen     = 64

	userRecordLen   = usernameFieldLen + hashFieldLen
	resultRecordLen = 2*usernameFieldLen + 1 + 2*model.GridCells + 8
)

// Config names the two record files.
type Config struct {
	UsersPath   string
	ResultsPath string
}

// Store persists records to the configured files. A single lock serializes
// file access; the hot path of the server never touches it except on
// signup and match completion.
type Store struct {
	mu  sync.Mutex
	cfg Config
}

// New creates the store and the backing files if they do not exist yet.
func New(cfg Config) (*Store, error) {
	for _, path := range []string{cfg.UsersPath, cfg.ResultsPath} {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		_ = f.Close()
	}
	return &Store{cfg: cfg}, nil
}

var _ storage.Store = (*Store)(nil)

func encodeUser(u model.User) []byte {
	rec := make([]byte, userRecordLen)
	copy(rec[:usernameFieldLen], u.Username)
	copy(rec[usernameFieldLen:], u.PasswordHash)
	return rec
}

func decodeUser(rec []byte) model.User {
	return model.User{
		Username:     trimField(rec[:usernameFieldLen]),
		PasswordHash: trimField(rec[usernameFieldLen:]),
	}
}

func encodeResult(r model.GameResult) []byte {
	rec := make([]byte, resultRecordLen)
	off := 0
	copy(rec[off:off+usernameFieldLen], r.FirstUsername)
	off += usernameFieldLen
	copy(rec[off:off+usernameFieldLen], r.SecondUsername)
	off += usernameFieldLen
	rec[off] = byte(r.Winner)
	off++
	for _, cell := range r.FirstGrid {
		rec[off] = byte(cell)
		off++
	}
	for _, cell := range r.SecondGrid {
		rec[off] = byte(cell)
		off++
	}
	binary.BigEndian.PutUint64(rec[off:], uint64(r.FinishedAt.Unix()))
	return rec
}

func decodeResult(rec []byte) model.GameResult {
	var r model.GameResult
	off := 0
	r.FirstUsername = trimField(rec[off : off+usernameFieldLen])
	off += usernameFieldLen
	r.SecondUsername = trimField(rec[off : off+usernameFieldLen])
	off += usernameFieldLen
	r.Winner = model.Side(rec[off])
	off++
	for i := range r.FirstGrid {
		r.FirstGrid[i] = model.Cell(rec[off])
		off++
	}
	for i := range r.SecondGrid {
		r.SecondGrid[i] = model.Cell(rec[off])
		off++
	}
	r.FinishedAt = time.Unix(int64(binary.BigEndian.Uint64(rec[off:])), 0).UTC()
	return r
}

func trimField(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func loadRecords(path string, recordLen int) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data)%recordLen != 0 {
		return nil, fmt.Errorf("%s: truncated record store (%d bytes, record size %d)", path, len(data), recordLen)
	}
	records := make([][]byte, 0, len(data)/recordLen)
	for off := 0; off < len(data); off += recordLen {
		records = append(records, data[off:off+recordLen])
	}
	return records, nil
}

func appendRecord(path string, rec []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(rec); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *Store) LoadUsers(ctx context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := loadRecords(s.cfg.UsersPath, userRecordLen)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(records))
	for _, rec := range records {
		users = append(users, decodeUser(rec))
	}
	return users, nil
}

func (s *Store) AppendUser(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendRecord(s.cfg.UsersPath, encodeUser(u))
}

func (s *Store) SaveUsers(ctx context.Context, users []model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, 0, len(users)*userRecordLen)
	for _, u := range users {
		buf = append(buf, encodeUser(u)...)
	}
	return os.WriteFile(s.cfg.UsersPath, buf, 0o644)
}

func (s *Store) AppendResult(ctx context.Context, res model.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendRecord(s.cfg.ResultsPath, encodeResult(res))
}

func (s *Store) LoadResults(ctx context.Context) ([]model.GameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := loadRecords(s.cfg.ResultsPath, resultRecordLen)
	if err != nil {
		return nil, err
	}
	results := make([]model.GameResult, 0, len(records))
	for _, rec := range records {
		results = append(results, decodeResult(rec))
	}
	return results, nil
}

func (s *Store) Close() error {
	return nil
}
