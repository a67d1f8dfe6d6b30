// Package store defines the whole-document persistence port of the ledger
// and the codec of the document it holds.
//
// A store keeps one JSON document. The canonical shape is
//
//	{"transactions": [Transaction, ...]}
//
// Older writers stored a bare array, and JSONBin wraps records in a
// {"record": ...} envelope unless metadata is disabled. Decode accepts all
// three; Encode always produces the canonical shape.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lapkeu/internal/core"
)

// DocumentStore reads and replaces the ledger document as a whole. There is
// no partial update and no concurrency token: the last Save wins.
type DocumentStore interface {
	// Load returns the current document. A store that has never been
	// written returns an empty slice and no error.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the document.
	Save(ctx context.Context, doc []byte) error
	// Name identifies the backend in logs.
	Name() string
}

var (
	// ErrCorruptDocument is returned when the stored bytes are not JSON.
	ErrCorruptDocument = fmt.Errorf("%w: document is not valid JSON", core.ErrStoreUnavailable)
	// ErrNotConfigured means the backend lacks a required setting.
	ErrNotConfigured = errors.New("store not configured")
)

// Unconfigured stands in for a backend whose settings are missing, so the
// process still starts and every call reports what to configure.
type Unconfigured struct {
	Backend string
	Err     error
}

func (u Unconfigured) Load(context.Context) ([]byte, error) { return nil, u.Err }
func (u Unconfigured) Save(context.Context, []byte) error   { return u.Err }
func (u Unconfigured) Name() string                         { return u.Backend }

type document struct {
	Transactions []core.Transaction `json:"transactions"`
}

// record mirrors core.Transaction with loosely typed text fields so a single
// malformed field never rejects the record.
type record struct {
	ID     json.RawMessage `json:"id"`
	Type   core.Type       `json:"type"`
	Note   json.RawMessage `json:"note"`
	Sector json.RawMessage `json:"sector"`
	Amount core.Amount     `json:"amount"`
	Date   core.Date       `json:"date"`
}

// Decode turns a stored document into transactions.
func Decode(raw []byte) ([]core.Transaction, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []core.Transaction{}, nil
	}
	if !json.Valid(raw) {
		return nil, ErrCorruptDocument
	}

	items, err := extractList(raw)
	if err != nil {
		return nil, err
	}
	list := make([]core.Transaction, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var r record
		if err := json.Unmarshal(item, &r); err != nil {
			continue
		}
		list = append(list, core.Transaction{
			ID:     text(r.ID),
			Type:   r.Type,
			Note:   text(r.Note),
			Sector: text(r.Sector),
			Amount: r.Amount,
			Date:   r.Date,
		})
	}
	return list, nil
}

// extractList finds the transaction array in any accepted shape. Shapes that
// hold no array decode as an empty list.
func extractList(raw []byte) ([]json.RawMessage, error) {
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		return items, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		if rec, ok := obj["record"]; ok {
			rec = bytes.TrimSpace(rec)
			if len(rec) == 0 || bytes.Equal(rec, []byte("null")) {
				return nil, nil
			}
			return extractList(rec)
		}
		txs := bytes.TrimSpace(obj["transactions"])
		if len(txs) > 0 && txs[0] == '[' {
			return extractList(txs)
		}
	}
	return nil, nil
}

// text coerces a JSON scalar to a string: strings verbatim, numbers and
// booleans by their literal, everything else as "".
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// Encode renders list in the canonical shape.
func Encode(list []core.Transaction) ([]byte, error) {
	if list == nil {
		list = []core.Transaction{}
	}
	b, err := json.Marshal(document{Transactions: list})
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

// IsUnavailable reports whether err means the store could not be reached or
// returned something unusable.
func IsUnavailable(err error) bool {
	return errors.Is(err, core.ErrStoreUnavailable)
}
