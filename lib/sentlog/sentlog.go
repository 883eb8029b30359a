package sentlog

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Log is the persisted set of addresses that already received an
// outreach message. One line per address, append-only; addresses are
// lower-cased on both read and write so casing differences can't cause
// a duplicate send. The dispatcher owns all writes.
type Log struct {
	path string
}

func New(path string) Log {
	return Log{path: path}
}

func (l Log) Path() string {
	return l.path
}

// Load reads the sent set. A missing file is an empty set.
func (l Log) Load() (map[string]bool, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sent := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line != "" {
			sent[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sent, nil
}

// Append records one sent address. The write is synced to disk before
// returning: once a message has gone out there must be no window where
// a crash forgets that it did.
func (l Log) Append(email string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintln(f, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	return f.Sync()
}

// Reset deletes the log, forgetting every recorded send.
func (l Log) Reset() error {
	err := os.Remove(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
