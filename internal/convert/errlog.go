// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"time"

	"github.com/pdiddy/docmark/pkg/types"
)

// FailureLog appends timestamped failure lines to a log file. The file is
// opened lazily on the first failure, so clean runs leave no log behind.
type FailureLog struct {
	path string
	f    *os.File
}

// NewFailureLog returns a failure log that will append to path.
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

// Record appends a line for res when it is a failure; other statuses are
// ignored.
func (l *FailureLog) Record(res types.FileResult) error {
	if res.Status != types.ConversionFailed {
		return nil
	}
	if l.f == nil {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening error log %s: %w", l.path, err)
		}
		l.f = f
	}
	ts := time.Now().Format(time.RFC3339)
	if _, err := fmt.Fprintf(l.f, "%s ERROR %s: %s\n", ts, res.Path, res.Error); err != nil {
		return fmt.Errorf("writing error log %s: %w", l.path, err)
	}
	return nil
}

// Close releases the underlying file, if one was opened.
func (l *FailureLog) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
