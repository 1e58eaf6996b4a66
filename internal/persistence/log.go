package persistence

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-records/internal/observability"
	"github.com/spec-kit/clinic-records/pkg/util"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// LogOptions tunes a Log.
type LogOptions struct {
	// Locking takes an exclusive flock on "<path>.lock" around Append and Rewrite.
	Locking bool
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Log is a newline-delimited file of records of one kind. Every operation
// opens and closes the file itself; there is no open handle between calls.
type Log[T any] struct {
	path    string
	name    string
	codec   Codec[T]
	lock    *flock.Flock
	logger  *zap.Logger
	metrics *observability.Metrics
}

// OpenLog makes sure path exists, creating an empty file if needed. Existing
// content is left untouched.
func OpenLog[T any](path string, codec Codec[T], opts LogOptions) (*Log[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, util.NewWriteFailure(path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, filePerm)
	if err != nil {
		return nil, util.NewWriteFailure(path, err)
	}
	if err := f.Close(); err != nil {
		return nil, util.NewWriteFailure(path, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Log[T]{
		path:    path,
		name:    filepath.Base(path),
		codec:   codec,
		logger:  logger.With(zap.String("log", filepath.Base(path))),
		metrics: opts.Metrics,
	}
	if opts.Locking {
		l.lock = flock.New(path + ".lock")
	}
	return l, nil
}

// Path returns the file backing the log.
func (l *Log[T]) Path() string {
	return l.path
}

// Name returns the base file name, used as the metrics key.
func (l *Log[T]) Name() string {
	return l.name
}

// Append writes rec after all existing records and fsyncs before returning.
// A non-nil error means the record was not durably persisted.
func (l *Log[T]) Append(ctx context.Context, rec T) error {
	if err := ctx.Err(); err != nil {
		return l.writeFailed(observability.OpAppend, err)
	}
	line, err := l.codec.Encode(rec)
	if err != nil {
		return l.writeFailed(observability.OpAppend, err)
	}

	unlock, err := l.acquire()
	if err != nil {
		return l.writeFailed(observability.OpAppend, err)
	}
	defer unlock()

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, filePerm)
	if err != nil {
		return l.writeFailed(observability.OpAppend, err)
	}

	torn, err := hasTornTail(f)
	if err != nil {
		_ = f.Close()
		return l.writeFailed(observability.OpAppend, err)
	}

	buf := make([]byte, 0, len(line)+2)
	if torn {
		// end the interrupted line so this record starts on its own
		buf = append(buf, '\n')
		l.logger.Warn("terminating torn line before append")
	}
	buf = append(buf, line...)
	buf = append(buf, '\n')

	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		return l.writeFailed(observability.OpAppend, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return l.writeFailed(observability.OpAppend, err)
	}
	if err := f.Close(); err != nil {
		return l.writeFailed(observability.OpAppend, err)
	}

	l.metrics.RecordOperation(l.name, observability.OpAppend)
	return nil
}

// Scan yields records in append order, reading from the start of the file on
// every call. Blank lines are ignored and lines that fail to decode are
// logged and skipped. A non-nil error is only yielded for I/O failures and
// ends the sequence. A missing file yields nothing.
func (l *Log[T]) Scan(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		f, err := os.Open(l.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return
			}
			l.metrics.RecordError(l.name, observability.OpScan, util.CodeReadFailure)
			yield(zero, util.NewReadFailure(l.path, err))
			return
		}
		defer f.Close()
		l.metrics.RecordOperation(l.name, observability.OpScan)

		r := bufio.NewReader(f)
		lineNo := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(zero, util.NewReadFailure(l.path, err))
				return
			}

			raw, readErr := r.ReadBytes('\n')
			if len(raw) > 0 {
				lineNo++
				if text := bytes.TrimSpace(raw); len(text) > 0 {
					rec, err := l.codec.Decode(text)
					if err != nil {
						l.skip(lineNo, err)
					} else if !yield(rec, nil) {
						return
					}
				}
			}

			if readErr != nil {
				if !errors.Is(readErr, io.EOF) {
					l.metrics.RecordError(l.name, observability.OpScan, util.CodeReadFailure)
					yield(zero, util.NewReadFailure(l.path, readErr))
				}
				return
			}
		}
	}
}

// All collects every record matching keep (all records when keep is nil).
func (l *Log[T]) All(ctx context.Context, keep func(T) bool) ([]T, error) {
	out := []T{}
	for rec, err := range l.Scan(ctx) {
		if err != nil {
			return nil, err
		}
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Rewrite replaces the whole log with recs. The new content is written to a
// temporary file, synced and renamed over the log, so a reader sees either
// the old or the new content.
func (l *Log[T]) Rewrite(ctx context.Context, recs []T) error {
	if err := ctx.Err(); err != nil {
		return l.writeFailed(observability.OpRewrite, err)
	}

	var buf bytes.Buffer
	for _, rec := range recs {
		line, err := l.codec.Encode(rec)
		if err != nil {
			return l.writeFailed(observability.OpRewrite, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	unlock, err := l.acquire()
	if err != nil {
		return l.writeFailed(observability.OpRewrite, err)
	}
	defer unlock()

	if err := renameio.WriteFile(l.path, buf.Bytes(), filePerm); err != nil {
		return l.writeFailed(observability.OpRewrite, err)
	}

	l.metrics.RecordOperation(l.name, observability.OpRewrite)
	return nil
}

func (l *Log[T]) acquire() (func(), error) {
	if l.lock == nil {
		return func() {}, nil
	}
	if err := l.lock.Lock(); err != nil {
		return func() {}, err
	}
	return func() { _ = l.lock.Unlock() }, nil
}

func (l *Log[T]) skip(lineNo int, err error) {
	l.metrics.RecordError(l.name, observability.OpSkip, util.CodeMalformedRecord)
	l.logger.Warn("skipping malformed record",
		zap.String("path", l.path),
		zap.Int("line", lineNo),
		zap.Error(util.NewMalformedRecord(l.codec.Kind(), lineNo, err)))
}

func (l *Log[T]) writeFailed(op string, err error) error {
	l.metrics.RecordError(l.name, op, util.CodeWriteFailure)
	l.logger.Error("log write failed", zap.String("op", op), zap.Error(err))
	return util.NewWriteFailure(l.path, err)
}

func hasTornTail(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	var last [1]byte
	if _, err := f.ReadAt(last[:], info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
