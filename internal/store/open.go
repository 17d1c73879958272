package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// OpenOptions tunes backends created by Open.
type OpenOptions struct {
	PollInterval time.Duration // 0 = backend default
	Logger       *slog.Logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds a Store from a location string:
//
//	memory                          process-local medium (one context)
//	/path/to/dir or file:///path    FileStore
//	s3://bucket/prefix?region=us-east-1&endpoint=http://localhost:9000&path_style=true
//
// The returned Closer releases background pollers.
func Open(ctx context.Context, location string, opts OpenOptions) (Store, io.Closer, error) {
	switch {
	case location == "" || location == "memory":
		return NewHub().Context(), nopCloser{}, nil
	case strings.HasPrefix(location, "s3://"):
		return openS3(ctx, location, opts)
	case strings.HasPrefix(location, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid store location %q: %w", location, err)
		}
		return openFile(u.Path, opts)
	case strings.Contains(location, "://"):
		return nil, nil, fmt.Errorf("unsupported store location %q (use memory, a directory, file:// or s3://)", location)
	default:
		return openFile(location, opts)
	}
}

func openFile(dir string, opts OpenOptions) (Store, io.Closer, error) {
	if dir == "" {
		return nil, nil, fmt.Errorf("file store requires a directory")
	}
	var fileOpts []FileOption
	if opts.PollInterval > 0 {
		fileOpts = append(fileOpts, WithFilePollInterval(opts.PollInterval))
	}
	if opts.Logger != nil {
		fileOpts = append(fileOpts, WithFileLogger(opts.Logger))
	}
	fs, err := NewFileStore(dir, fileOpts...)
	if err != nil {
		return nil, nil, err
	}
	return fs, fs, nil
}

func openS3(ctx context.Context, location string, opts OpenOptions) (Store, io.Closer, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid store location %q: %w", location, err)
	}
	q := u.Query()
	pathStyle := false
	if ps := q.Get("path_style"); ps != "" {
		pathStyle, err = strconv.ParseBool(ps)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid path_style %q: %w", ps, err)
		}
	}
	prefix := strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	client, err := NewS3Client(ctx, S3ClientOptions{
		Region:    q.Get("region"),
		Endpoint:  q.Get("endpoint"),
		PathStyle: pathStyle,
	})
	if err != nil {
		return nil, nil, err
	}
	var s3Opts []S3Option
	if opts.PollInterval > 0 {
		s3Opts = append(s3Opts, WithS3PollInterval(opts.PollInterval))
	}
	if opts.Logger != nil {
		s3Opts = append(s3Opts, WithS3Logger(opts.Logger))
	}
	s, err := NewS3Store(client, u.Host, prefix, s3Opts...)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}
