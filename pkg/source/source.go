// Package source opens sensor log documents from local files, stdin or S3,
// transparently decompressing gzip and zstd input.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Stdin is the location that reads the document from standard input.
const Stdin = "-"

// ObjectGetter is the subset of the S3 client used to fetch documents.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener resolves document locations to readers.
type Opener struct {
	s3Client ObjectGetter
	stdin    io.Reader
}

// OpenerOption configures an Opener.
type OpenerOption func(*Opener)

// WithS3Client sets the client used for s3:// locations. Without it, a client
// is built from the default AWS configuration on first use.
func WithS3Client(c ObjectGetter) OpenerOption {
	return func(o *Opener) {
		o.s3Client = c
	}
}

// WithStdin replaces os.Stdin for the "-" location.
func WithStdin(r io.Reader) OpenerOption {
	return func(o *Opener) {
		o.stdin = r
	}
}

// NewOpener creates an Opener.
func NewOpener(opts ...OpenerOption) *Opener {
	o := &Opener{stdin: os.Stdin}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open opens location with a default Opener.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	return NewOpener().Open(ctx, location)
}

// Open returns a reader over the document at location: a file path, "-" for
// standard input, or s3://bucket/key. Locations ending in .gz or .zst are
// decompressed.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)

	switch {
	case location == Stdin:
		rc = io.NopCloser(o.stdin)
	case strings.HasPrefix(location, "s3://"):
		rc, err = o.openS3(ctx, location)
	default:
		rc, err = os.Open(location) // #nosec G304 -- user-provided paths are expected
		if err != nil {
			err = fmt.Errorf("opening log file %s: %w", location, err)
		}
	}
	if err != nil {
		return nil, err
	}

	return decompress(location, rc)
}

func (o *Opener) openS3(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URL(location)
	if err != nil {
		return nil, err
	}

	if o.s3Client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		o.s3Client = s3.NewFromConfig(cfg)
	}

	out, err := o.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	return out.Body, nil
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 location %q: %w", location, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("invalid s3 location %q: scheme must be s3", location)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 location %q: need s3://bucket/key", location)
	}
	return bucket, key, nil
}

// decompress wraps rc according to the location's extension.
func decompress(location string, rc io.ReadCloser) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(location, ".gz"):
		zr, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", location, err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case strings.HasSuffix(location, ".zst"):
		zr, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", location, err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), rc}}, nil
	default:
		return rc, nil
	}
}

// stackedReader reads from a decompressor and closes it before the
// underlying stream.
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
