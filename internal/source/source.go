// Package source opens inputs and creates outputs named by local paths or
// gs://bucket/object URIs.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

type Location struct {
	Bucket string
	Object string
	Path   string
}

func (l Location) Remote() bool {
	return l.Bucket != ""
}

func (l Location) String() string {
	if l.Remote() {
		return gcsScheme + l.Bucket + "/" + l.Object
	}
	return l.Path
}

func ParseURI(uri string) (Location, error) {
	if uri == "" {
		return Location{}, fmt.Errorf("empty path")
	}
	if !strings.HasPrefix(uri, gcsScheme) {
		return Location{Path: uri}, nil
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return Location{}, fmt.Errorf("invalid gcs uri %q: want gs://bucket/object", uri)
	}
	return Location{Bucket: bucket, Object: object}, nil
}

// Opener resolves locations. The GCS client is created on first use of a
// gs:// location.
type Opener struct {
	credentialsFile string

	mu     sync.Mutex
	client *storage.Client
}

// NewOpener returns an Opener. An empty credentialsFile uses the ambient
// Google credentials.
func NewOpener(credentialsFile string) *Opener {
	return &Opener{credentialsFile: credentialsFile}
}

func (o *Opener) gcs(ctx context.Context) (*storage.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.client != nil {
		return o.client, nil
	}
	var opts []option.ClientOption
	if o.credentialsFile != "" {
		if _, err := os.Stat(o.credentialsFile); err != nil {
			return nil, fmt.Errorf("gcs credentials file %s: %w", o.credentialsFile, err)
		}
		opts = append(opts, option.WithCredentialsFile(o.credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs storage client: %w", err)
	}
	o.client = client
	return client, nil
}

func (o *Opener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if !loc.Remote() {
		f, err := os.Open(loc.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", loc.Path, err)
		}
		return f, nil
	}
	client, err := o.gcs(ctx)
	if err != nil {
		return nil, err
	}
	r, err := client.Bucket(loc.Bucket).Object(loc.Object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc, err)
	}
	return r, nil
}

// Output is an object being written. Close commits it; Abort discards it
// and leaves any earlier object at the same location untouched.
type Output struct {
	w      io.Writer
	commit func() error
	abort  func() error
	done   bool
}

func (o *Output) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

func (o *Output) Close() error {
	if o.done {
		return nil
	}
	o.done = true
	return o.commit()
}

func (o *Output) Abort() error {
	if o.done {
		return nil
	}
	o.done = true
	return o.abort()
}

// Create opens uri for writing. Nothing is visible at uri until the
// returned Output is closed.
func (o *Opener) Create(ctx context.Context, uri string) (*Output, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if !loc.Remote() {
		return createLocal(loc.Path)
	}
	client, err := o.gcs(ctx)
	if err != nil {
		return nil, err
	}
	// cancelling the writer's context before Close drops the upload
	wctx, cancel := context.WithCancel(ctx)
	w := client.Bucket(loc.Bucket).Object(loc.Object).NewWriter(wctx)
	w.ContentType = "text/plain; charset=utf-8"
	w.CacheControl = "no-cache"
	return &Output{
		w: w,
		commit: func() error {
			defer cancel()
			if err := w.Close(); err != nil {
				return fmt.Errorf("write %s: %w", loc, err)
			}
			return nil
		},
		abort: func() error {
			cancel()
			_ = w.Close()
			return nil
		},
	}, nil
}

func createLocal(path string) (*Output, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	return &Output{
		w: f,
		commit: func() error {
			if err := f.Close(); err != nil {
				_ = os.Remove(tmp)
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := os.Chmod(tmp, 0o644); err != nil {
				_ = os.Remove(tmp)
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := os.Rename(tmp, path); err != nil {
				_ = os.Remove(tmp)
				return fmt.Errorf("create %s: %w", path, err)
			}
			return nil
		},
		abort: func() error {
			_ = f.Close()
			return os.Remove(tmp)
		},
	}, nil
}

func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.client == nil {
		return nil
	}
	err := o.client.Close()
	o.client = nil
	return err
}
