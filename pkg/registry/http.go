package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/arthur-debert/kitsync/pkg/errors"
	"github.com/arthur-debert/kitsync/pkg/kit"
	"github.com/arthur-debert/kitsync/pkg/logging"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "kitsync-registry-client"
)

// httpProvider talks to a hosted registry over HTTP.
type httpProvider struct {
	client   *resty.Client
	baseURL  string
	channel  string
	cacheDir string
}

func newHTTPProvider(opts Options) (*httpProvider, error) {
	if _, err := url.Parse(opts.URL); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid registry URL %q", opts.URL)
	}
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetRetryCount(3).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := r.StatusCode()
			return code == 429 || (code >= 500 && code <= 504)
		})
	return &httpProvider{
		client:   client,
		baseURL:  opts.URL,
		channel:  opts.Channel,
		cacheDir: opts.CacheDir,
	}, nil
}

func (p *httpProvider) index(ctx context.Context) ([]ReleaseInfo, error) {
	var index []ReleaseInfo
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&index).
		Get(p.baseURL + "/index.json")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRegistryFetch, "failed to fetch registry index")
	}
	if resp.StatusCode() != 200 {
		return nil, errors.Newf(errors.ErrRegistryFetch, "registry index returned status %d", resp.StatusCode())
	}
	return index, nil
}

func (p *httpProvider) ResolveLatest(ctx context.Context) (string, error) {
	index, err := p.index(ctx)
	if err != nil {
		return "", err
	}
	return pickLatest(index, p.channel)
}

func (p *httpProvider) Resolve(ctx context.Context, version string) (string, error) {
	index, err := p.index(ctx)
	if err != nil {
		return "", err
	}
	rel, ok := findRelease(index, version)
	if !ok {
		return "", errors.Newf(errors.ErrRegistryResolve, "version %s not found in registry", version)
	}
	return rel.Version, nil
}

func (p *httpProvider) Fetch(ctx context.Context, version string) (*kit.FileSet, error) {
	logger := logging.GetLogger("registry")

	index, err := p.index(ctx)
	if err != nil {
		return nil, err
	}
	rel, ok := findRelease(index, version)
	if !ok {
		return nil, errors.Newf(errors.ErrRegistryResolve, "version %s not found in registry", version)
	}

	archivePath, err := p.ensureArchive(ctx, rel)
	if err != nil {
		return nil, err
	}

	fileSet, err := extractArchive(ctx, archivePath)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("version", rel.Version).
		Int("files", fileSet.Len()).
		Str("archive", archivePath).
		Msg("Fetched release")
	return fileSet, nil
}

// ensureArchive downloads the release archive into the cache unless a
// verified copy is already there. Archives are cached by checksum, so a
// republished archive under the same version is re-downloaded.
func (p *httpProvider) ensureArchive(ctx context.Context, rel ReleaseInfo) (string, error) {
	cacheName := rel.Checksum
	if cacheName == "" {
		cacheName = rel.Version
	}
	archivePath := filepath.Join(p.cacheDir, cacheName+".tar.gz")

	if _, err := os.Stat(archivePath); err == nil {
		if rel.Checksum == "" || verifyChecksum(archivePath, rel.Checksum) == nil {
			return archivePath, nil
		}
		_ = os.Remove(archivePath)
	}

	if err := os.MkdirAll(p.cacheDir, 0750); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "failed to create cache dir %s", p.cacheDir)
	}

	// Download to a temp file in the cache dir so the final rename is
	// atomic on the same filesystem.
	tempFile, err := os.CreateTemp(p.cacheDir, "kitsync-download-*.tmp")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrRegistryFetch, "failed to create temp file")
	}
	tempPath := tempFile.Name()
	_ = tempFile.Close()
	defer func() {
		if _, err := os.Stat(tempPath); err == nil {
			_ = os.Remove(tempPath)
		}
	}()

	archiveURL := rel.Archive
	if !isAbsoluteURL(archiveURL) {
		archiveURL = p.baseURL + "/" + archiveURL
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetOutput(tempPath).
		Get(archiveURL)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrRegistryFetch, "failed to download %s", archiveURL)
	}
	if resp.StatusCode() != 200 {
		return "", errors.Newf(errors.ErrRegistryFetch, "download of %s returned status %d", archiveURL, resp.StatusCode())
	}

	if rel.Checksum != "" {
		if err := verifyChecksum(tempPath, rel.Checksum); err != nil {
			return "", err
		}
	}

	if err := os.Rename(tempPath, archivePath); err != nil {
		return "", errors.Wrap(err, errors.ErrRegistryFetch, "failed to move downloaded archive into cache")
	}
	return archivePath, nil
}

// verifyChecksum computes sha256 over the file and compares hex digests.
func verifyChecksum(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrRegistryChecksum, "failed to open %s for verification", path)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return errors.Wrap(err, errors.ErrRegistryChecksum, "failed to compute checksum")
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expected {
		return errors.Newf(errors.ErrRegistryChecksum, "checksum mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

var _ Provider = (*httpProvider)(nil)
