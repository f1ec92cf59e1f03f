// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches staged cutout artifacts into the scratch
// directory and verifies their integrity.
package download

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/askap-tools/casda-mosaic/internal/httputil"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

const (
	defaultMaxRetries = 3
	defaultWorkers    = 2
)

// Fetcher downloads artifacts for candidates whose staging completed.
type Fetcher struct {
	Client *http.Client
	Config types.DownloadConfig
	Log    *zap.SugaredLogger
}

// FetchAll downloads the image and weight for every READY outcome, a
// bounded number of candidates at a time. Results preserve input order;
// a nil error at index i corresponds to a complete pair at index i.
func (f *Fetcher) FetchAll(ctx context.Context, ready []types.StagingOutcome) ([]types.ArtifactPair, []error) {
	workers := f.Config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(ready) {
		workers = len(ready)
	}

	pairs := make([]types.ArtifactPair, len(ready))
	errs := make([]error, len(ready))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				pairs[i], errs[i] = f.FetchCandidate(ctx, ready[i])
			}
		}()
	}
	for i := range ready {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return pairs, errs
}

// FetchCandidate downloads one candidate's image and weight into a
// per-candidate scratch subdirectory with deterministic names.
func (f *Fetcher) FetchCandidate(ctx context.Context, out types.StagingOutcome) (types.ArtifactPair, error) {
	dir := filepath.Join(f.Config.ScratchDir, out.Candidate.ObsID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.ArtifactPair{}, fmt.Errorf("creating scratch directory: %w", err)
	}

	image, err := f.fetchArtifact(ctx, out.Image, filepath.Join(dir, out.Candidate.ObsID+".image.fits"))
	if err != nil {
		return types.ArtifactPair{}, fmt.Errorf("image for %s: %w", out.Candidate.ObsID, err)
	}
	weight, err := f.fetchArtifact(ctx, out.Weight, filepath.Join(dir, out.Candidate.ObsID+".weight.fits"))
	if err != nil {
		return types.ArtifactPair{}, fmt.Errorf("weight for %s: %w", out.Candidate.ObsID, err)
	}

	return types.ArtifactPair{ObsID: out.Candidate.ObsID, Image: image, Weight: weight}, nil
}

// fetchArtifact downloads one file with bounded retries. Every attempt
// writes to a temp file that is renamed only after verification, so a
// failed attempt never leaves anything a later pass could mistake for a
// complete artifact.
func (f *Fetcher) fetchArtifact(ctx context.Context, staged types.StagedArtifact, destPath string) (types.LocalArtifact, error) {
	maxRetries := f.Config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	var integrity bool
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return types.LocalArtifact{}, fmt.Errorf("%w: %v", types.ErrDownloadFailed, ctx.Err())
			case <-time.After(time.Duration(attempt-1) * httputil.RetryBaseDelay):
			}
		}

		artifact, err := f.fetchOnce(ctx, staged, destPath)
		if err == nil {
			return artifact, nil
		}
		lastErr = err
		integrity = isIntegrity(err)
		f.Log.Warnw("download attempt failed", "url", staged.URL,
			"attempt", attempt, "error", err)
	}

	if integrity {
		return types.LocalArtifact{}, fmt.Errorf("%w: %v", types.ErrDownloadIntegrity, lastErr)
	}
	return types.LocalArtifact{}, fmt.Errorf("%w: %v", types.ErrDownloadFailed, lastErr)
}

// integrityError marks a size or checksum mismatch so exhaustion surfaces
// the right sentinel.
type integrityError struct{ msg string }

func (e *integrityError) Error() string { return e.msg }

func isIntegrity(err error) bool {
	_, ok := err.(*integrityError)
	return ok
}

func (f *Fetcher) fetchOnce(ctx context.Context, staged types.StagedArtifact, destPath string) (types.LocalArtifact, error) {
	req, err := http.NewRequest(http.MethodGet, staged.URL, nil)
	if err != nil {
		return types.LocalArtifact{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 0)
	if err != nil {
		return types.LocalArtifact{}, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.LocalArtifact{}, fmt.Errorf("HTTP %d from %s", resp.StatusCode, staged.URL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return types.LocalArtifact{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	hash := md5.New()
	size, copyErr := io.Copy(io.MultiWriter(tmpFile, hash), resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return types.LocalArtifact{}, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return types.LocalArtifact{}, fmt.Errorf("closing temp file: %w", closeErr)
	}

	sum := hex.EncodeToString(hash.Sum(nil))
	if staged.Size > 0 && size != staged.Size {
		os.Remove(tmpPath)
		return types.LocalArtifact{}, &integrityError{
			msg: fmt.Sprintf("size mismatch: got %d, archive reported %d", size, staged.Size)}
	}
	if staged.MD5 != "" && sum != staged.MD5 {
		os.Remove(tmpPath)
		return types.LocalArtifact{}, &integrityError{
			msg: fmt.Sprintf("checksum mismatch: got %s, archive reported %s", sum, staged.MD5)}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return types.LocalArtifact{}, fmt.Errorf("renaming temp file: %w", err)
	}

	return types.LocalArtifact{
		Path:           destPath,
		Size:           size,
		MD5:            sum,
		SourceFilename: staged.Filename,
	}, nil
}
