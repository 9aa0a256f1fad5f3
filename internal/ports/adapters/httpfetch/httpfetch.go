package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mardev60/shortZ-tube/internal/types"
)

type Adapter struct {
	client *http.Client
}

// New returns a fetcher. A zero timeout leaves the deadline to the caller's context.
func New(timeout time.Duration) *Adapter {
	return &Adapter{client: &http.Client{Timeout: timeout}}
}

// Download streams url into localPath. A non-2xx status or an empty body is
// a FetchError; the partial file is removed on failure.
func (a *Adapter) Download(ctx context.Context, url, localPath string) error {
	if err := a.download(ctx, url, localPath); err != nil {
		_ = os.Remove(localPath)
		return &types.FetchError{URL: url, Err: err}
	}
	return nil
}

func (a *Adapter) download(ctx context.Context, url, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("http status %d", resp.StatusCode)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return err
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("write body: %w", copyErr)
	}
	if closeErr != nil {
		return closeErr
	}
	if n == 0 {
		return fmt.Errorf("empty body")
	}
	return nil
}
