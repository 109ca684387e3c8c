package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// DownloadFile fetches url into path. The file is replaced only when the
// whole body was received with a 2xx status.
func DownloadFile(ctx context.Context, client *http.Client, url, path string) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	var n int64
	err = writeAtomic(path, func(w io.Writer) error {
		var copyErr error
		n, copyErr = io.Copy(w, resp.Body)
		return copyErr
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	log.Info().Str("path", path).Int64("bytes", n).Msg("downloaded file")
	return nil
}
