package session

import (
	"context"
	"os"
	"time"

	"github.com/pro-xee/editor-dojo/internal/challenge"
)

// defaultPollInterval is the watcher's polling period. Editors write on
// explicit saves, so a short fixed interval is plenty.
const defaultPollInterval = 100 * time.Millisecond

// watchFile polls path until its content matches target, the context is
// cancelled, or reading fails. It sends exactly one value: nil on a match,
// a WatchError on failure; cancellation sends nothing.
func watchFile(ctx context.Context, path, target string, interval time.Duration) <-chan error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	result := make(chan error, 1)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				matched, err := checkFile(path, target)
				if err != nil {
					result <- err
					return
				}
				if matched {
					result <- nil
					return
				}
			}
		}
	}()
	return result
}

// checkFile reads the watched file and compares it against the target. A
// transiently missing file is not an error: some editors replace the file
// on save, leaving a brief gap between unlink and rename.
func checkFile(path, target string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &WatchError{Path: path, Err: err}
	}
	return challenge.Matches(string(data), target), nil
}
