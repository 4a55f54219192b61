package fsutil

import (
	"context"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"
)

// DirSize returns the total size in bytes of all regular files under root.
// Symlinks are not followed and unreadable entries are skipped.
func DirSize(ctx context.Context, root string) (int64, error) {
	var total atomic.Int64
	conf := fastwalk.Config{Follow: false}

	// fastwalk invokes the callback from several goroutines.
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || path == root || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		total.Add(info.Size())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total.Load(), nil
}

// HumanSize renders a byte count the way list output shows it (e.g. "1.2 MB").
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
