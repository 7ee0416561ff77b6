package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/torosent/httpbatch/internal/metrics"
	"github.com/torosent/httpbatch/internal/threshold"
)

// Report is everything the file reports render.
type Report struct {
	RunID       string
	Source      string
	GeneratedAt time.Time
	Timeout     time.Duration
	Summary     metrics.TestSummary
	Stats       metrics.Stats
	Thresholds  []threshold.Result
}

// WriteReportFile creates path and fills it via render while holding an
// exclusive lock on path+".lock", so concurrent runs sharing an output path
// never interleave their writes.
func WriteReportFile(path string, render func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	return render(f)
}
