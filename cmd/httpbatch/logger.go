package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/torosent/httpbatch/internal/metrics"
)

type stderrLogger struct {
	mu  sync.Mutex
	out io.Writer
}

func newStderrLogger(out io.Writer) *stderrLogger {
	return &stderrLogger{out: out}
}

func (l *stderrLogger) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[httpbatch] "+format+"\n", args...)
}

func (l *stderrLogger) LogFailure(index, total int, r metrics.RequestResult) {
	reason := r.ErrorText()
	if reason == "" {
		reason = fmt.Sprintf("status %d", r.Status())
	}
	l.Printf("request %d/%d %q failed: %s", index, total, r.Name, reason)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
