package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bpmnlayout/pkg/pipeline"
)

// newLogger returns the CLI logger. Lines carry a wall-clock time with
// hundredths of a second, enough to tell lane search from rendering.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one command and logs a summary line when it completes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the model counts and the elapsed time, e.g.
//
//	INFO Rendered 2 artifacts processes=1 elements=6 flows=7 cached=false elapsed=41ms
func (p *progress) done(msg string, s pipeline.Stats, cached bool) {
	p.logger.Info(msg,
		"processes", s.ProcessCount,
		"elements", s.ElementCount,
		"flows", s.FlowCount,
		"cached", cached,
		"elapsed", time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger stored by withLogger, or the
// package default when commands run without the root command's setup.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
