package hooks

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// contextHook annotates every entry with the file:line of the log
// callsite, since logrus does not expose it directly.
type contextHook struct {
}

func NewContextHook() contextHook {
	return contextHook{}
}

func (hook contextHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook contextHook) Fire(entry *logrus.Entry) error {
	// skip past the runtime, this hook, and the logrus frames
	pcs := make([]uintptr, 16)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "sirupsen/logrus") {
			if !more {
				break
			}
			continue
		}
		entry.Data["file:line"] = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		break
	}
	return nil
}
