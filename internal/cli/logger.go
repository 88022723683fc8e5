package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/goliatone/go-pam"
	"github.com/goliatone/go-pam/activitymap"
	"github.com/goliatone/go-print"
)

// writerLogger prints leveled lines to w, keeping stdout for command output.
type writerLogger struct {
	w io.Writer
}

func (l writerLogger) log(level, msg string, args ...any) {
	fmt.Fprintf(l.w, "[%s] %s", level, msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(l.w, " %v=%v", args[i], args[i+1])
	}
	fmt.Fprintln(l.w)
}

func (l writerLogger) Debug(msg string, args ...any) { l.log("DBG", msg, args...) }
func (l writerLogger) Info(msg string, args ...any)  { l.log("INF", msg, args...) }
func (l writerLogger) Warn(msg string, args ...any)  { l.log("WRN", msg, args...) }
func (l writerLogger) Error(msg string, args ...any) { l.log("ERR", msg, args...) }

// activityPrinter writes each event in its normalized form.
func activityPrinter(w io.Writer) pam.ActivitySink {
	return pam.ActivitySinkFunc(func(_ context.Context, event pam.ActivityEvent) error {
		n := activitymap.Normalize(event, activitymap.WithDefaultChannel("pamauth"))
		_, err := fmt.Fprintf(w, "[EVT] %s actor=%s %s=%s %s\n",
			n.Verb,
			n.ActorID,
			n.ObjectType,
			n.ObjectID,
			print.MaybePrettyJSON(n.Metadata),
		)
		return err
	})
}
