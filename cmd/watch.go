package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/urfave/cli"
	"github.com/warpdl/idleload/common"
)

// formatNotification renders a daemon push notification as one line.
func formatNotification(req *jrpc2.Request) string {
	ts := time.Now().Format("15:04:05.000")
	switch req.Method() {
	case common.NotifyFeatureLoaded:
		var n common.FeatureLoadedNotification
		if err := req.UnmarshalParams(&n); err != nil {
			return fmt.Sprintf("%s %s: %v", ts, req.Method(), err)
		}
		if len(n.Loaded) == 0 {
			return fmt.Sprintf("%s %s %s (already resident)", ts, strings.ToLower(n.Kind), n.Feature)
		}
		return fmt.Sprintf("%s %s %s: %s", ts, strings.ToLower(n.Kind), n.Feature, strings.Join(n.Loaded, ", "))
	case common.NotifyCacheFlushed:
		var n common.CacheFlushedNotification
		if err := req.UnmarshalParams(&n); err != nil {
			return fmt.Sprintf("%s %s: %v", ts, req.Method(), err)
		}
		return fmt.Sprintf("%s cache written (%d entries)", ts, n.Entries)
	}
	return fmt.Sprintf("%s %s %s", ts, req.Method(), req.ParamString())
}

func watch(ctx *cli.Context) error {
	client := newClient(ctx, "watch", func(req *jrpc2.Request) {
		fmt.Println(formatNotification(req))
	})
	if client == nil {
		return nil
	}
	defer client.Close()

	runCtx, cancel := setupShutdownHandler()
	defer cancel()
	fmt.Println("Watching idle loads, press Ctrl+C to stop")
	<-runCtx.Done()
	return nil
}
