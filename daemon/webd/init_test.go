package webd

import (
	"github.com/rotblauer/trackclust/params"
	"testing"
)

// newTestWebDaemon creates a WebDaemon backed by a bolt store in a temp dir.
// It is closed when the test ends.
func newTestWebDaemon(t *testing.T) *WebDaemon {
	t.Helper()
	config := params.DefaultTestWebDaemonConfig()
	config.DataDir = t.TempDir()
	daemon, err := NewWebDaemon(config)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := daemon.Close(); err != nil {
			t.Error("close:", err)
		}
	})
	return daemon
}
