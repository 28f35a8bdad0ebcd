package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadeops/diagd/internal/checkers"
	"github.com/cascadeops/diagd/internal/dedup"
	"github.com/cascadeops/diagd/internal/project"
	"github.com/cascadeops/diagd/internal/types"
)

// linePlugin is a real end-to-end checker that needs nothing but sh: it
// cats the file and reports a diagnostic for every line containing ERR
// or WARN. Parse counts are tracked to observe cache behavior.
type linePlugin struct {
	parses atomic.Int64
}

func (p *linePlugin) Name() string            { return "linecheck" }
func (p *linePlugin) Tool() string            { return "sh" }
func (p *linePlugin) Extensions() []string    { return []string{".zz"} }
func (p *linePlugin) Detect(root string) bool { return true }

func (p *linePlugin) Setup(file, root string) (*checkers.SetupContext, checkers.CleanupFunc, error) {
	return nil, nil, nil
}

func (p *linePlugin) BuildArgs(file, root, toolPath string, sctx *checkers.SetupContext) []string {
	return []string{"-c", `cat "$0"`, file}
}

func (p *linePlugin) ParseOutput(stdout, stderr, file, root string) []types.Diagnostic {
	p.parses.Add(1)
	var diags []types.Diagnostic
	for i, line := range strings.Split(stdout, "\n") {
		switch {
		case strings.Contains(line, "ERR"):
			diags = append(diags, types.Diagnostic{
				File: file, Line: i + 1,
				Severity: types.SeverityError,
				Message:  strings.TrimSpace(line),
				Source:   "linecheck",
			})
		case strings.Contains(line, "WARN"):
			diags = append(diags, types.Diagnostic{
				File: file, Line: i + 1,
				Severity: types.SeverityWarning,
				Message:  strings.TrimSpace(line),
				Source:   "linecheck",
			})
		}
	}
	return diags
}

func newTestServer(t *testing.T, plugin checkers.Plugin) (*Server, *Client, string) {
	t.Helper()
	t.Setenv("DIAGD_STATE_DIR", t.TempDir())

	root := t.TempDir()
	srv, err := New(Config{
		Root:     root,
		Registry: checkers.NewRegistry(plugin),
		Dedup:    dedup.DefaultConfig(),
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(srv.Stop)

	return srv, NewClient(srv.SocketPath()), root
}

func TestServerHealth(t *testing.T) {
	srv, client, root := newTestServer(t, &linePlugin{})

	health, err := client.Health()
	require.NoError(t, err)
	assert.Equal(t, types.StateRunning, health.Status)
	assert.Equal(t, project.ID(root), health.ProjectID)
	assert.Equal(t, srv.ProjectID(), health.ProjectID)
	assert.Equal(t, root, health.Root)
	assert.Equal(t, os.Getpid(), health.PID)
	assert.False(t, health.StartedAt.IsZero())
}

func TestServerDiagnosticsFile(t *testing.T) {
	_, client, root := newTestServer(t, &linePlugin{})

	file := filepath.Join(root, "main.zz")
	require.NoError(t, os.WriteFile(file, []byte("ok\nok\nERR undefined thing\n"), 0644))

	resp, err := client.DiagnosticsFile(file, false)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, 3, resp.Diagnostics[0].Line)
	assert.Equal(t, types.SeverityError, resp.Diagnostics[0].Severity)
	assert.Equal(t, 1, resp.Counts.Errors)
	assert.Equal(t, "1 error", resp.Summary)
}

func TestServerDiagnosticsFileRelativePath(t *testing.T) {
	_, client, root := newTestServer(t, &linePlugin{})
	require.NoError(t, os.WriteFile(filepath.Join(root, "rel.zz"), []byte("WARN sketchy\n"), 0644))

	resp, err := client.DiagnosticsFile("rel.zz", false)
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, 1, resp.Counts.Warnings)
}

func TestServerCachesUnchangedFile(t *testing.T) {
	plugin := &linePlugin{}
	_, client, root := newTestServer(t, plugin)

	file := filepath.Join(root, "main.zz")
	require.NoError(t, os.WriteFile(file, []byte("ERR boom\n"), 0644))

	for i := 0; i < 3; i++ {
		resp, err := client.DiagnosticsFile(file, false)
		require.NoError(t, err)
		require.True(t, resp.Success)
		assert.Equal(t, 1, resp.Counts.Errors)
	}
	assert.Equal(t, int64(1), plugin.parses.Load(), "unchanged content runs the tool once")

	resp, err := client.DiagnosticsFile(file, true)
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, int64(2), plugin.parses.Load(), "force bypasses the cache")
}

func TestServerNotifySuppression(t *testing.T) {
	_, client, root := newTestServer(t, &linePlugin{})

	file := filepath.Join(root, "main.zz")
	require.NoError(t, os.WriteFile(file, []byte("ERR boom\n"), 0644))

	first, err := client.CheckAndDisplay(file, false)
	require.NoError(t, err)
	assert.True(t, first.Displayed, "first result is shown")

	second, err := client.CheckAndDisplay(file, false)
	require.NoError(t, err)
	assert.False(t, second.Displayed, "identical repeat stays quiet")
	assert.Equal(t, first.Counts, second.Counts, "suppression never changes the data")

	_, err = client.ResetDedup()
	require.NoError(t, err)

	third, err := client.CheckAndDisplay(file, false)
	require.NoError(t, err)
	assert.True(t, third.Displayed, "reset re-arms notification")
}

func TestServerDiagnosticsAll(t *testing.T) {
	_, client, root := newTestServer(t, &linePlugin{})

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.zz"), []byte("ERR one\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.zz"), []byte("WARN two\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("ERR not ours\n"), 0644))

	resp, err := client.Diagnostics(false)
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, 1, resp.Counts.Errors)
	assert.Equal(t, 1, resp.Counts.Warnings)
	assert.Len(t, resp.ByTool["linecheck"], 2)
	assert.Equal(t, float64(2), resp.Data["files_checked"])
}

func TestServerOverflowCap(t *testing.T) {
	_, client, root := newTestServer(t, &linePlugin{})

	var content strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&content, "ERR issue %d\n", i)
	}
	file := filepath.Join(root, "busy.zz")
	require.NoError(t, os.WriteFile(file, []byte(content.String()), 0644))

	resp, err := client.DiagnosticsFile(file, false)
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Len(t, resp.Diagnostics, 5, "display cap applies")
	assert.Equal(t, 3, resp.Overflow)
	assert.Equal(t, 8, resp.Counts.Errors, "counts reflect the full list")
}

func TestServerUnknownRequestType(t *testing.T) {
	_, client, _ := newTestServer(t, &linePlugin{})

	resp, err := client.Send(Request{Type: "bogus"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "unknown request type")
}

func TestServerShutdown(t *testing.T) {
	srv, client, _ := newTestServer(t, &linePlugin{})

	resp, err := client.Shutdown()
	require.NoError(t, err)
	assert.True(t, resp.Success)

	srv.Wait()
	_, err = os.Stat(srv.SocketPath())
	assert.True(t, os.IsNotExist(err), "socket file is removed on shutdown")

	client.SetTimeout(500 * time.Millisecond)
	_, err = client.Health()
	assert.Error(t, err, "a stopped server no longer answers")
}

func TestServerRequestIDEcho(t *testing.T) {
	_, client, _ := newTestServer(t, &linePlugin{})

	resp, err := client.Send(Request{Type: RequestHealth, RequestID: "req-42"})
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.RequestID)
}
