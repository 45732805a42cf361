package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/roach88/ziwei/internal/analysis"
	"github.com/roach88/ziwei/internal/config"
	"github.com/roach88/ziwei/internal/payload"
	"github.com/roach88/ziwei/internal/reasoner"
	"github.com/roach88/ziwei/internal/token"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type stubReasoner struct {
	content string
	err     error
	calls   atomic.Int32
	last    reasoner.Request
}

func (s *stubReasoner) Interpret(_ context.Context, req reasoner.Request) (string, error) {
	s.calls.Add(1)
	s.last = req
	return s.content, s.err
}

// testOptions points the CLI at a fresh SQLite store under t.TempDir().
func testOptions(t *testing.T, r reasoner.Reasoner) *RootOptions {
	t.Helper()
	dir := t.TempDir()
	cfg := "storage:\n" +
		"  driver: sqlite\n" +
		"  target: " + filepath.Join(dir, "ziwei.db") + "\n" +
		"log:\n" +
		"  level: error\n" +
		"chart:\n" +
		"  time_zone: UTC\n"
	path := filepath.Join(dir, "ziwei.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return &RootOptions{
		Config:   path,
		Reasoner: r,
		Clock:    token.NewFixedClock(testNow),
		IDs:      token.NewFixedGenerator("rec-1", "rec-2", "rec-3", "rec-4"),
	}
}

func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(opts)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

type testResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeData(t *testing.T, stdout string, v any) {
	t.Helper()
	var resp testResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

var zhangsan = []string{"--name", "张三", "--gender", "male", "--date", "1990-1-1", "--hour", "0"}

func args(cmd string, extra ...string) []string {
	out := []string{cmd}
	out = append(out, zhangsan...)
	return append(out, extra...)
}

func TestSaveListFind(t *testing.T) {
	opts := testOptions(t, nil)

	stdout, _, err := execute(t, opts, args("save", "--format", "json")...)
	require.NoError(t, err)
	var saved recordView
	decodeData(t, stdout, &saved)
	assert.Equal(t, "rec-1", saved.ID)
	assert.Equal(t, "张三", saved.Name)
	assert.True(t, strings.HasPrefix(saved.SolarDate, "1990-01-01"), saved.SolarDate)
	assert.False(t, saved.Interpreted)

	stdout, _, err = execute(t, opts, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "rec-1")
	assert.Contains(t, stdout, "张三")

	stdout, _, err = execute(t, opts, args("find", "--format", "json")...)
	require.NoError(t, err)
	var found recordView
	decodeData(t, stdout, &found)
	assert.Equal(t, "rec-1", found.ID)
}

func TestSaveReusesEquivalentRecord(t *testing.T) {
	opts := testOptions(t, nil)

	stdout, _, err := execute(t, opts, args("save", "--format", "json")...)
	require.NoError(t, err)
	var first saveResult
	decodeData(t, stdout, &first)
	assert.True(t, first.Created)
	assert.Equal(t, "rec-1", first.ID)

	stdout, _, err = execute(t, opts, args("save", "--format", "json")...)
	require.NoError(t, err)
	var second saveResult
	decodeData(t, stdout, &second)
	assert.False(t, second.Created)
	assert.Equal(t, "rec-1", second.ID)

	stdout, _, err = execute(t, opts, args("save")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(already saved)")

	stdout, _, err = execute(t, opts, "list", "--format", "json")
	require.NoError(t, err)
	var list []recordView
	decodeData(t, stdout, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "rec-1", list[0].ID)

	// A different hour is a different chart.
	stdout, _, err = execute(t, opts, "save", "--name", "张三", "--date", "1990-1-1", "--hour", "5", "--format", "json")
	require.NoError(t, err)
	var other saveResult
	decodeData(t, stdout, &other)
	assert.True(t, other.Created)
	assert.Equal(t, "rec-2", other.ID)
}

func TestDryRunMatchesInterpretDocument(t *testing.T) {
	r := &stubReasoner{content: "解读"}
	opts := testOptions(t, r)

	stdout, _, err := execute(t, opts, args("interpret", "--dry-run", "--palace", "财帛", "--format", "json")...)
	require.NoError(t, err)
	var dry dryRunResult
	decodeData(t, stdout, &dry)

	stdout, _, err = execute(t, opts, args("interpret", "--palace", "财帛", "--format", "json")...)
	require.NoError(t, err)
	var res interpretResult
	decodeData(t, stdout, &res)

	assert.Equal(t, dry.DocumentHash, res.DocumentHash)
	assert.Contains(t, r.last.Messages[1].Content, dry.Document)
}

func TestFindNotFound(t *testing.T) {
	opts := testOptions(t, nil)

	_, stderr, err := execute(t, opts, "find", "--name", "李四", "--date", "1991-2-3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, ErrCodeNotFound)
}

func TestDelete(t *testing.T) {
	opts := testOptions(t, nil)

	_, _, err := execute(t, opts, args("save")...)
	require.NoError(t, err)

	stdout, _, err := execute(t, opts, "delete", "rec-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "deleted rec-1 (0 remaining)")

	stdout, _, err = execute(t, opts, "list")
	require.NoError(t, err)
	assert.Equal(t, "no saved charts\n", stdout)

	// Unknown ids are not an error.
	_, _, err = execute(t, opts, "delete", "missing")
	require.NoError(t, err)
}

func TestInvalidBirthData(t *testing.T) {
	opts := testOptions(t, nil)

	_, stderr, err := execute(t, opts, "save", "--date", "1990/1/1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, ErrCodeInvalidInput)
}

func TestInvalidFormat(t *testing.T) {
	opts := testOptions(t, nil)

	_, _, err := execute(t, opts, "list", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInterpretStoresResult(t *testing.T) {
	r := &stubReasoner{content: "  命宫武曲化禄，财运稳健。\n"}
	opts := testOptions(t, r)

	stdout, _, err := execute(t, opts, args("interpret", "--palace", "财帛", "--format", "json")...)
	require.NoError(t, err)
	var res interpretResult
	decodeData(t, stdout, &res)
	assert.Equal(t, "rec-1", res.RecordID, "unsaved chart is saved first")
	assert.Equal(t, "命宫武曲化禄，财运稳健。", res.Content)
	assert.NotEmpty(t, res.Token)
	assert.Len(t, res.DocumentHash, 64)
	assert.Equal(t, int32(1), r.calls.Load())

	require.Len(t, r.last.Messages, 2)
	assert.Equal(t, payload.SystemPrompt, r.last.Messages[0].Content)
	assert.Contains(t, r.last.Messages[1].Content, "财帛")

	stdout, _, err = execute(t, opts, args("find", "--format", "json")...)
	require.NoError(t, err)
	var found recordView
	decodeData(t, stdout, &found)
	assert.True(t, found.Interpreted)
	assert.Equal(t, "命宫武曲化禄，财运稳健。", found.Interpretation)
}

func TestInterpretReusesSavedRecord(t *testing.T) {
	r := &stubReasoner{content: "解读"}
	opts := testOptions(t, r)

	_, _, err := execute(t, opts, args("save")...)
	require.NoError(t, err)

	stdout, _, err := execute(t, opts, args("interpret", "--format", "json")...)
	require.NoError(t, err)
	var res interpretResult
	decodeData(t, stdout, &res)
	assert.Equal(t, "rec-1", res.RecordID)

	stdout, _, err = execute(t, opts, "list", "--format", "json")
	require.NoError(t, err)
	var list []recordView
	decodeData(t, stdout, &list)
	require.Len(t, list, 1)
	assert.True(t, list[0].Interpreted)
}

func TestInterpretFailure(t *testing.T) {
	r := &stubReasoner{err: errors.New("upstream down")}
	opts := testOptions(t, r)

	_, stderr, err := execute(t, opts, args("interpret")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, analysis.NoticeInterpretFailed)

	// The record created before the request stays, without an interpretation.
	stdout, _, err := execute(t, opts, "list", "--format", "json")
	require.NoError(t, err)
	var list []recordView
	decodeData(t, stdout, &list)
	require.Len(t, list, 1)
	assert.False(t, list[0].Interpreted)
}

func TestInterpretDryRun(t *testing.T) {
	r := &stubReasoner{content: "unused"}
	opts := testOptions(t, r)

	stdout, _, err := execute(t, opts, args("interpret", "--dry-run", "--palace", "夫妻", "--format", "json")...)
	require.NoError(t, err)
	var res dryRunResult
	decodeData(t, stdout, &res)
	assert.Len(t, res.DocumentHash, 64)
	assert.Contains(t, res.Document, "命宫")
	assert.Contains(t, res.Document, "夫妻")
	assert.Equal(t, int32(0), r.calls.Load())

	stdout, _, err = execute(t, opts, "list")
	require.NoError(t, err)
	assert.Equal(t, "no saved charts\n", stdout, "dry run saves nothing")
}

func TestInterpretUnknownPalace(t *testing.T) {
	opts := testOptions(t, &stubReasoner{content: "x"})

	_, _, err := execute(t, opts, args("interpret", "--palace", "不存在")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSettingsGetSet(t *testing.T) {
	opts := testOptions(t, nil)

	stdout, _, err := execute(t, opts, "settings", "get")
	require.NoError(t, err)
	assert.Contains(t, stdout, "algorithm = default")
	assert.Contains(t, stdout, "horoscopeDivide = exact")

	_, _, err = execute(t, opts, "settings", "set", "algorithm", "zhongzhou")
	require.NoError(t, err)
	_, _, err = execute(t, opts, "settings", "set", "hideHoroscope", "true")
	require.NoError(t, err)

	stdout, _, err = execute(t, opts, "settings", "get")
	require.NoError(t, err)
	assert.Contains(t, stdout, "algorithm = zhongzhou")
	assert.Contains(t, stdout, "hideHoroscope = true")
}

func TestSettingsSetRejects(t *testing.T) {
	opts := testOptions(t, nil)

	_, _, err := execute(t, opts, "settings", "set", "colour", "red")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(t, opts, "settings", "set", "algorithm", "western")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	stdout, _, err := execute(t, opts, "settings", "get")
	require.NoError(t, err)
	assert.Contains(t, stdout, "algorithm = default")
}

func TestExportICS(t *testing.T) {
	opts := testOptions(t, nil)

	_, _, err := execute(t, opts, args("save")...)
	require.NoError(t, err)

	stdout, _, err := execute(t, opts, "export-ics")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "BEGIN:VCALENDAR"))
	assert.Contains(t, stdout, "SUMMARY:张三")
	assert.Contains(t, stdout, "RRULE:FREQ=YEARLY")

	out := filepath.Join(t.TempDir(), "birthdays.ics")
	stdout, _, err = execute(t, opts, "export-ics", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "exported 1 chart(s)")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:张三")
}

func TestAuthSetKey(t *testing.T) {
	keyring.MockInit()

	_, _, err := execute(t, &RootOptions{}, "auth", "set-key", "sk-test")
	require.NoError(t, err)
	got, err := keyring.Get(config.KeyringService, config.KeyringUser)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", got)

	cmd := newRootCommand(&RootOptions{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("sk-stdin\n"))
	cmd.SetArgs([]string{"auth", "set-key"})
	require.NoError(t, cmd.Execute())
	got, err = keyring.Get(config.KeyringService, config.KeyringUser)
	require.NoError(t, err)
	assert.Equal(t, "sk-stdin", got)
}
