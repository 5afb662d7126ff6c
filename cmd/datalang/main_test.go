package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/datalang/adapters/source"
	"github.com/artpar/datalang/app"
)

const userSource = `term Name {}

User {
    #[length < 10]
    name
    #[not_empty]
    email
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(append(args, "--log-level", "error"))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "datalang dev")
	assert.Contains(t, out, "commit:")
}

func TestCompile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.dl")
	writeFile(t, path, userSource)

	out, _, err := execute(t, "compile", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"User"`)
	assert.NotContains(t, out, "==>", "a single file has no banner")

	out, _, err = execute(t, "compile", path, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: User")

	_, _, err = execute(t, "compile", path, "--format", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestCompile_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.dl"), "term A {}\n")
	writeFile(t, filepath.Join(dir, "b.dl"), "term B {}\n")

	out, _, err := execute(t, "compile", dir, "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "==> "+filepath.Join(dir, "a.dl")+" <==")
	assert.Contains(t, out, "==> "+filepath.Join(dir, "b.dl")+" <==")
}

func TestGenerate_Stdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.dl")
	writeFile(t, path, userSource)

	out, _, err := execute(t, "generate", path, "--package", "entities")
	require.NoError(t, err)
	assert.Contains(t, out, "package entities")
	assert.Contains(t, out, "func (u *User) ValidateName() error {")
}

func TestGenerate_OutputMirrorsTree(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "user.dl"), userSource)
	writeFile(t, filepath.Join(src, "billing", "invoice.dl"), "term Invoice {}\n")
	outDir := t.TempDir()

	out, _, err := execute(t, "generate", src, "--output", outDir, "--target", "celrules")
	require.NoError(t, err)

	for _, rel := range []string{"user.rules.yaml", filepath.Join("billing", "invoice.rules.yaml")} {
		_, statErr := os.Stat(filepath.Join(outDir, rel))
		assert.NoError(t, statErr, rel)
	}
	assert.Contains(t, out, "-> "+filepath.Join(outDir, "user.rules.yaml"))
}

func TestGenerate_TwoDirsKeepSameNamedFiles(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a", "user.dl"), "term Alpha {}\n")
	writeFile(t, filepath.Join(src, "b", "user.dl"), "term Beta {}\n")
	outDir := t.TempDir()

	_, _, err := execute(t, "generate", filepath.Join(src, "a"), filepath.Join(src, "b"), "--output", outDir)
	require.NoError(t, err)

	for _, rel := range []string{filepath.Join("a", "user.go"), filepath.Join("b", "user.go")} {
		_, statErr := os.Stat(filepath.Join(outDir, rel))
		assert.NoError(t, statErr, rel)
	}
}

func TestGenerate_UnknownTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.dl")
	writeFile(t, path, userSource)

	_, _, err := execute(t, "generate", path, "--target", "cobol")
	assert.ErrorContains(t, err, "cobol")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.dl")
	bad := filepath.Join(dir, "bad.dl")
	writeFile(t, good, userSource)
	writeFile(t, bad, "fn Foo { }\n")

	out, _, err := execute(t, "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, checkMark+" "+good+" (2 entities, 7 lines)")

	out, _, err = execute(t, "check", dir)
	require.Error(t, err)
	assert.EqualError(t, err, "1 of 2 files failed")
	assert.Contains(t, out, crossMark+" "+bad)
	assert.Contains(t, out, bad+":1:")
	assert.Contains(t, out, "Invalid keyword 'fn'. Did you mean 'term'?")
	assert.Contains(t, out, "      fn Foo { }\n      ^\n")
}

func TestCaretPad(t *testing.T) {
	assert.Equal(t, "", caretPad("fn Foo", 1))
	assert.Equal(t, "   ", caretPad("fn Foo", 4))
	assert.Equal(t, "\t  ", caretPad("\tfn Foo", 4))
	assert.Equal(t, "  ", caretPad("ab", 9))
}

func TestCheck_NoFiles(t *testing.T) {
	_, _, err := execute(t, "check", filepath.Join(t.TempDir(), "*.dl"))
	assert.ErrorContains(t, err, "no files match pattern")
}

func TestTargets(t *testing.T) {
	out, _, err := execute(t, "targets")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, out, "go *")
	assert.Contains(t, out, ".go")
}

func TestConfigFlag(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "ci.yaml")
	writeFile(t, cfg, "compiler:\n  default_target: json\n")
	path := filepath.Join(dir, "user.dl")
	writeFile(t, path, userSource)

	out, _, err := execute(t, "generate", path, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"entities"`)

	_, _, err = execute(t, "targets", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSourceWatcher(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "user.dl")
	writeFile(t, first, userSource)

	svc, err := app.NewCompileService(app.Settings{DefaultTarget: "go", Package: "models"}, app.CompileServiceConfig{}, zerolog.Nop())
	require.NoError(t, err)

	out := &syncBuffer{}
	w := &sourceWatcher{
		batch:    app.NewBatch(svc, source.Loader{}),
		root:     dir,
		out:      out,
		logger:   zerolog.Nop(),
		debounce: 10 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), checkMark+" "+first)
	}, 5*time.Second, 10*time.Millisecond, "initial build")

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(50 * time.Millisecond)
	broken := filepath.Join(sub, "broken.dl")
	writeFile(t, broken, "fn Foo { }\n")

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), crossMark+" "+broken)
	}, 5*time.Second, 10*time.Millisecond, "rebuild after change")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
