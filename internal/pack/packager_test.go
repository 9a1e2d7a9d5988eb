// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pack_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/aibor/assetpack/internal/archive"
	"github.com/aibor/assetpack/internal/minify"
	"github.com/aibor/assetpack/internal/pack"
	"github.com/cavaliergopher/cpio"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scriptSource     = "function add ( a , b ) {\n  return a + b ;\n}\n"
	stylesheetSource = "body {\n  color : red ;\n}\n"
	textSource       = "some  text   that stays   as it is\n"
)

var errAlwaysFails = errors.New("always fails")

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func readZipFile(t *testing.T, path string) map[string][]byte {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = reader.Close() })

	entries := make(map[string][]byte, len(reader.File))

	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)

		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		entries[file.Name] = body
	}

	return entries
}

func entryNames(entries map[string][]byte) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}

	return names
}

func newRegistry(t *testing.T, transforms map[string]minify.Transform) *minify.Registry {
	t.Helper()

	registry, err := minify.NewRegistry(transforms)
	require.NoError(t, err)

	return registry
}

func newPackager(t *testing.T, root string) (*pack.Packager, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	return &pack.Packager{
		Root:     root,
		Output:   filepath.Join(t.TempDir(), "build.zip"),
		Excludes: pack.NewExclusionSet(pack.DefaultExcludes...),
		Registry: newRegistry(t, minify.Builtins(minify.Script())),
		Console:  pack.NewConsole(&out, false),
		Logger:   slog.New(slog.DiscardHandler),
	}, &out
}

func failingTransform(context.Context, []byte) ([]byte, error) {
	return nil, errAlwaysFails
}

func TestPackager_Run(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.js":          scriptSource,
		"b.css":         stylesheetSource,
		"c.txt":         textSource,
		"build/old.zip": "stale archive",
	})

	packager, out := newPackager(t, root)

	summary, err := packager.Run(t.Context())
	require.NoError(t, err)

	expectedScript, err := minify.Script()(t.Context(), []byte(scriptSource))
	require.NoError(t, err)

	expectedStylesheet, err := minify.Stylesheet()(t.Context(), []byte(stylesheetSource))
	require.NoError(t, err)

	expected := map[string][]byte{
		"a.js":  expectedScript,
		"b.css": expectedStylesheet,
		"c.txt": []byte(textSource),
	}

	assert.Equal(t, expected, readZipFile(t, packager.Output))

	info, err := os.Stat(packager.Output)
	require.NoError(t, err)

	projectSize, err := pack.DirSize(root)
	require.NoError(t, err)

	_, err = uuid.Parse(summary.RunID)
	require.NoError(t, err, "run ID")

	assert.Equal(t, packager.Output, summary.Archive)
	assert.Equal(t, info.Size(), summary.ArchiveSize)
	assert.Equal(t, projectSize, summary.ProjectSize)
	assert.Equal(t, int64(3), summary.Added)
	assert.Equal(t, int64(1), summary.Skipped)
	assert.Zero(t, summary.Failed)

	expectedOutput := "Adding a.js\n" +
		"Adding b.css\n" +
		"Skipping build\n" +
		"Adding c.txt\n" +
		"====================\n" +
		"Build complete\n" +
		fmt.Sprintf("Build size zipped: %.3f mb\n", pack.Megabytes(info.Size())) +
		fmt.Sprintf("Project size: %.3f mb\n", pack.Megabytes(projectSize))

	assert.Equal(t, expectedOutput, out.String())
}

func TestPackager_Run_FailurePolicy(t *testing.T) {
	files := map[string]string{
		"a.js":  scriptSource,
		"b.css": stylesheetSource,
		"c.txt": textSource,
	}

	tests := []struct {
		name            string
		policy          minify.FailurePolicy
		expectedEntries map[string][]byte
		expectedFailed  []string
	}{
		{
			name:   "default aborts",
			policy: "",
			expectedEntries: map[string][]byte{
				"b.css": []byte(stylesheetSource),
				"c.txt": []byte(textSource),
			},
			expectedFailed: []string{"a.js"},
		},
		{
			name:   "abort",
			policy: minify.FailurePolicyAbort,
			expectedEntries: map[string][]byte{
				"b.css": []byte(stylesheetSource),
				"c.txt": []byte(textSource),
			},
			expectedFailed: []string{"a.js"},
		},
		{
			name:   "fallback",
			policy: minify.FailurePolicyFallback,
			expectedEntries: map[string][]byte{
				"a.js":  []byte(scriptSource),
				"b.css": []byte(stylesheetSource),
				"c.txt": []byte(textSource),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, files)

			packager, _ := newPackager(t, root)
			packager.Policy = tt.policy
			packager.Registry = newRegistry(t, map[string]minify.Transform{
				".js": failingTransform,
			})

			summary, err := packager.Run(t.Context())

			if tt.expectedFailed != nil {
				var runErr *pack.RunError
				require.ErrorAs(t, err, &runErr)
				require.ErrorIs(t, err, errAlwaysFails)
				assert.Equal(t, tt.expectedFailed, runErr.Paths())
			} else {
				require.NoError(t, err)
			}

			require.NotNil(t, summary, "summary")
			assert.Len(t, tt.expectedFailed, summary.Failed)
			assert.Equal(t, tt.expectedEntries, readZipFile(t, packager.Output))
		})
	}
}

func TestPackager_Run_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.html":          "<html> <body>  <p> hello </p> </body> </html>",
		"js/app.js":           scriptSource,
		"js/vendor/lib.js":    scriptSource,
		"css/main.css":        stylesheetSource,
		"img/logo.svg":        "<svg></svg>",
		"sources/raw.js":      scriptSource,
		"deep/a/b/c/d/e.json": `{"a": 1}`,
	})

	var results []map[string][]byte

	for range 2 {
		packager, _ := newPackager(t, root)

		_, err := packager.Run(t.Context())
		require.NoError(t, err)

		results = append(results, readZipFile(t, packager.Output))
	}

	assert.Equal(t, results[0], results[1])
	assert.ElementsMatch(t, []string{
		"index.html",
		"js/app.js",
		"js/vendor/lib.js",
		"css/main.css",
		"img/logo.svg",
		"deep/a/b/c/d/e.json",
	}, entryNames(results[0]))
}

func TestPackager_Run_Exclusion(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.txt":               "keep",
		"vendor/lib.txt":         "vendor",
		"vendor/nested/deep.txt": "deep",
		"assets/skip.txt":        "skip",
		"assets/keep.txt":        "keep",
		"other/vendor/kept.txt":  "kept",
	})

	// Make the excluded directory unreadable so descending into it fails.
	require.NoError(t, os.Chmod(filepath.Join(root, "vendor", "nested"), 0o000))
	t.Cleanup(func() {
		_ = os.Chmod(filepath.Join(root, "vendor", "nested"), 0o755)
	})

	packager, out := newPackager(t, root)
	packager.Excludes = pack.NewExclusionSet("vendor/", `assets\skip.txt`)

	summary, err := packager.Run(t.Context())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"keep.txt",
		"assets/keep.txt",
		"other/vendor/kept.txt",
	}, entryNames(readZipFile(t, packager.Output)))

	assert.Equal(t, int64(2), summary.Skipped)
	assert.Contains(t, out.String(), "Skipping vendor\n")
	assert.Contains(t, out.String(), "Skipping assets/skip.txt\n")
	assert.NotContains(t, out.String(), "vendor/lib.txt")
}

func TestPackager_Run_OutputInsideRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.txt":          "app",
		"dist/previous.gz": "previous",
	})

	packager, out := newPackager(t, root)
	packager.Output = filepath.Join(root, "dist", "app.zip")
	packager.Excludes = nil

	_, err := packager.Run(t.Context())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"app.txt",
		"dist/previous.gz",
	}, entryNames(readZipFile(t, packager.Output)))
	assert.Contains(t, out.String(), "Skipping dist/app.zip\n")
	assert.NotContains(t, out.String(), "Skipping dist\n")
}

func TestPackager_Run_OutputInContentDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"index.txt":      "index",
		"assets/app.txt": "app",
		"assets/b.txt":   "b",
	})

	packager, out := newPackager(t, root)
	packager.Output = filepath.Join(root, "assets", "bundle.zip")

	summary, err := packager.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, map[string][]byte{
		"index.txt":      []byte("index"),
		"assets/app.txt": []byte("app"),
		"assets/b.txt":   []byte("b"),
	}, readZipFile(t, packager.Output))
	assert.Equal(t, int64(1), summary.Skipped)
	assert.Contains(t, out.String(), "Skipping assets/bundle.zip\n")
	assert.NotContains(t, out.String(), "Skipping assets\n")
}

func TestPackager_Run_RunID(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})

	var logs bytes.Buffer

	packager, _ := newPackager(t, root)
	packager.RunID = "fixed-run"
	packager.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	summary, err := packager.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "fixed-run", summary.RunID)
	assert.Contains(t, logs.String(), "run_id=fixed-run")
}

func TestPackager_Run_OutputInRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.txt": "app",
	})

	packager, out := newPackager(t, root)
	packager.Output = filepath.Join(root, "app.zip")
	packager.Excludes = nil

	_, err := packager.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []string{"app.txt"}, entryNames(readZipFile(t, packager.Output)))
	assert.Contains(t, out.String(), "Skipping app.zip\n")
}

func TestPackager_Run_Passthrough(t *testing.T) {
	root := t.TempDir()

	binary := make([]byte, 4096)
	for idx := range binary {
		binary[idx] = byte(idx * 7)
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "image.png"), binary, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "run.sh"), []byte("#!/bin/sh\n"), 0o644))
	require.NoError(t, os.Chmod(filepath.Join(root, "run.sh"), 0o755))

	modTime := time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(root, "run.sh"), modTime, modTime))

	packager, _ := newPackager(t, root)

	_, err := packager.Run(t.Context())
	require.NoError(t, err)

	reader, err := zip.OpenReader(packager.Output)
	require.NoError(t, err)

	defer reader.Close()

	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)

		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		switch file.Name {
		case "image.png":
			assert.Equal(t, binary, content)
		case "run.sh":
			assert.Equal(t, "#!/bin/sh\n", string(content))
			assert.Equal(t, fs.FileMode(0o755), file.Mode().Perm(), "mode")
			assert.True(t, modTime.Equal(file.Modified.UTC()), "modified")
		default:
			t.Errorf("unexpected entry %s", file.Name)
		}
	}
}

func TestPackager_Run_Symlinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"target.txt":   "target",
		"dir/file.txt": "file",
	})

	require.NoError(t, os.Symlink("target.txt", filepath.Join(root, "file-link")))
	require.NoError(t, os.Symlink("dir", filepath.Join(root, "dir-link")))
	require.NoError(t, os.Symlink("missing", filepath.Join(root, "dangling")))

	packager, _ := newPackager(t, root)

	summary, err := packager.Run(t.Context())

	var runErr *pack.RunError
	require.ErrorAs(t, err, &runErr)
	assert.ElementsMatch(t, []string{"dir-link", "dangling"}, runErr.Paths())
	require.ErrorIs(t, err, archive.ErrNotRegularFile)
	require.ErrorIs(t, err, fs.ErrNotExist)

	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.Failed)

	assert.Equal(t, map[string][]byte{
		"target.txt":   []byte("target"),
		"file-link":    []byte("target"),
		"dir/file.txt": []byte("file"),
	}, readZipFile(t, packager.Output))
}

func TestPackager_Run_UnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.txt":         "ok",
		"locked/one.txt": "one",
	})

	require.NoError(t, os.Chmod(filepath.Join(root, "locked"), 0o000))
	t.Cleanup(func() {
		_ = os.Chmod(filepath.Join(root, "locked"), 0o755)
	})

	packager, _ := newPackager(t, root)

	_, err := packager.Run(t.Context())

	var runErr *pack.RunError
	require.ErrorAs(t, err, &runErr)
	require.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, []string{"locked"}, runErr.Paths())
	assert.Equal(t, []string{"ok.txt"}, entryNames(readZipFile(t, packager.Output)))
}

func TestPackager_Run_FanOut(t *testing.T) {
	const (
		dirs        = 5
		filesPerDir = 60
	)

	root := t.TempDir()
	files := make(map[string]string, dirs*filesPerDir)

	for dir := range dirs {
		for file := range filesPerDir {
			name := fmt.Sprintf("d%d/sub/f%03d.js", dir, file)
			files[name] = fmt.Sprintf("var value%d = %d ;", file, file)
		}
	}

	writeTree(t, root, files)

	for _, jobs := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("jobs %d", jobs), func(t *testing.T) {
			var active, maxActive atomic.Int64

			countingTransform := func(_ context.Context, src []byte) ([]byte, error) {
				current := active.Add(1)
				defer active.Add(-1)

				for {
					peak := maxActive.Load()
					if current <= peak || maxActive.CompareAndSwap(peak, current) {
						break
					}
				}

				time.Sleep(100 * time.Microsecond)

				return bytes.ToUpper(src), nil
			}

			packager, _ := newPackager(t, root)
			packager.Jobs = jobs
			packager.Console = nil
			packager.Registry = newRegistry(t, map[string]minify.Transform{
				".JS": countingTransform,
			})

			summary, err := packager.Run(t.Context())
			require.NoError(t, err)

			entries := readZipFile(t, packager.Output)
			require.Len(t, entries, len(files))
			assert.Equal(t, int64(len(files)), summary.Added)

			for name, content := range files {
				assert.Equal(t, strings.ToUpper(content), string(entries[name]), name)
			}

			if jobs > 0 {
				assert.LessOrEqual(t, maxActive.Load(), int64(jobs))
			}
		})
	}
}

func TestPackager_Run_CPIO(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.css":     stylesheetSource,
		"sub/b.txt": textSource,
	})

	packager, _ := newPackager(t, root)
	packager.Format = archive.FormatCPIO
	packager.Output = filepath.Join(t.TempDir(), "build.cpio")

	_, err := packager.Run(t.Context())
	require.NoError(t, err)

	file, err := os.Open(packager.Output)
	require.NoError(t, err)

	defer file.Close()

	expectedStylesheet, err := minify.Stylesheet()(t.Context(), []byte(stylesheetSource))
	require.NoError(t, err)

	entries := map[string][]byte{}
	reader := cpio.NewReader(file)

	for {
		hdr, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		content, err := io.ReadAll(reader)
		require.NoError(t, err)

		entries[hdr.Name] = content
	}

	assert.Equal(t, map[string][]byte{
		"a.css":     expectedStylesheet,
		"sub/b.txt": []byte(textSource),
	}, entries)
}

func TestPackager_Run_Canceled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "a"})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	packager, _ := newPackager(t, root)

	_, err := packager.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, packager.Output, "archive is kept")
}

func TestPackager_Run_Errors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"file": "content"})

	tests := []struct {
		name        string
		modify      func(p *pack.Packager)
		expectedErr error
	}{
		{
			name:        "no output",
			modify:      func(p *pack.Packager) { p.Output = "" },
			expectedErr: pack.ErrNoOutput,
		},
		{
			name:        "missing root",
			modify:      func(p *pack.Packager) { p.Root = filepath.Join(root, "missing") },
			expectedErr: fs.ErrNotExist,
		},
		{
			name:        "root is file",
			modify:      func(p *pack.Packager) { p.Root = filepath.Join(root, "file") },
			expectedErr: pack.ErrRootNotDirectory,
		},
		{
			name:        "invalid format",
			modify:      func(p *pack.Packager) { p.Format = "tar" },
			expectedErr: archive.ErrFormatInvalid,
		},
		{
			name: "output not creatable",
			modify: func(p *pack.Packager) {
				p.Output = filepath.Join(root, "file", "build.zip")
			},
			expectedErr: syscall.ENOTDIR,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packager, _ := newPackager(t, root)
			tt.modify(packager)

			summary, err := packager.Run(t.Context())
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Nil(t, summary)
		})
	}
}
