package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dendrascience/linkcache/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func esc(u string) string {
	return strings.ReplaceAll(u, "/", `\/`)
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "linkcache version "), out)
}

func TestRewriteCmd_WithoutDownloads(t *testing.T) {
	data := t.TempDir()
	cache := filepath.Join(t.TempDir(), "content")
	textfile := filepath.Join(t.TempDir(), "linkcache.prom")

	content := `{"thumb_64": "` + esc("https://files.slack.com/files-tmb/T1-F1/a_64.png") + `",` + "\r\n" +
		`"from_url": "` + esc("https://example.com/x") + `"}` + "\n"
	writeFile(t, filepath.Join(data, "general", "2020-01-01.json"), content)
	writeFile(t, filepath.Join(data, "notes.txt"), "ignored\n")

	out, err := execute(t, "rewrite", data,
		"--cache-dir", cache,
		"--log-level", "error",
		"--no-color",
		"--metrics-textfile", textfile,
	)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(data, "general", "2020-01-01.json.downloaded"))
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(content, "\r\n", "\n"), string(got))
	assert.NoFileExists(t, filepath.Join(data, "notes.txt.downloaded"))

	assert.Contains(t, out, filepath.Join(data, "general", "2020-01-01.json"))
	assert.Contains(t, out, "Done: 1 files")

	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "linkcache_files_processed_total 1")
	assert.Contains(t, string(prom), "linkcache_urls_skipped_total 1")
}

func TestRewriteCmd_FailsOnInvalidInput(t *testing.T) {
	data := t.TempDir()
	writeFile(t, filepath.Join(data, "bad.json"), "\xff\n")

	_, err := execute(t, "rewrite", data, "--cache-dir", filepath.Join(t.TempDir(), "c"), "--log-level", "error")
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrDecode)
}

func TestRewriteCmd_RejectsOverlappingCache(t *testing.T) {
	data := t.TempDir()
	_, err := execute(t, "rewrite", data, "--cache-dir", filepath.Join(data, "content"))
	assert.Error(t, err)
}

func TestScanCmd(t *testing.T) {
	data := t.TempDir()
	cache := filepath.Join(t.TempDir(), "content")
	download := "https://files.slack.com/files-pri/T1-F1/download/a.png"
	writeFile(t, filepath.Join(data, "c", "day.json"),
		"[\n"+
			`{"url_private_download": "`+esc(download)+`", "thumb_64": "`+esc("https://files.slack.com/t.png")+`"},`+"\n"+
			`{"url_private_download": "`+esc(download+"?t=1")+`"}`+"\n"+
			"]\n")

	out, err := execute(t, "scan", data, "--cache-dir", cache, "--log-level", "error", "--skipped")
	require.NoError(t, err)

	path := filepath.Join(data, "c", "day.json")
	h := util.GetStringHash(download)
	cachePath := filepath.ToSlash(cache) + "/" + h[:3] + "/" + h[3:] + ".png"
	assert.Contains(t, out, fmt.Sprintf("%s:2: url_private_download %s -> %s", path, download, cachePath))
	assert.Contains(t, out, fmt.Sprintf("%s:3: url_private_download %s -> %s", path, download, cachePath))
	assert.Contains(t, out, "(skipped)")
	assert.Contains(t, out, "1 files, 2 URLs to rewrite (1 unique), 1 skipped")

	assert.NoDirExists(t, cache)
	assert.NoFileExists(t, path+".downloaded")
}

func TestResolveCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image"))
	}))
	defer srv.Close()

	cache := filepath.Join(t.TempDir(), "content")
	raw := srv.URL + "/img/a.gif?size=large"

	out, err := execute(t, "resolve", "--dry-run", "--cache-dir", cache, "--log-level", "error", raw)
	require.NoError(t, err)
	h := util.GetStringHash(srv.URL + "/img/a.gif")
	cachePath := filepath.ToSlash(cache) + "/" + h[:3] + "/" + h[3:] + ".gif"
	assert.Equal(t, srv.URL+"/img/a.gif\t"+cachePath+"\n", out)
	assert.NoDirExists(t, cache)

	out, err = execute(t, "resolve", "--cache-dir", cache, "--log-level", "error", esc(raw))
	require.NoError(t, err)
	assert.Contains(t, out, `"`+esc(cachePath)+`#`)

	data, err := os.ReadFile(filepath.FromSlash(cachePath))
	require.NoError(t, err)
	assert.Equal(t, "image", string(data))
}

func TestVerifyCache(t *testing.T) {
	root := t.TempDir()
	good := util.HashPathFromHash(util.GetStringHash("a"), ".png")
	empty := util.HashPathFromHash(util.GetStringHash("b"), "")
	writeFile(t, filepath.Join(root, filepath.FromSlash(good)), "data")
	writeFile(t, filepath.Join(root, filepath.FromSlash(empty)), "")
	writeFile(t, filepath.Join(root, "abc", "not-a-hash.png"), "x")

	var out bytes.Buffer
	report, err := verifyCache(&out, root, true, false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.files)
	assert.Equal(t, []string{"abc/not-a-hash.png"}, report.invalid)
	assert.Equal(t, []string{empty}, report.empty)
	assert.Error(t, report.err())
	assert.Contains(t, out.String(), "ok: "+good)
	assert.FileExists(t, filepath.Join(root, filepath.FromSlash(empty)))

	require.NoError(t, os.RemoveAll(filepath.Join(root, "abc")))
	out.Reset()
	report, err = verifyCache(&out, root, false, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.removed)
	assert.NoError(t, report.err())
	assert.NoFileExists(t, filepath.Join(root, filepath.FromSlash(empty)))
	assert.FileExists(t, filepath.Join(root, filepath.FromSlash(good)))
}

func TestVerifyCmd_MissingDir(t *testing.T) {
	_, err := execute(t, "verify", "--path", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, util.ErrFileSystem)
}

func TestCountCmd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), "{}")
	writeFile(t, filepath.Join(root, "d", "b.json"), "{}")
	writeFile(t, filepath.Join(root, "d", "c.txt"), "")

	out, err := execute(t, "count", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Total files: 3")
	assert.Contains(t, out, "Matching .json files: 2")
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	opts := seedOptions{channels: 2, days: 3, messages: 10, users: 4, seed: 42}

	stats, err := generateExport(dir, opts)
	require.NoError(t, err)
	assert.Equal(t, 2+2*3, stats.files)

	users, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.Contains(t, string(users), `"image_72": "https:\/\/`)
	assert.NotContains(t, string(users), "https://")

	again := t.TempDir()
	_, err = generateExport(again, opts)
	require.NoError(t, err)
	for _, name := range []string{"users.json", "channels.json"} {
		a, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(again, name))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), name)
	}

	_, err = generateExport(t.TempDir(), seedOptions{})
	assert.Error(t, err)
}

func TestSeedThenScan(t *testing.T) {
	data := t.TempDir()
	_, err := generateExport(data, seedOptions{channels: 1, days: 5, messages: 20, users: 3, seed: 7})
	require.NoError(t, err)

	out, err := execute(t, "scan", data, "--cache-dir", filepath.Join(t.TempDir(), "content"), "--log-level", "error", "--skipped")
	require.NoError(t, err)
	// Every user has avatars on the media hosts, even if only in skipped fields.
	assert.Contains(t, out, "users.json:")
	assert.Contains(t, out, "7 files")
}
