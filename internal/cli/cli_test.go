package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// envelope mirrors Response with raw data for decoding in tests.
type envelope struct {
	OK       bool            `json:"ok"`
	Data     json.RawMessage `json:"data"`
	Error    *ErrorInfo      `json:"error"`
	Warnings []Warning       `json:"warnings"`
	Meta     *Meta           `json:"meta"`
}

// resetFlags restores every flag variable and clears cobra's changed
// marks, which otherwise leak between Execute calls.
func resetFlags() {
	configPath, repoFlag, schemaFlag, indexFlag = "", "", "", ""
	jsonOutput = false
	cfg = nil

	querySkip, queryMaxItems, queryIDsOnly = 0, 0, false
	treeDepth = -1
	createType, createName, createSegment = "", "", ""
	createProps = nil
	createFile, createMime, createFrom = "", "", ""
	updateProps, updateUnset, updateName = nil, nil, ""
	deleteTree = false
	contentOutput, contentMime, contentFileName = "", "", ""
	contentOverwrite = false
	changesSince, changesLimit = "", 0

	var clear func(c *cobra.Command)
	clear = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			clear(sub)
		}
	}
	clear(rootCmd)
}

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	stdout = prev
	return buf.String(), err
}

// runJSON executes the CLI in JSON mode and decodes the envelope.
func runJSON(t *testing.T, args ...string) envelope {
	t.Helper()
	out, err := run(t, append([]string{"--json"}, args...)...)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "output: %s", out)
	return env
}

// decode unmarshals an envelope's data, requiring success.
func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	require.True(t, env.OK, "error: %+v", env.Error)
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

// newWorkspaceDir initializes a workspace in a temp dir and returns the
// path of its config file.
func newWorkspaceDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	env := runJSON(t, "init", dir)
	require.True(t, env.OK, "init failed: %+v", env.Error)
	return filepath.Join(dir, "config.toml")
}

type objectData struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	ParentID   string         `json:"parent_id"`
	Path       string         `json:"path"`
	Properties map[string]any `json:"properties"`
}

type queryData struct {
	Rows []struct {
		Columns []struct {
			Key   string `json:"key"`
			Value any    `json:"value"`
		} `json:"columns"`
		ObjectIDs []string `json:"object_ids"`
	} `json:"rows"`
	TotalCount   int  `json:"total_count"`
	HasMoreItems bool `json:"has_more_items"`
}

// column returns the values of key across rows.
func (q queryData) column(key string) []any {
	var out []any
	for _, r := range q.Rows {
		for _, c := range r.Columns {
			if c.Key == key {
				out = append(out, c.Value)
			}
		}
	}
	return out
}

// testRepository populates a fresh workspace with two folders and three
// documents and returns the config path.
//
//	/testfolder1/testfile1  File  "Noodles with rice" (text/plain)
//	/testfolder1/testfile2  File
//	/testfolder2/note1      Note
func testRepository(t *testing.T) (string, map[string]string) {
	t.Helper()
	conf := newWorkspaceDir(t)
	ids := map[string]string{}

	create := func(name string, args ...string) {
		env := runJSON(t, append([]string{"--config", conf, "create"}, args...)...)
		ids[name] = decode[objectData](t, env).ID
	}
	content := filepath.Join(t.TempDir(), "testfile.txt")
	writeFile(t, content, "Noodles with rice")

	create("testfolder1", "/", "--type", "Folder", "--name", "testfolder1", "--prop", "dc:title=testfolder1_Title")
	create("testfolder2", "/", "--type", "Folder", "--name", "testfolder2", "--prop", "dc:title=testfolder2_Title")
	create("testfile1", "/testfolder1", "--type", "File", "--name", "testfile1",
		"--prop", "dc:title=testfile1_Title", "--file", content, "--mime", "text/plain")
	create("testfile2", "/testfolder1", "--type", "File", "--name", "testfile2",
		"--prop", "dc:title=testfile2_Title", "--prop", "dc:subjects=foo", "--prop", "dc:subjects=bar")
	create("note1", "/testfolder2", "--type", "Note", "--name", "note1", "--prop", "note=some note")
	return conf, ids
}
