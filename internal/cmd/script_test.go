package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blueeyes/writer/internal/document"
	"github.com/blueeyes/writer/internal/editor"
)

func newScriptRunner(content string) (*scriptRunner, *bytes.Buffer) {
	var out bytes.Buffer
	r := &scriptRunner{
		out:      &out,
		prompter: &scriptPrompter{limits: editor.DefaultTableLimits},
		logger:   zap.NewNop(),
	}
	r.editor = editor.New(document.New("test.md", content), editor.WithPrompter(r.prompter))
	return r, &out
}

func TestScriptRunner(t *testing.T) {
	testCases := []struct {
		name   string
		script string
		want   string
	}{
		{
			name:   "RawStrong",
			script: "set 'hello world'\nselect 6 11\nselection\ndispatch strong\nprint\n",
			want:   "world\nhello **world**\n",
		},
		{
			name:   "LiveStrong",
			script: "set 'hello world'\nlive on\nselect 6 11\ndispatch strong\nhtml\nprint\n",
			want:   "<p>hello <strong>world</strong></p>\nhello **world**\n",
		},
		{
			name:   "Table",
			script: "table 1 2\nprint\n",
			want:   "\n| Header | Header |\n| --- | --- |\n| ... | ... |\n",
		},
		{
			name:   "Format",
			script: "set 'a b'\nselect 2 3\nformat '[' '](x)'\nprint\n",
			want:   "a [b](x)\n",
		},
		{
			name:   "Enter",
			script: "set ab\ncursor 1\nenter\nprint\nlive on\ncursor 1\nenter\nprint\n",
			want:   "a\nb\na\n\nb\n",
		},
		{
			name:   "History",
			script: "set one\nsave\nset two\nsave\nhistory\nrestore 1\nprint\n",
			want:   "one\ntwo\n0 two\n1 one\none\n",
		},
		{
			name:   "Comments",
			script: "# nothing happens\n\nset text # trailing\nprint\n",
			want:   "text\n",
		},
		{
			name:   "Lang",
			script: "set '```go\nlive on\nlang\n",
			want:   "(none)\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, out := newScriptRunner("")
			require.NoError(t, r.run(context.Background(), strings.NewReader(tc.script), false))
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestScriptRunner_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		script  string
		wantErr string
	}{
		{"Unknown", "bogus", `line 1: unknown command "bogus"`},
		{"Arguments", "select 1", "line 1: expected 2 arguments, got 1"},
		{"Number", "cursor x", `line 1: "x" is not a number`},
		{"Mode", "live maybe", `expected on or off, got "maybe"`},
		{"RawSurface", "html", "the editor is in raw mode"},
		{"Command", "dispatch underline", `unknown command "underline"`},
		{"NoAnswer", "dispatch table", "no answer queued for the table prompt"},
		{"TableLimits", "table 100 1", "at most 50 rows"},
		{"NoAsker", "generate text", "generate needs --asker-cmd"},
		{"Restore", "restore 0", `no history entry "0"`},
		{"LangOutsideCode", "live on\nlang go", "line 2: the caret is not in a code block"},
		{"Quote", "set 'unterminated", "line 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newScriptRunner("")
			err := r.run(context.Background(), strings.NewReader(tc.script), false)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestScriptRunner_KeepGoing(t *testing.T) {
	r, out := newScriptRunner("")
	err := r.run(context.Background(), strings.NewReader("bogus\nset after\nselect\nprint\n"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	assert.Contains(t, err.Error(), "line 3")
	assert.Equal(t, "after\n", out.String())
}

type staticAsker string

func (a staticAsker) Ask(context.Context, string) (string, error) {
	return string(a), nil
}

func TestScriptRunner_Generate(t *testing.T) {
	r, out := newScriptRunner("Intro ")
	r.asker = staticAsker("generated")

	require.NoError(t, r.run(context.Background(), strings.NewReader("generate 'say something'\nprint\n"), false))
	assert.Equal(t, "Intro generated\n", out.String())
}
