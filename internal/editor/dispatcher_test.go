package editor

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueeyes/writer/internal/document"
	"github.com/blueeyes/writer/internal/richtext"
)

type fakePrompter struct {
	size  TableSize
	image ImageRef
	err   error

	tableCalls int
	imageCalls int
}

func (p *fakePrompter) PromptTable(_ context.Context, defaults TableSize) (TableSize, error) {
	p.tableCalls++
	if p.err != nil {
		return TableSize{}, p.err
	}
	if p.size == (TableSize{}) {
		return defaults, nil
	}
	return p.size, nil
}

func (p *fakePrompter) PromptImage(context.Context) (ImageRef, error) {
	p.imageCalls++
	return p.image, p.err
}

func newRawEditor(t *testing.T, content string, opts ...Option) *Editor {
	t.Helper()
	opts = append([]Option{WithPlaceholders(DefaultPlaceholders), WithTableSize(DefaultTableSize)}, opts...)
	return New(document.New("test.md", content), opts...)
}

func TestParseCommand(t *testing.T) {
	for cmd, name := range commandNames {
		parsed, err := ParseCommand(name)
		require.NoError(t, err)
		assert.Equal(t, cmd, parsed)
		assert.Equal(t, name, cmd.String())
	}

	_, err := ParseCommand("underline")
	assert.Error(t, err)
	assert.Equal(t, "unknown", Command(100).String())
}

func TestDispatcher_RawInline(t *testing.T) {
	ed := newRawEditor(t, "hello world")
	ed.Buffer().Select(6, 11)

	require.NoError(t, ed.Dispatch(context.Background(), CommandStrong))
	assert.Equal(t, "hello **world**", ed.Content())
	assert.Equal(t, 15, ed.Buffer().Cursor())
	assert.True(t, ed.Buffer().Selection().Empty())

	ed.Buffer().SetCursor(0)
	require.NoError(t, ed.Dispatch(context.Background(), CommandEmphasis))
	assert.Equal(t, "**hello **world**", ed.Content())
	assert.Equal(t, 2, ed.Buffer().Cursor())
}

func TestDispatcher_RawLinePrefix(t *testing.T) {
	testCases := []struct {
		name       string
		content    string
		start, end int
		cmd        Command
		want       string
		cursor     int
	}{
		{"Heading1", "first\nsecond", 8, 8, CommandHeading1, "first\n# second", 10},
		{"Heading2", "line", 0, 4, CommandHeading2, "## line", 7},
		{"Heading3", "line", 2, 2, CommandHeading3, "### line", 6},
		{"UnorderedList", "item", 4, 4, CommandUnorderedList, "- item", 6},
		{"OrderedList", "a\nitem", 3, 4, CommandOrderedList, "a\n1. item", 7},
		{"Paragraph", "## title", 5, 5, CommandParagraph, "title", 2},
		{"ParagraphNoHeading", "title", 2, 2, CommandParagraph, "title", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ed := newRawEditor(t, tc.content)
			ed.Buffer().Select(tc.start, tc.end)

			require.NoError(t, ed.Dispatch(context.Background(), tc.cmd))
			assert.Equal(t, tc.want, ed.Content())
			assert.Equal(t, tc.cursor, ed.Buffer().Cursor())
		})
	}
}

func TestDispatcher_RawCodeBlock(t *testing.T) {
	testCases := []struct {
		name       string
		content    string
		start, end int
		want       string
	}{
		{"WholeLine", "code", 0, 4, "```\ncode\n```"},
		{"MidLine", "a code b", 2, 6, "a \n```\ncode\n```\n b"},
		{"BeforeNewline", "code\nnext", 0, 4, "```\ncode\n```\nnext"},
		{"Empty", "", 0, 0, "```\n\n```"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ed := newRawEditor(t, tc.content)
			ed.Buffer().Select(tc.start, tc.end)

			require.NoError(t, ed.Dispatch(context.Background(), CommandCodeBlock))
			assert.Equal(t, tc.want, ed.Content())
		})
	}
}

func TestDispatcher_RawTable(t *testing.T) {
	for _, size := range []TableSize{{Rows: 1, Cols: 1}, {Rows: 3, Cols: 2}, {Rows: 5, Cols: 4}} {
		p := &fakePrompter{size: size}
		ed := newRawEditor(t, "", WithPrompter(p))

		require.NoError(t, ed.Dispatch(context.Background(), CommandTable))
		assert.Equal(t, 1, p.tableCalls)

		lines := strings.Split(strings.Trim(ed.Content(), "\n"), "\n")
		require.Len(t, lines, 1+1+size.Rows)
		for _, line := range lines {
			assert.Equal(t, size.Cols+1, strings.Count(line, "|"), line)
		}
		assert.Equal(t, ed.Buffer().Len(), ed.Buffer().Cursor())
	}
}

func TestDispatcher_PromptCanceled(t *testing.T) {
	p := &fakePrompter{err: ErrPromptCanceled}
	ed := newRawEditor(t, "text", WithPrompter(p))

	require.NoError(t, ed.Dispatch(context.Background(), CommandTable))
	require.NoError(t, ed.Dispatch(context.Background(), CommandImage))
	assert.Equal(t, "text", ed.Content())
	assert.Equal(t, 1, p.tableCalls)
	assert.Equal(t, 1, p.imageCalls)
}

func TestDispatcher_PromptError(t *testing.T) {
	p := &fakePrompter{err: errors.New("boom")}
	ed := newRawEditor(t, "text", WithPrompter(p))

	err := ed.Dispatch(context.Background(), CommandTable)
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, "text", ed.Content())

	err = newRawEditor(t, "").Dispatch(context.Background(), CommandImage)
	assert.ErrorContains(t, err, "no prompter")
}

func TestDispatcher_RawImage(t *testing.T) {
	p := &fakePrompter{image: ImageRef{Name: "cat.png", Path: "img/cat.png"}}
	ed := newRawEditor(t, "see here", WithPrompter(p))
	ed.Buffer().Select(4, 8)

	require.NoError(t, ed.Dispatch(context.Background(), CommandImage))
	want := "see \n![cat.png](img/cat.png)\n"
	assert.Equal(t, want, ed.Content())
	assert.Equal(t, len([]rune(want)), ed.Buffer().Cursor())

	ed.Buffer().SetCursor(0)
	ed.InsertFormat("\n![dog.png](dog.png)\n", "")
	assert.True(t, strings.HasPrefix(ed.Content(), "\n![dog.png](dog.png)\nsee"))
}

func TestDispatcher_RawInsertFormat(t *testing.T) {
	ed := newRawEditor(t, "a b c")
	ed.Buffer().Select(2, 3)

	ed.InsertFormat("[", "](target)")
	assert.Equal(t, "a [b](target) c", ed.Content())
	assert.Equal(t, "", ed.Selection())
}

func TestDispatcher_RawUnicode(t *testing.T) {
	ed := newRawEditor(t, "zażółć gęślą")
	ed.Buffer().Select(7, 12)
	assert.Equal(t, "gęślą", ed.Selection())

	require.NoError(t, ed.Dispatch(context.Background(), CommandStrong))
	assert.Equal(t, "zażółć **gęślą**", ed.Content())
	assert.Equal(t, 16, ed.Buffer().Cursor())
}

func newLiveEditor(t *testing.T, content string, opts ...Option) *Editor {
	t.Helper()
	ed := newRawEditor(t, content, append(opts, WithLive(true))...)
	require.True(t, ed.Live())
	require.NotNil(t, ed.Surface())
	return ed
}

func TestDispatcher_LiveStrong(t *testing.T) {
	ed := newLiveEditor(t, "hello world")
	ed.Surface().SelectOffsets(6, 11)

	require.NoError(t, ed.Dispatch(context.Background(), CommandStrong))
	assert.Equal(t, "<p>hello <strong>world</strong></p>", ed.Surface().HTML())
	assert.Equal(t, "hello **world**\n", ed.Content())
	assert.Equal(t, "world", ed.Selection())
}

func TestDispatcher_LiveBlocks(t *testing.T) {
	testCases := []struct {
		cmd  Command
		want string
	}{
		{CommandHeading1, "# title\n"},
		{CommandHeading2, "## title\n"},
		{CommandHeading3, "### title\n"},
		{CommandParagraph, "title\n"},
		{CommandUnorderedList, "- title\n"},
		{CommandOrderedList, "1. title\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.cmd.String(), func(t *testing.T) {
			ed := newLiveEditor(t, "title")
			ed.Surface().SelectOffsets(2, 2)

			require.NoError(t, ed.Dispatch(context.Background(), tc.cmd))
			assert.Equal(t, tc.want, ed.Content())
		})
	}
}

func TestDispatcher_LiveCodeBlock(t *testing.T) {
	ed := newLiveEditor(t, "a code b")
	ed.Surface().SelectOffsets(2, 6)

	require.NoError(t, ed.Dispatch(context.Background(), CommandCodeBlock))
	assert.Equal(t, "a\n\n```\ncode\n```\n\nb\n", ed.Content())
}

func TestDispatcher_LiveCodeBlockAcrossParagraphs(t *testing.T) {
	ed := newLiveEditor(t, "first line\n\nsecond line")
	ed.Surface().SelectOffsets(0, len(ed.Surface().Text()))
	assert.Equal(t, "first line\nsecond line", ed.Selection())

	require.NoError(t, ed.Dispatch(context.Background(), CommandCodeBlock))
	assert.Equal(t, "```\nfirst line\nsecond line\n```\n", ed.Content())
}

func TestEditor_LiveTypeOverBlocks(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "List", content: "intro\n\n- x\n- y\n"},
		{name: "Table", content: "intro\n\n| a |\n| - |\n| b |\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ed := newLiveEditor(t, tc.content)
			ed.Surface().SelectOffsets(0, len(ed.Surface().Text()))

			ed.Input("z")
			assert.Equal(t, "z\n", ed.Content())
		})
	}
}

func TestDispatcher_LiveTable(t *testing.T) {
	p := &fakePrompter{size: TableSize{Rows: 2, Cols: 3}}
	ed := newLiveEditor(t, "intro", WithPrompter(p))
	ed.Surface().SelectOffsets(5, 5)

	require.NoError(t, ed.Dispatch(context.Background(), CommandTable))

	root := ed.Surface().Root()
	var kinds []richtext.Kind
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		kinds = append(kinds, richtext.KindOf(c))
	}
	assert.Equal(t, []richtext.Kind{richtext.KindParagraph, richtext.KindTable, richtext.KindParagraph}, kinds)

	want := "intro\n\n| Header | Header | Header |\n| --- | --- | --- |\n| ... | ... | ... |\n| ... | ... | ... |\n"
	assert.Equal(t, want, ed.Content())
}

func TestDispatcher_LiveImage(t *testing.T) {
	p := &fakePrompter{image: ImageRef{Name: "cat.png", Path: "img/cat.png"}}
	ed := newLiveEditor(t, "ab", WithPrompter(p))
	ed.Surface().SelectOffsets(1, 1)

	require.NoError(t, ed.Dispatch(context.Background(), CommandImage))
	assert.Equal(t, "a![cat.png](img/cat.png)b\n", ed.Content())
}

func TestDispatcher_LiveInsertFormat(t *testing.T) {
	testCases := []struct {
		name           string
		prefix, suffix string
		check          func(t *testing.T, ed *Editor)
	}{
		{
			name:   "Strong",
			prefix: "**", suffix: "**",
			check: func(t *testing.T, ed *Editor) {
				assert.Equal(t, "ti**tl**e\n", ed.Content())
			},
		},
		{
			name:   "Emphasis",
			prefix: "*", suffix: "*",
			check: func(t *testing.T, ed *Editor) {
				assert.Equal(t, "ti*tl*e\n", ed.Content())
			},
		},
		{
			name:   "Heading",
			prefix: "## ",
			check: func(t *testing.T, ed *Editor) {
				assert.Equal(t, "## title\n", ed.Content())
			},
		},
		{
			name:   "OrderedList",
			prefix: "1. ",
			check: func(t *testing.T, ed *Editor) {
				assert.Equal(t, "1. title\n", ed.Content())
			},
		},
		{
			name:   "UnorderedList",
			prefix: "- ",
			check: func(t *testing.T, ed *Editor) {
				assert.Equal(t, "- title\n", ed.Content())
			},
		},
		{
			name:   "CodeFence",
			prefix: "\n```python\n", suffix: "\n```\n",
			check: func(t *testing.T, ed *Editor) {
				assert.Equal(t, "ti\n\n```python\ntl\n```\n\ne\n", ed.Content())
			},
		},
		{
			name:   "Image",
			prefix: "\n![cat.png](cat.png)\n",
			check: func(t *testing.T, ed *Editor) {
				assert.Equal(t, "ti![cat.png](cat.png)e\n", ed.Content())
			},
		},
		{
			name:   "Table",
			prefix: TableMarkup(TableSkeleton(TableSize{Rows: 1, Cols: 1}, DefaultPlaceholders)),
			check: func(t *testing.T, ed *Editor) {
				assert.Contains(t, ed.Content(), "| Header |\n| --- |\n| ... |")
				tree := ed.Surface().HTML()
				assert.Contains(t, tree, "<table>")
				assert.NotContains(t, tree, "<ul>")
				assert.NotContains(t, tree, "<li>")
			},
		},
		{
			name:   "PlainText",
			prefix: "generated",
			check: func(t *testing.T, ed *Editor) {
				assert.Equal(t, "tigeneratede\n", ed.Content())
			},
		},
		{
			name:   "Path",
			prefix: "docs/a-b.md",
			check: func(t *testing.T, ed *Editor) {
				assert.Equal(t, "tidocs/a-b.mde\n", ed.Content())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ed := newLiveEditor(t, "title")
			ed.Surface().SelectOffsets(2, 4)

			ed.InsertFormat(tc.prefix, tc.suffix)
			tc.check(t, ed)
		})
	}
}

func TestIsFenceOpening(t *testing.T) {
	assert.True(t, isFenceOpening("```"))
	assert.True(t, isFenceOpening("\n```go\n"))
	assert.False(t, isFenceOpening("```go\ncode"))
	assert.False(t, isFenceOpening("``inline``"))
	assert.False(t, isFenceOpening("text"))

	assert.Equal(t, "go", fenceLanguage("\n```go\n"))
	assert.Equal(t, "js", fenceLanguage("```js title=x"))
	assert.Equal(t, "", fenceLanguage("```"))
}
