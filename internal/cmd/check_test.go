package cmd

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueeyes/writer/internal/renderer/markup"
)

func TestCheckFile(t *testing.T) {
	r := markup.New()
	cmd := &cobra.Command{}

	stable := writeFile(t, "stable.md", "# Title\n\n- one\n- two\n")
	res := checkFile(cmd, r, stable)
	require.NoError(t, res.err)
	assert.True(t, res.stable)
	assert.Equal(t, res.before, res.after)

	res = checkFile(cmd, r, stable+".missing")
	assert.Error(t, res.err)
}

func TestReportCheck(t *testing.T) {
	color.NoColor = true

	results := []checkResult{
		{file: "a.md", stable: true},
		{file: "b.md", before: "<p>x</p>", after: "<p>y</p>"},
	}

	var out bytes.Buffer
	err := reportCheck(&out, results, true)
	assert.ErrorContains(t, err, "b.md does not survive a round trip")
	assert.Contains(t, out.String(), "OK a.md\n")
	assert.Contains(t, out.String(), "UNSTABLE b.md\n")

	out.Reset()
	assert.NoError(t, reportCheck(&out, results[:1], false))
}
