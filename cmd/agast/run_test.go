package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumScript = "../../script/testdata/sum.yaml"

func runWith(t *testing.T, params runParams, stdin string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	if params.format == "" {
		params.format = formatTree
	}
	err := run(context.Background(), &params, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunTags(t *testing.T) {
	stdout, _, err := runWith(t, runParams{script: sumScript, format: formatTags, check: true}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "<Program>\nleft:\n<*Number>\n"))
}

func TestRunTable(t *testing.T) {
	stdout, _, err := runWith(t, runParams{script: sumScript, format: formatTable, metrics: true}, "")
	require.NoError(t, err)
	assert.Contains(t, stdout, "OpenNode")
	assert.Contains(t, stdout, "<*Punctuator>")
	assert.Contains(t, stdout, "agast_frames_total")
	assert.Contains(t, stdout, "outcome=rejected")
}

func TestRunInputFromStdin(t *testing.T) {
	stdout, _, err := runWith(t, runParams{script: sumScript, input: "-", format: formatTags}, "1+2")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"2"`)
}

func TestRunFailsOnOtherInput(t *testing.T) {
	input := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(input, []byte("1+22"), 0o644))

	_, _, err := runWith(t, runParams{script: sumScript, input: input}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parser failed to consume input")
}

func TestRunExpressions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(dedent.Dedent(`
		language:
		  url: https://example.com/gaps
		  productions:
		    - {name: Doc}
		    - {name: Word, node: true, token: true}
		input: "$$"
		strategy:
		  type: Doc
		  steps:
		    - advance: {kind: OpenFragment}
		    - frame:
		        type: Word
		        ref: {name: word}
		        steps:
		          - advance: {kind: Reference, name: word}
		          - advance: {kind: Gap}
		    - advance: {kind: CloseFragment}
	`)), 0o644))

	stdout, _, err := runWith(t, runParams{script: path, format: formatTags, expressions: []string{"Word=hello"}}, "")
	require.NoError(t, err)
	assert.Equal(t, dedent.Dedent(`
		<>
		word:
		<*https://example.com/gaps:Word>
		"hello"
		</>
		</>
	`)[1:], stdout)

	_, _, err = runWith(t, runParams{script: path, expressions: []string{"hello"}}, "")
	assert.ErrorContains(t, err, "should be Type=text")
}

func TestRunSettings(t *testing.T) {
	_, stderr, err := runWith(t, runParams{
		script:     sumScript,
		settings:   []string{"vm.trace=true", "log.level=debug"},
		showConfig: true,
		logFormat:  "json",
	}, "")
	require.NoError(t, err)
	assert.Contains(t, stderr, "vm.trace")
	assert.Contains(t, stderr, `"verb":"startFrame"`)

	_, _, err = runWith(t, runParams{script: sumScript, settings: []string{"vm.trace"}}, "")
	assert.ErrorContains(t, err, "should be key=value")

	_, _, err = runWith(t, runParams{script: sumScript, settings: []string{"vm.nope=1"}}, "")
	assert.ErrorContains(t, err, "unknown setting")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out)
	assert.Contains(t, out.String(), "Version: dev")
}
