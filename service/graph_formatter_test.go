package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/testutil"
)

func buildSample(t *testing.T) *domain.CFGResponse {
	t.Helper()
	path := testutil.WriteFile(t, t.TempDir(), "sample.c", sampleSource)
	resp, err := NewCFGService(nil).Build(context.Background(), fullRequest(path))
	require.NoError(t, err)
	return resp
}

func format(t *testing.T, resp *domain.CFGResponse, f domain.OutputFormat, rankDir string) []byte {
	t.Helper()
	out, err := NewGraphFormatter().Format(resp, domain.CFGRequest{OutputFormat: f, RankDir: rankDir})
	require.NoError(t, err)
	return out
}

func TestGraphFormatter_Text(t *testing.T) {
	out := string(format(t, buildSample(t), domain.OutputFormatText, ""))

	assert.Contains(t, out, "CFG sign (")
	assert.Contains(t, out, " at ")
	assert.Contains(t, out, "B0[entry] (0 stmts)")
	assert.Contains(t, out, "B0 -> B2 [Unconditional]")
	assert.Contains(t, out, "[TrueBranch]")
	assert.Contains(t, out, "[FalseBranch]")
	assert.Contains(t, out, " unreachable\n")
	assert.Contains(t, out, "    x = 0;\n")
	assert.Contains(t, out, "warning: unreachable code in B")
	assert.Contains(t, out, "CFG spin (")
}

func TestGraphFormatter_TextCaseValues(t *testing.T) {
	resp := &domain.CFGResponse{Files: []domain.FileGraphs{{
		File: "s.c",
		Functions: []domain.FunctionGraph{{
			Name:  "f",
			Edges: []domain.EdgeInfo{{From: 2, To: 3, Kind: "CaseMatch", Value: "1"}},
		}},
		Errors: []domain.FunctionError{{Message: "break outside loop"}},
	}}}

	out := string(format(t, resp, domain.OutputFormatText, ""))
	assert.Contains(t, out, "B2 -> B3 [CaseMatch(1)]")
	assert.Contains(t, out, "error: break outside loop")
}

func TestGraphFormatter_DOT(t *testing.T) {
	out := string(format(t, buildSample(t), domain.OutputFormatDOT, "LR"))

	assert.Equal(t, 2, strings.Count(out, "digraph"))
	assert.Contains(t, out, "rankdir=LR")
	assert.Contains(t, out, "B0 -> B2")
	assert.Contains(t, out, "color=darkgreen")
	assert.Contains(t, out, "style=dashed")
	assert.Contains(t, out, "constraint=false")
}

func TestGraphFormatter_DOTInvalidRankDir(t *testing.T) {
	_, err := NewGraphFormatter().Format(buildSample(t), domain.CFGRequest{
		OutputFormat: domain.OutputFormatDOT,
		RankDir:      "XY",
	})

	var domainErr domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeInvalidInput, domainErr.Code)
}

func TestGraphFormatter_Structured(t *testing.T) {
	resp := buildSample(t)

	t.Run("json", func(t *testing.T) {
		var decoded domain.CFGResponse
		require.NoError(t, json.Unmarshal(format(t, resp, domain.OutputFormatJSON, ""), &decoded))
		assert.Equal(t, resp.Summary, decoded.Summary)
		assert.Len(t, decoded.Functions(), 2)
	})

	t.Run("yaml", func(t *testing.T) {
		var decoded domain.CFGResponse
		require.NoError(t, yaml.Unmarshal(format(t, resp, domain.OutputFormatYAML, ""), &decoded))
		assert.Equal(t, resp.Summary, decoded.Summary)
	})

	t.Run("msgpack", func(t *testing.T) {
		var decoded domain.CFGResponse
		require.NoError(t, msgpack.Unmarshal(format(t, resp, domain.OutputFormatMsgPack, ""), &decoded))
		assert.Equal(t, resp.Functions()[0].Edges, decoded.Functions()[0].Edges)
	})
}

func TestGraphFormatter_Errors(t *testing.T) {
	f := NewGraphFormatter()

	err := f.Write(nil, domain.CFGRequest{}, &bytes.Buffer{})
	assert.Error(t, err)

	err = f.Write(&domain.CFGResponse{}, domain.CFGRequest{OutputFormat: "html"}, &bytes.Buffer{})
	var domainErr domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeUnsupportedFormat, domainErr.Code)
}
