package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_Golden(t *testing.T) {
	tests := []struct {
		name    string
		summary bool
	}{
		{"json", false},
		{"json_summary", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := &JSON{W: &buf, Summary: tt.summary}

			require.NoError(t, r.Report(healthyResult()))
			require.NoError(t, r.Report(failedResult()))

			newGolden(t).Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestJSON_LinesAreValidJSON(t *testing.T) {
	var buf bytes.Buffer
	r := &JSON{W: &buf, Summary: true}
	require.NoError(t, r.Report(healthyResult()))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &doc))
	assert.Equal(t, "xml_doc_1300", doc["table"])
	assert.Len(t, doc["records"], 3)
}
