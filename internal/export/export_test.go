package export

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxbot/oxbot/internal/models"
)

func sampleHistory() []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleUser, Content: "count to three"},
		{
			Role:     models.RoleAssistant,
			Content:  "sure",
			Code:     "print(1)",
			Language: "python",
			Output:   "1\n",
		},
	}
}

func TestMarkdownExport(t *testing.T) {
	dir := t.TempDir()
	path, err := Markdown(dir, sampleHistory())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "## You")
	assert.Contains(t, text, "count to three")
	assert.Contains(t, text, "```python")
	assert.Contains(t, text, "print(1)")
	assert.Contains(t, text, "Output:")
}

func TestJSONExportRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path, err := JSON(dir, sampleHistory())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []models.ChatMessage
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sampleHistory(), got)
}
