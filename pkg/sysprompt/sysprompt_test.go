package sysprompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPromptMentionsTools(t *testing.T) {
	prompt := SystemPrompt()
	assert.Contains(t, prompt, "skill")
	assert.Contains(t, strings.ToLower(prompt), "tools available")
}

func TestDegradedPromptOmitsToolGuidance(t *testing.T) {
	prompt := DegradedPrompt()
	assert.Contains(t, prompt, "Tools are not available")
	assert.NotContains(t, prompt, "You have tools available")
}

func TestPromptsShareBase(t *testing.T) {
	assert.True(t, strings.HasPrefix(SystemPrompt(), basePrompt))
	assert.True(t, strings.HasPrefix(DegradedPrompt(), basePrompt))
}
