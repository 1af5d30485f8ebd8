package middleware

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateQuery(t *testing.T) {
	assert.NoError(t, ValidateQuery("hello"))
	assert.Error(t, ValidateQuery(""))
	assert.Error(t, ValidateQuery(strings.Repeat("a", 100001)))
	assert.Error(t, ValidateQuery("bad \xff utf8"))
}

func TestValidateConversationID(t *testing.T) {
	assert.NoError(t, ValidateConversationID(uuid.NewString()))
	assert.Error(t, ValidateConversationID("not-a-uuid"))
	assert.Error(t, ValidateConversationID(""))
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("my conversation"))
	assert.Error(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle(strings.Repeat("a", 257)))
}
