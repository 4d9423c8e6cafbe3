package audit

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPrefixFilter(t *testing.T) {
	pattern, ok := eventPrefixFilter("appointment.complete")["$regex"].(string)
	require.True(t, ok)

	re, err := regexp.Compile(pattern)
	require.NoError(t, err)

	assert.True(t, re.MatchString("appointment.complete"))
	assert.False(t, re.MatchString("appointmentXcomplete"), "the dot must match literally")
	assert.False(t, re.MatchString("auth.appointment.complete"), "prefix anchor must hold")
}

func TestEventPrefixFilterQuotesMetacharacters(t *testing.T) {
	pattern, ok := eventPrefixFilter(".*")["$regex"].(string)
	require.True(t, ok)

	re, err := regexp.Compile(pattern)
	require.NoError(t, err)

	assert.False(t, re.MatchString("auth.login"), "wildcard input must not match everything")
	assert.True(t, re.MatchString(".*suffix"))
}
