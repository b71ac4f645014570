package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := generateInviteCode()
		require.NoError(t, err)
		require.Len(t, code, inviteCodeLength)
		for _, c := range code {
			require.True(t, strings.ContainsRune(inviteCodeChars, c), "unexpected character %q in code %s", c, code)
		}
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
