package trigger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMergeCommand(t *testing.T) {
	p := NewParser("@bot")

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"bare command", "@bot merge", true},
		{"command with trailing text", "@bot merge please", true},
		{"command mid sentence", "looks good, @bot merge when ready", true},
		{"surrounding whitespace", "  \t@bot merge\n", true},
		{"uppercase prefix", "@BOT merge", true},
		{"uppercase keyword", "@bot MERGE", true},
		{"mixed case", "@Bot Merge", true},
		{"missing space", "@botmerge", false},
		{"tab instead of space", "@bot\tmerge", false},
		{"prefix only", "@bot", false},
		{"keyword only", "merge", false},
		{"different prefix", "@other merge", false},
		{"empty body", "", false},
		{"unrelated chatter", "nice work!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.IsMergeCommand(tt.body))
		})
	}
}

func TestPrefixIsTrimmed(t *testing.T) {
	p := NewParser("  @bot ")
	require.True(t, p.IsMergeCommand("@bot merge"))
}

func TestEmptyPrefixNeverMatches(t *testing.T) {
	p := NewParser("")
	require.False(t, p.IsMergeCommand("merge"))
	require.False(t, p.IsMergeCommand(" merge"))
}

func TestUnicodeCaseFolding(t *testing.T) {
	p := NewParser("@Straße-bot")
	require.True(t, p.IsMergeCommand("@strasse-bot merge"))
}
