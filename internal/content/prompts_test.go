package content

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/autoreach/autoreach/internal/models"
)

func TestEnforceTweetLengthShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "short tweet", enforceTweetLength("short tweet"))

	exact := strings.Repeat("a", MaxTweetLength)
	assert.Equal(t, exact, enforceTweetLength(exact))
}

func TestEnforceTweetLengthCutsAtSentence(t *testing.T) {
	text := strings.Repeat("x", 200) + ". " + strings.Repeat("y", 200)

	got := enforceTweetLength(text)

	assert.LessOrEqual(t, len(got), MaxTweetLength)
	assert.Equal(t, strings.Repeat("x", 200)+".", got)
}

func TestEnforceTweetLengthCutsAtWord(t *testing.T) {
	words := strings.Repeat("word ", 80)

	got := enforceTweetLength(words)

	assert.LessOrEqual(t, len(got), MaxTweetLength)
	assert.False(t, strings.HasSuffix(got, " "))
	assert.True(t, strings.HasSuffix(got, "word"))
}

func TestEnforceTweetLengthCountsRunes(t *testing.T) {
	// 150 characters but 450 bytes; the limit is characters
	short := strings.Repeat("日", 150)
	assert.Equal(t, short, enforceTweetLength(short))

	long := enforceTweetLength(strings.Repeat("日", 300))
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, MaxTweetLength, utf8.RuneCountInString(long))
}

func TestEnforceTweetLengthNoBoundary(t *testing.T) {
	got := enforceTweetLength(strings.Repeat("a", 400))

	assert.Len(t, got, MaxTweetLength)
}

func TestSplitThread(t *testing.T) {
	text := "1/3 First tweet\n\n2/3 Second tweet\n\n\n\n3/3 Third tweet"

	tweets := splitThread(text)

	assert.Equal(t, []string{"1/3 First tweet", "2/3 Second tweet", "3/3 Third tweet"}, tweets)
}

func TestSplitThreadTruncatesLongParts(t *testing.T) {
	text := "short part\n\n" + strings.Repeat("long ", 100)

	tweets := splitThread(text)

	assert.Len(t, tweets, 2)
	assert.LessOrEqual(t, utf8.RuneCountInString(tweets[1]), MaxTweetLength)
}

func TestSplitThreadKeepsMultibytePartsIntact(t *testing.T) {
	part := strings.Repeat("日", 200)
	tweets := splitThread(part + "\n\n" + part)

	assert.Len(t, tweets, 2)
	for _, tw := range tweets {
		assert.True(t, utf8.ValidString(tw))
		assert.Equal(t, part, tw)
	}
}

func TestPickLanguage(t *testing.T) {
	user := &models.User{LanguagePref: "it"}

	assert.Equal(t, "de", pickLanguage("de", user))
	assert.Equal(t, "it", pickLanguage("", user))
	assert.Equal(t, "en", pickLanguage("", &models.User{}))
	assert.Equal(t, "en", pickLanguage("", nil))
}

func TestSystemPromptLanguage(t *testing.T) {
	assert.NotContains(t, systemPrompt("en"), "language with code")
	assert.Contains(t, systemPrompt("it"), `"it"`)
}
