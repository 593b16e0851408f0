package content

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTweetLength is Twitter's character limit
const MaxTweetLength = 280

func systemPrompt(language string) string {
	base := "You are a social media expert who writes engaging tweets that drive follower growth. Keep every tweet under 280 characters."
	if language != "" && language != "en" {
		return base + fmt.Sprintf(" Respond in the language with code %q.", language)
	}
	return base
}

func tweetPrompt(topic, style, userContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s tweet about: %s\n", style, topic)
	if userContext != "" {
		fmt.Fprintf(&b, "Context about the author: %s\n", userContext)
	}
	b.WriteString("Requirements:\n")
	b.WriteString("- Under 280 characters\n")
	b.WriteString("- Include at most two relevant hashtags\n")
	b.WriteString("- No surrounding quotes\n")
	return b.String()
}

func threadPrompt(topic, style string, numTweets int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a Twitter thread about %s with %d tweets.\n", topic, numTweets)
	fmt.Fprintf(&b, "Style: %s\n", style)
	b.WriteString("Requirements:\n")
	b.WriteString("- Each tweet under 280 characters\n")
	fmt.Fprintf(&b, "- Number each tweet (1/%d, 2/%d, ...)\n", numTweets, numTweets)
	b.WriteString("- Separate tweets with a blank line\n")
	b.WriteString("- Ensure good flow between tweets\n")
	return b.String()
}

func replyPrompt(originalTweet, replyStyle, userContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s reply to this tweet:\n%s\n", replyStyle, originalTweet)
	if userContext != "" {
		fmt.Fprintf(&b, "Context about the author: %s\n", userContext)
	}
	b.WriteString("Requirements:\n")
	b.WriteString("- Under 280 characters\n")
	b.WriteString("- Add value to the conversation, no generic praise\n")
	return b.String()
}

// enforceTweetLength truncates overlong output at the last sentence or
// word boundary that fits. Twitter's limit counts characters, so the
// cut is measured in runes, never bytes.
func enforceTweetLength(text string) string {
	if utf8.RuneCountInString(text) <= MaxTweetLength {
		return text
	}

	truncated := string([]rune(text)[:MaxTweetLength])
	if idx := strings.LastIndexAny(truncated, ".!?"); idx > len(truncated)/2 {
		return strings.TrimSpace(truncated[:idx+1])
	}
	if idx := strings.LastIndex(truncated, " "); idx > 0 {
		return strings.TrimSpace(truncated[:idx])
	}
	return truncated
}
