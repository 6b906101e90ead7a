package challengescot

import (
	"context"
	"github.com/slack-go/slack"
)

// EmojiReactor is implemented by any value that has the AddReactionContext method. slack.Client implements it.
// The main purpose is a slight decoupling of the slack.Client in order for plugins to be able to write cleaner
// tests more easily
type EmojiReactor interface {
	// AddReactionContext adds an emoji reaction to a ItemRef using the emoji associated
	// with the given name (i.e. name should be thumbsup rather than :thumbsup:)
	AddReactionContext(ctx context.Context, name string, item slack.ItemRef) (err error)
}
