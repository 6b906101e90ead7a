package challengescot

import (
	"context"
	"fmt"
	"github.com/slack-go/slack"
	"strings"
)

const (
	responseTypeEphemeral = "ephemeral"
	responseTypeInChannel = "in_channel"
)

// InteractionDefinition represents how a plugin handles an interaction with one of its interactive components
type InteractionDefinition struct {
	// Type is the interaction type handled (slack.InteractionTypeBlockActions or slack.InteractionTypeViewSubmission)
	Type slack.InteractionType

	// ID is the action id of a block element for block actions or the callback id of a view for view submissions
	ID string

	// Function to execute when the interaction happens
	Handle InteractionHandler
}

// InteractionHandler handles an interaction. For view submissions, returned input errors (keyed by block id) are
// shown on the view and keep it open. They're ignored for block actions. Slow work should be registered
// with Interaction.Then so that it runs after the interaction is acknowledged
type InteractionHandler func(i *Interaction) (inputErrors map[string]string)

// Interaction holds data for a user interaction with an interactive component
type Interaction struct {
	Type slack.InteractionType

	// ID is the action id (block actions) or callback id (view submissions)
	ID string

	User      string
	UserName  string
	TriggerID string
	Channel   string

	// Value is the value of the clicked element for block actions or the private metadata of the view for
	// view submissions
	Value string

	// Inputs holds the values of a submitted view, keyed by block id
	Inputs map[string]string

	followUps []func()
}

// Then registers f to run once the interaction has been acknowledged
func (i *Interaction) Then(f func()) {
	i.followUps = append(i.followUps, f)
}

// RunFollowUps runs the functions registered with Then, in registration order
func (i *Interaction) RunFollowUps() {
	for _, f := range i.followUps {
		f()
	}

	i.followUps = nil
}

type interactionKey struct {
	interactionType slack.InteractionType
	id              string
}

// interactionWithID holds an interaction definition along with its identifier string
type interactionWithID struct {
	InteractionDefinition
	id     string
	plugin string
}

// processSlashCommand runs the commands of the plugin registered for the slash command and responds with
// the answers on the command's response url
func (b *Bot) processSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	b.recordEventSeen(ctx, slashCommandEventType)

	d := measure(func() {
		m := &IncomingMessage{
			NormalizedText: strings.TrimSpace(cmd.Text),
			Text:           cmd.Text,
			Channel:        cmd.ChannelID,
			User:           cmd.UserID,
			Direct:         isDirectChannel(cmd.ChannelID),
			TriggerID:      cmd.TriggerID,
		}

		p, ok := b.slashCommands[cmd.Command]
		if !ok {
			b.log.Printf("No plugin registered for slash command [%s]", cmd.Command)
			b.respond(ctx, cmd.ResponseURL, &Answer{Text: fmt.Sprintf("I don't know what to do with `%s`", cmd.Command)})
			return
		}

		commands := make([]actionDefinitionWithID, 0, len(p.Commands))
		for _, c := range b.commandsWithID {
			if c.plugin == p.Name {
				commands = append(commands, c)
			}
		}

		for _, a := range b.handleCommand(ctx, commands, []*Plugin{p}, m) {
			b.respond(ctx, cmd.ResponseURL, a)
		}
	})

	b.recordEventProcessed(ctx, slashCommandEventType, d)
}

// respond sends an answer to a slash command response url. Answers are only visible to the user who typed
// the command unless they're marked to be answered in channel
func (b *Bot) respond(ctx context.Context, responseURL string, a *Answer) {
	sendOpts := ApplyAnswerOpts(a.Options...)

	msg := &slack.WebhookMessage{Text: a.Text, ResponseType: responseTypeEphemeral}
	if sendOpts[InChannelOpt] == "true" {
		msg.ResponseType = responseTypeInChannel
	}

	if len(a.ContentBlocks) > 0 {
		msg.Blocks = &slack.Blocks{BlockSet: a.ContentBlocks}
	}

	if err := b.services.webhookPoster(ctx, responseURL, msg); err != nil {
		b.log.Printf("Unable to respond to slash command: %v", err)
	}
}

// processBlockActions dispatches every action of a block actions interaction to its handler
func (b *Bot) processBlockActions(ctx context.Context, callback slack.InteractionCallback) {
	b.recordEventSeen(ctx, interactionEventType)

	d := measure(func() {
		for _, action := range callback.ActionCallback.BlockActions {
			in, ok := b.interactions[interactionKey{interactionType: slack.InteractionTypeBlockActions, id: action.ActionID}]
			if !ok {
				b.log.Debugf("No handler for block action [%s]", action.ActionID)
				continue
			}

			i := newInteraction(callback, action.ActionID, action.Value)

			b.log.Debugf("Dispatching block action [%s] from [%s] to [%s]", action.ActionID, i.User, in.id)
			in.Handle(i)
			i.RunFollowUps()
		}
	})

	b.recordEventProcessed(ctx, interactionEventType, d)
}

// processViewSubmission dispatches a view submission to its handler and returns the acknowledgment payload, if any,
// along with the interaction so that its follow-ups can run once acknowledged
func (b *Bot) processViewSubmission(ctx context.Context, callback slack.InteractionCallback) (payload []interface{}, i *Interaction) {
	b.recordEventSeen(ctx, interactionEventType)

	d := measure(func() {
		in, ok := b.interactions[interactionKey{interactionType: slack.InteractionTypeViewSubmission, id: callback.View.CallbackID}]
		if !ok {
			b.log.Debugf("No handler for view submission [%s]", callback.View.CallbackID)
			return
		}

		i = newInteraction(callback, callback.View.CallbackID, callback.View.PrivateMetadata)
		if callback.View.State != nil {
			for blockID, actions := range callback.View.State.Values {
				for _, action := range actions {
					i.Inputs[blockID] = action.Value
				}
			}
		}

		b.log.Debugf("Dispatching view submission [%s] from [%s] to [%s]", i.ID, i.User, in.id)
		if inputErrors := in.Handle(i); len(inputErrors) > 0 {
			payload = []interface{}{slack.NewErrorsViewSubmissionResponse(inputErrors)}
		}
	})

	b.recordEventProcessed(ctx, interactionEventType, d)

	return payload, i
}

func newInteraction(callback slack.InteractionCallback, id string, value string) (i *Interaction) {
	i = new(Interaction)
	i.Type = callback.Type
	i.ID = id
	i.User = callback.User.ID
	i.UserName = callback.User.Name
	i.TriggerID = callback.TriggerID
	i.Channel = callback.Channel.ID
	i.Value = value
	i.Inputs = make(map[string]string)

	return i
}
