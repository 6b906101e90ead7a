/*
Package actions provides a fluent API for creating challengescot plugin actions. Typical usages
will also involve using the plugin fluent API from github.com/codeclub/challengescot/plugin.

A quick plugin could look like:

	import (
		"github.com/codeclub/challengescot"
		"github.com/codeclub/challengescot/actions"
		"github.com/codeclub/challengescot/plugin"
		"github.com/slack-go/slack"
	)

	func newPlugin() (p *challengescot.Plugin) {
		p = plugin.New("maker").
			WithSlashCommand("/maker").
			WithCommand(actions.NewCommand().
				WithMatcher(func(m *challengescot.IncomingMessage) bool {
					return strings.HasPrefix(m.NormalizedText, "make")
				}).
				WithUsage("make <something>").
				WithDescription("Make the `<something>` you need").
				WithAnswerer(func(m *challengescot.IncomingMessage) *challengescot.Answer {
					return &challengescot.Answer{Text: ":white_check_mark: It's ready for you!"}
				}).
				Build()).
			WithInteraction(actions.NewInteraction(slack.InteractionTypeBlockActions, "approve").
				WithHandler(func(i *challengescot.Interaction) map[string]string {
					return nil
				}).
				Build()).
			WithScheduledAction(actions.NewScheduledAction().
				WithSchedule(schedule.New().Every(time.Monday.String()).AtTime("10:00").Build()).
				WithDescription("Start the week off").
				WithAction(weeklyKickoff).
				Build()).
			Build()
		return p
	}
*/
package actions

import (
	"fmt"
	"github.com/codeclub/challengescot"
	"github.com/codeclub/challengescot/schedule"
	"github.com/slack-go/slack"
)

// ActionBuilder holds the action to build
type ActionBuilder struct {
	action challengescot.ActionDefinition
}

// ScheduledActionBuilder holds the scheduled action to build
type ScheduledActionBuilder struct {
	scheduledAction challengescot.ScheduledActionDefinition
}

// InteractionBuilder holds the interaction to build
type InteractionBuilder struct {
	interaction challengescot.InteractionDefinition
}

var (
	// Default to always match. This is acceptable since we can accomplish the same
	// behavior most of the time by returning nil in the Answerer instead
	defaultMatcher = func(m *challengescot.IncomingMessage) bool {
		return true
	}

	// Default to always return nil. This is not a default you want to use in most cases
	defaultAnswerer = func(m *challengescot.IncomingMessage) *challengescot.Answer {
		return nil
	}

	defaultInteractionHandler = func(i *challengescot.Interaction) map[string]string {
		return nil
	}
)

// newAction creates a new action and returns the ActionBuilder to set various attributes
// of the action. When done with the setup, the caller is expected to call Build() to get
// the action
func newAction() (ab *ActionBuilder) {
	ab = new(ActionBuilder)
	ab.action = challengescot.ActionDefinition{Hidden: false}

	ab.action.Match = defaultMatcher
	ab.action.Answer = defaultAnswerer

	return ab
}

// NewCommand returns a new ActionBuilder to build a new command
func NewCommand() (ab *ActionBuilder) {
	return newAction()
}

// NewHearAction returns a new ActionBuilder to build a new hear action
func NewHearAction() (ab *ActionBuilder) {
	return newAction()
}

// WithMatcher sets the action's matcher function
func (ab *ActionBuilder) WithMatcher(matcher challengescot.Matcher) *ActionBuilder {
	ab.action.Match = matcher
	return ab
}

// WithUsage sets the action usage
func (ab *ActionBuilder) WithUsage(usage string) *ActionBuilder {
	ab.action.Usage = usage
	return ab
}

// WithDescription sets the action description
func (ab *ActionBuilder) WithDescription(description string) *ActionBuilder {
	ab.action.Description = description
	return ab
}

// WithDescriptionf sets the action description delegating format and arguments to fmt.Sprintf
func (ab *ActionBuilder) WithDescriptionf(format string, a ...interface{}) *ActionBuilder {
	ab.action.Description = fmt.Sprintf(format, a...)
	return ab
}

// WithAnswerer sets the action's answerer function
func (ab *ActionBuilder) WithAnswerer(answerer challengescot.Answerer) *ActionBuilder {
	ab.action.Answer = answerer
	return ab
}

// Hidden sets the action to hidden
func (ab *ActionBuilder) Hidden() *ActionBuilder {
	ab.action.Hidden = true
	return ab
}

// Build returns the ActionDefinition
func (ab *ActionBuilder) Build() challengescot.ActionDefinition {
	return ab.action
}

// NewScheduledAction returns a new ScheduledActionBuilder to build a new ScheduledActionDefinition
func NewScheduledAction() (sab *ScheduledActionBuilder) {
	sab = new(ScheduledActionBuilder)
	sab.scheduledAction = challengescot.ScheduledActionDefinition{Hidden: false}
	sab.scheduledAction.Action = func() {}

	return sab
}

// WithSchedule sets the schedule for the scheduled action
func (sab *ScheduledActionBuilder) WithSchedule(schedule schedule.Definition) *ScheduledActionBuilder {
	sab.scheduledAction.Schedule = schedule
	return sab
}

// WithDescription sets the scheduled action description
func (sab *ScheduledActionBuilder) WithDescription(desc string) *ScheduledActionBuilder {
	sab.scheduledAction.Description = desc
	return sab
}

// WithDescriptionf sets the scheduled action description delegating format and arguments to fmt.Sprintf
func (sab *ScheduledActionBuilder) WithDescriptionf(format string, a ...interface{}) *ScheduledActionBuilder {
	sab.scheduledAction.Description = fmt.Sprintf(format, a...)
	return sab
}

// WithAction sets the action function to run on schedule
func (sab *ScheduledActionBuilder) WithAction(action challengescot.ScheduledAction) *ScheduledActionBuilder {
	sab.scheduledAction.Action = action
	return sab
}

// Hidden sets the scheduled action to hidden
func (sab *ScheduledActionBuilder) Hidden() *ScheduledActionBuilder {
	sab.scheduledAction.Hidden = true
	return sab
}

// Build returns the ScheduledActionDefinition
func (sab *ScheduledActionBuilder) Build() challengescot.ScheduledActionDefinition {
	return sab.scheduledAction
}

// NewInteraction returns a new InteractionBuilder for an interaction of the given type and id (action id for
// block actions and callback id for view submissions)
func NewInteraction(interactionType slack.InteractionType, id string) (ib *InteractionBuilder) {
	ib = new(InteractionBuilder)
	ib.interaction = challengescot.InteractionDefinition{Type: interactionType, ID: id, Handle: defaultInteractionHandler}

	return ib
}

// WithHandler sets the interaction's handler function
func (ib *InteractionBuilder) WithHandler(handler challengescot.InteractionHandler) *InteractionBuilder {
	ib.interaction.Handle = handler
	return ib
}

// Build returns the InteractionDefinition
func (ib *InteractionBuilder) Build() challengescot.InteractionDefinition {
	return ib.interaction
}
