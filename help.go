package challengescot

import (
	"fmt"
	"github.com/codeclub/challengescot/config"
	"io"
	"strings"
)

const (
	helpCommand = "help"
)

// pluginScheduledAction represents a plugin's scheduled action with the plugin name and the action's definition
type pluginScheduledAction struct {
	plugin string
	ScheduledActionDefinition
}

// isHelpRequest returns true if the command text asks for help (an empty slash command does too)
func isHelpRequest(text string) bool {
	return text == "" || text == helpCommand || strings.HasPrefix(text, helpCommand+" ")
}

// helpAnswer generates a message providing a list of the commands, hear actions and scheduled actions of the plugins.
// Note that actions with the flag Hidden set to true aren't included in the list
func (b *Bot) helpAnswer(plugins []*Plugin, m *IncomingMessage) *Answer {
	var sb strings.Builder

	if b.services.userInfoFinder != nil {
		if user, err := b.services.userInfoFinder.GetUserInfo(m.User); err != nil {
			b.log.Debugf("Error getting user info for user id [%s] so skipping mentioning the name (it would be awkward): %v", m.User, err)
		} else {
			fmt.Fprintf(&sb, "🤝 You're `%s` and I'm `%s` (engine `v%s`). ", displayName(user), b.name, VERSION)
		}
	}

	if sb.Len() == 0 {
		fmt.Fprintf(&sb, "I'm `%s` (engine `v%s`). ", b.name, VERSION)
	}

	fmt.Fprintf(&sb, "I run timed coding challenges for the team :stopwatch:.\n")

	commands, hearActions, scheduledActions := findAllActions(plugins)

	if lenCommands(commands) > 0 {
		fmt.Fprintf(&sb, "\nI currently support the following commands:\n")

		for _, p := range plugins {
			appendActions(&sb, p.SlashCommand, commands[p.Name])
		}
	}

	if len(hearActions) > 0 {
		fmt.Fprintf(&sb, "\nAnd listen for the following:\n")

		appendActions(&sb, "", hearActions)
	}

	if len(scheduledActions) > 0 {
		fmt.Fprintf(&sb, "\nAnd do those things periodically:\n")

		appendScheduledActions(&sb, b.config.GetString(config.TimeLocationKey), scheduledActions)
	}

	return &Answer{Text: sb.String()}
}

// lenCommands returns the length of a map of string to array of values by summing
// up the length of all array values
func lenCommands(entries map[string][]ActionDefinition) (length int) {
	length = 0
	for _, v := range entries {
		length = length + len(v)
	}

	return length
}

func appendActions(w io.Writer, prefix string, actions []ActionDefinition) {
	for _, value := range actions {
		if value.Usage != "" && !value.Hidden {
			if len(prefix) > 0 {
				fmt.Fprintf(w, "\t• `%s %s` - %s\n", prefix, value.Usage, value.Description)
			} else {
				fmt.Fprintf(w, "\t• `%s` - %s\n", value.Usage, value.Description)
			}
		}
	}
}

func appendScheduledActions(w io.Writer, timeLocationName string, scheduledActions []pluginScheduledAction) {
	for _, value := range scheduledActions {
		fmt.Fprintf(w, "\t• [`%s`] `%s` (`%s`) - %s\n", value.plugin, value.ScheduledActionDefinition.Schedule, timeLocationName, value.ScheduledActionDefinition.Description)
	}
}

// findAllActions returns the visible commands keyed by plugin name along with the visible hear actions and scheduled actions
func findAllActions(plugins []*Plugin) (commands map[string][]ActionDefinition, hearActions []ActionDefinition, pluginScheduledActions []pluginScheduledAction) {
	commands = make(map[string][]ActionDefinition)
	hearActions = make([]ActionDefinition, 0)
	pluginScheduledActions = make([]pluginScheduledAction, 0)

	for _, p := range plugins {
		commands[p.Name] = filterNonHiddenActions(p.Commands)
		hearActions = append(hearActions, filterNonHiddenActions(p.HearActions)...)
		pluginScheduledActions = append(pluginScheduledActions, filterNonHiddenScheduledActions(p.Name, p.ScheduledActions)...)
	}

	return commands, hearActions, pluginScheduledActions
}

func filterNonHiddenActions(actions []ActionDefinition) (visibleActions []ActionDefinition) {
	visibleActions = make([]ActionDefinition, 0)
	for _, a := range actions {
		if !a.Hidden {
			visibleActions = append(visibleActions, a)
		}
	}

	return visibleActions
}

func filterNonHiddenScheduledActions(pluginName string, actions []ScheduledActionDefinition) (visibleActions []pluginScheduledAction) {
	visibleActions = make([]pluginScheduledAction, 0)

	for _, sa := range actions {
		if !sa.Hidden {
			visibleActions = append(visibleActions, pluginScheduledAction{plugin: pluginName, ScheduledActionDefinition: sa})
		}
	}

	return visibleActions
}
