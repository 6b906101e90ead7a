// Package plugin provides a fluent API for assembling challengescot plugins from actions built with
// github.com/codeclub/challengescot/actions
package plugin

import (
	"github.com/codeclub/challengescot"
)

// Builder holds a plugin to build
type Builder struct {
	plugin *challengescot.Plugin
}

// New creates a new Builder with a plugin with the given name and empty set of actions
func New(name string) (pb *Builder) {
	pb = new(Builder)
	pb.plugin = new(challengescot.Plugin)
	pb.plugin.Name = name
	pb.plugin.Commands = make([]challengescot.ActionDefinition, 0)
	pb.plugin.HearActions = make([]challengescot.ActionDefinition, 0)
	pb.plugin.Interactions = make([]challengescot.InteractionDefinition, 0)
	pb.plugin.ScheduledActions = make([]challengescot.ScheduledActionDefinition, 0)

	return pb
}

// WithSlashCommand sets the slash command routed to the plugin's commands (i.e. /challenge)
func (pb *Builder) WithSlashCommand(slashCommand string) *Builder {
	pb.plugin.SlashCommand = slashCommand
	return pb
}

// WithCommand adds a command to the plugin
func (pb *Builder) WithCommand(command challengescot.ActionDefinition) *Builder {
	pb.plugin.Commands = append(pb.plugin.Commands, command)
	return pb
}

// WithHearAction adds an hear action to the plugin
func (pb *Builder) WithHearAction(hearAction challengescot.ActionDefinition) *Builder {
	pb.plugin.HearActions = append(pb.plugin.HearActions, hearAction)
	return pb
}

// WithInteraction adds an interaction handler to the plugin
func (pb *Builder) WithInteraction(interaction challengescot.InteractionDefinition) *Builder {
	pb.plugin.Interactions = append(pb.plugin.Interactions, interaction)
	return pb
}

// WithScheduledAction adds a scheduled action to the plugin
func (pb *Builder) WithScheduledAction(scheduledAction challengescot.ScheduledActionDefinition) *Builder {
	pb.plugin.ScheduledActions = append(pb.plugin.ScheduledActions, scheduledAction)
	return pb
}

// Build returns the created Plugin instance
func (pb *Builder) Build() (p *challengescot.Plugin) {
	return pb.plugin
}
