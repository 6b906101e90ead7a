package challengescot

import (
	"github.com/codeclub/challengescot/config"
	"github.com/spf13/viper"
	"io"
)

// Builder holds a challengescot instance to build
type Builder struct {
	bot *Bot
	err error
}

// PluginFactory creates a plugin from its configuration
type PluginFactory func(c *viper.Viper) (p *Plugin, err error)

// CloserPluginFactory creates a plugin from its configuration, along with a closer to release its resources
type CloserPluginFactory func(c *viper.Viper) (closer io.Closer, p *Plugin, err error)

// NewBot returns a new Builder used to set up a new challengescot
func NewBot(name string, v *viper.Viper, options ...Option) (sb *Builder) {
	sb = new(Builder)
	sb.bot, sb.err = New(name, v, options...)

	return sb
}

// WithPlugin adds a plugin to the challengescot instance
func (sb *Builder) WithPlugin(p *Plugin) *Builder {
	if sb.err != nil {
		return sb
	}

	sb.bot.RegisterPlugin(p)

	return sb
}

// WithPluginErr adds a plugin that has a creation function returning (Plugin, error) to the challengescot instance
func (sb *Builder) WithPluginErr(p *Plugin, err error) *Builder {
	if sb.err == nil && err != nil {
		sb.err = err
	}

	if sb.err != nil {
		return sb
	}

	sb.bot.RegisterPlugin(p)

	return sb
}

// WithPluginCloserErr adds a plugin that has a creation function returning (io.Closer, Plugin, error) to the challengescot instance
func (sb *Builder) WithPluginCloserErr(closer io.Closer, p *Plugin, err error) *Builder {
	if sb.err == nil && err != nil {
		sb.err = err
	}

	if sb.err != nil {
		return sb
	}

	sb.bot.RegisterPlugin(p)

	if closer != nil {
		sb.bot.closers = append(sb.bot.closers, closer)
	}

	return sb
}

// WithConfigurablePluginErr adds a plugin created from its configuration found under plugins.<name>. A missing
// configuration is an error
func (sb *Builder) WithConfigurablePluginErr(name string, factory PluginFactory) *Builder {
	if sb.err != nil {
		return sb
	}

	pc, err := config.GetPluginConfig(sb.bot.config, name)
	if err != nil {
		sb.err = err
		return sb
	}

	return sb.WithPluginErr(factory(pc))
}

// WithConfigurablePluginCloserErr adds a plugin and its closer created from its configuration found under plugins.<name>. A
// missing configuration is an error
func (sb *Builder) WithConfigurablePluginCloserErr(name string, factory CloserPluginFactory) *Builder {
	if sb.err != nil {
		return sb
	}

	pc, err := config.GetPluginConfig(sb.bot.config, name)
	if err != nil {
		sb.err = err
		return sb
	}

	return sb.WithPluginCloserErr(factory(pc))
}

// Build returns the built challengescot instance. If there was an error during
// setup, the error is returned along with a nil Bot
func (sb *Builder) Build() (b *Bot, err error) {
	if sb.err != nil {
		return nil, sb.err
	}

	return sb.bot, nil
}
