/*
Package challengescot provides the building blocks to create a slack bot running over socket mode.

It is extendable via plugins that can combine a slash command, commands, hear actions (listeners),
interactions (button clicks and modal submissions) as well as scheduled actions. Messages of a same
thread are always processed in order, by the same worker.

Plugins also have access to services injected on startup by challengescot such as:
 - ChatDriver: To post, delete and send direct messages, open modals and download files
 - UserInfoFinder: To query user info (cached)
 - SLogger: To log debug/info statements
 - EmojiReactor: To emoji react to messages
 - FileUploader: To upload files

Example code (from cmd/challengescot):

	package main

	import (
		"github.com/codeclub/challengescot"
		"github.com/codeclub/challengescot/config"
		"github.com/codeclub/challengescot/plugins"
		"github.com/spf13/viper"
		"io"
	)

	func main() {
		v := config.NewViperWithDefaults()
		v.SetConfigFile("challengescot.yml")
		if err := v.ReadInConfig(); err != nil {
			log.Fatal(err)
		}

		bot, err := challengescot.NewBot("challengescot", v).
			WithConfigurablePluginCloserErr(plugins.ChallengePluginName, func(c *viper.Viper) (io.Closer, *challengescot.Plugin, error) {
				ch, err := plugins.NewChallenge(c, nil)
				if err != nil {
					return nil, nil, err
				}

				return ch, ch.Plugin, nil
			}).
			Build()
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		err = bot.Run(context.Background())
		if err != nil {
			log.Fatal(err)
		}
	}

Example configuration:

	token: xoxb-...
	appToken: xapp-...
	debug: false
	timeLocation: America/Los_Angeles
	storage:
	  backend: leveldb
	plugins:
	  challenge:
	    logChannel: C0123LOGS
	    gradingTimeout: 1h
	    scheduled:
	      - schedule:
	          weekday: Monday
	          atTime: "10:00"
	        channel: C0123CODE
	        initiator: U0123ADMIN
	        prompt: Reverse a linked list
	        minutes: 60
*/
package challengescot // import "github.com/codeclub/challengescot"
