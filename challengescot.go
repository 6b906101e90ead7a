package challengescot

import (
	"context"
	"fmt"
	"github.com/codeclub/challengescot/config"
	"github.com/codeclub/challengescot/schedule"
	"github.com/marcsantiago/gocron"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// VERSION represents the current challengescot version
const VERSION = "1.0.0"

const (
	// fileShareSubType is the subtype of a message posted with files
	fileShareSubType = "file_share"
	defaultPluginID  = "default"
)

// Bot represents what defines a challengescot instance (mostly, a name and its plugins)
type Bot struct {
	name          string
	config        *viper.Viper
	defaultAction Answerer
	plugins       []*Plugin
	closers       []io.Closer

	// Internal state as an optimization when looping through all actions
	slashCommands     map[string]*Plugin
	commandsWithID    []actionDefinitionWithID
	hearActionsWithID []actionDefinitionWithID
	interactions      map[interactionKey]interactionWithID

	selfID    string
	selfBotID string

	services services
	router   *partitionRouter
	inflight sync.WaitGroup
	stopJobs chan bool

	log   SLogger
	meter metric.Meter
	*instrumenter
}

// Plugin represents a plugin (its name, action definitions and the slack services injected into it)
type Plugin struct {
	Name string

	// SlashCommand is the slash command routed to the plugin's commands (i.e. /challenge)
	SlashCommand string

	// Commands are evaluated for the plugin's slash command as well as for direct messages and messages mentioning the bot
	Commands []ActionDefinition

	// HearActions are evaluated for all other messages
	HearActions []ActionDefinition

	// Interactions handle block actions (button clicks) and view submissions (modals)
	Interactions []InteractionDefinition

	ScheduledActions []ScheduledActionDefinition

	// Services injected by challengescot when the plugin is registered, before the bot runs
	ChatDriver     ChatDriver
	UserInfoFinder UserInfoFinder
	FileUploader   FileUploader
	EmojiReactor   EmojiReactor
	Logger         SLogger
}

// ActionDefinition represents how an action is triggered, published, used and described
// along with defining the function defining its behavior
type ActionDefinition struct {
	// Indicates whether the action should be omitted from the help message
	Hidden bool

	// Matcher that will determine whether or not the action should be triggered
	Match Matcher

	// Usage example
	Usage string

	// Help description for the action
	Description string

	// Function to execute if the Matcher matches
	Answer Answerer
}

// String returns a friendly description of an ActionDefinition
func (a ActionDefinition) String() string {
	return fmt.Sprintf("`%s` - %s", a.Usage, a.Description)
}

// Matcher is the function that determines whether or not an action should be triggered. Note that a match doesn't guarantee that the action should
// actually respond with anything once invoked
type Matcher func(m *IncomingMessage) bool

// Answerer is what gets executed when an ActionDefinition is triggered. To signal the absence of an answer, an action should return nil
type Answerer func(m *IncomingMessage) *Answer

// ScheduledActionDefinition represents when a scheduled action is triggered as well
// as what it does and how
type ScheduledActionDefinition struct {
	// Indicates whether the action should be omitted from the help message
	Hidden bool

	// Schedule definition determining when the action runs
	Schedule schedule.Definition

	// Help description for the scheduled action
	Description string

	// Action is the function that is invoked when the schedule activates
	Action ScheduledAction
}

// String returns a friendly description of a ScheduledActionDefinition
func (a ScheduledActionDefinition) String() string {
	return fmt.Sprintf("`%s` - %s", a.Schedule, a.Description)
}

// ScheduledAction is what gets executed when a ScheduledActionDefinition is triggered (by its ScheduleDefinition)
type ScheduledAction func()

// IncomingMessage holds data for an incoming message or slash command
type IncomingMessage struct {
	// NormalizedText is the message text with the bot mention prefix (or the slash command) removed
	NormalizedText string

	Channel         string
	User            string
	Text            string
	Timestamp       string
	ThreadTimestamp string
	SubType         string
	BotID           string

	// Direct is true when the message comes from a direct message conversation
	Direct bool

	Files []File

	// TriggerID is set for slash commands and allows opening a modal
	TriggerID string
}

// File is a file shared with a message
type File struct {
	ID                 string
	Name               string
	URLPrivateDownload string
	Permalink          string
}

// actionDefinitionWithID holds an action definition along with its identifier string
type actionDefinitionWithID struct {
	ActionDefinition
	id     string
	plugin string
}

// Option defines an option for a Bot
type Option func(b *Bot)

// OptionLog sets a logger for the bot
func OptionLog(logger SLogger) func(*Bot) {
	return func(b *Bot) {
		b.log = logger
	}
}

// OptionMeter sets the meter used for the bot and slack api metrics
func OptionMeter(meter metric.Meter) func(*Bot) {
	return func(b *Bot) {
		b.meter = meter
	}
}

// New creates a new challengescot instance from a name and configuration
func New(name string, v *viper.Viper, options ...Option) (b *Bot, err error) {
	b = new(Bot)
	b.name = name
	b.config = v
	b.plugins = make([]*Plugin, 0)
	b.closers = make([]io.Closer, 0)
	b.defaultAction = func(m *IncomingMessage) *Answer {
		return &Answer{Text: fmt.Sprintf("I don't understand, ask me for \"%s\" to get a list of things I do", helpCommand)}
	}

	for _, opt := range options {
		opt(b)
	}

	if b.log == nil {
		b.log = NewSLogger(os.Stdout, v.GetBool(config.DebugKey))
	}

	if b.instrumenter, err = newInstrumenter(name, b.meter); err != nil {
		return nil, errors.Wrap(err, "failed to create instrumenter")
	}

	return b, nil
}

// RegisterPlugin registers a plugin with the challengescot engine. This should be invoked
// prior to calling Run
func (b *Bot) RegisterPlugin(p *Plugin) {
	b.plugins = append(b.plugins, p)
}

// Run connects to slack with socket mode and processes events until the context is done
func (b *Bot) Run(ctx context.Context) (err error) {
	api := slack.New(
		b.config.GetString(config.TokenKey),
		slack.OptionAppLevelToken(b.config.GetString(config.AppTokenKey)),
		slack.OptionDebug(b.config.GetBool(config.DebugKey)),
	)

	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to authenticate with slack")
	}

	b.selfID = auth.UserID
	b.selfBotID = auth.BotID
	b.log.Printf("Authenticated as [%s] (bot id [%s]) on team [%s]", auth.User, auth.BotID, auth.Team)

	s, err := b.newServices(api)
	if err != nil {
		return err
	}

	client := socketmode.New(api, socketmode.OptionDebug(b.config.GetBool(config.DebugKey)))

	go func() {
		if err := client.RunContext(ctx); err != nil && ctx.Err() == nil {
			b.log.Printf("Socket mode connection terminated: %v", err)
		}
	}()

	return b.serve(ctx, client.Events, client, s)
}

// Close closes all closers of this challengescot instance
func (b *Bot) Close() (err error) {
	for _, c := range b.closers {
		if cerr := c.Close(); cerr != nil {
			b.log.Printf("Error closing: %v", cerr)
			err = cerr
		}
	}

	return err
}

// services holds the slack services injected into plugins
type services struct {
	chatDriver     ChatDriver
	userInfoFinder UserInfoFinder
	fileUploader   FileUploader
	emojiReactor   EmojiReactor
	webhookPoster  webhookPoster
}

// newServices wraps the slack client with telemetry and caching
func (b *Bot) newServices(api *slack.Client) (s services, err error) {
	if s.chatDriver, err = newChatDriverWithTelemetry(api, b.name, b.meter); err != nil {
		return s, err
	}

	uploader, err := newSlackFileUploaderWithTelemetry(api, b.name, b.meter)
	if err != nil {
		return s, err
	}
	s.fileUploader = NewFileUploader(uploader)

	if s.emojiReactor, err = newEmojiReactorWithTelemetry(api, b.name, b.meter); err != nil {
		return s, err
	}

	finder, err := newUserInfoFinderWithTelemetry(api, b.name, b.meter)
	if err != nil {
		return s, err
	}

	if s.userInfoFinder, err = NewCachingUserInfoFinder(b.config, finder, b.log); err != nil {
		return s, err
	}

	s.webhookPoster = slack.PostWebhookContext

	return s, nil
}

// acker acknowledges socket mode requests. socketmode.Client implements it
type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// serve injects services into plugins, starts the workers and the scheduler and processes events until the
// events channel is closed or the context is done. In-flight processing is waited for before returning
func (b *Bot) serve(ctx context.Context, events <-chan socketmode.Event, ack acker, s services) (err error) {
	b.services = s
	b.injectServices()
	b.indexPluginActions()

	b.router, err = newPartitionRouter(b.config.GetInt(config.MessageProcessingPartitionCount), b.config.GetInt(config.MessageProcessingBufferedMessageCount), b.log, b.instrumenter)
	if err != nil {
		return err
	}
	b.router.start(func(m *IncomingMessage) {
		b.processMessage(ctx, m)
	})

	timeLoc, err := config.GetTimeLocation(b.config)
	if err != nil {
		return err
	}

	if err = b.startActionScheduler(timeLoc); err != nil {
		return err
	}

	b.runLoop(ctx, events, ack)

	b.stopJobs <- true
	b.router.stop()
	b.inflight.Wait()

	return nil
}

// injectServices sets the slack services on every plugin
func (b *Bot) injectServices() {
	for _, p := range b.plugins {
		p.ChatDriver = b.services.chatDriver
		p.UserInfoFinder = b.services.userInfoFinder
		p.FileUploader = b.services.fileUploader
		p.EmojiReactor = b.services.emojiReactor
		p.Logger = b.log
	}
}

// indexPluginActions attaches an action identifier to every plugin action and sets them accordingly
// in the internal state of the bot.
// The identifiers are generated the following way:
//  - pluginName.c[pluginIndexOfTheCommand] for commands
//  - pluginName.h[pluginIndexOfTheHearAction] for hear actions
//  - pluginName.i[pluginIndexOfTheInteraction] for interactions
func (b *Bot) indexPluginActions() {
	b.slashCommands = make(map[string]*Plugin)
	b.commandsWithID = make([]actionDefinitionWithID, 0)
	b.hearActionsWithID = make([]actionDefinitionWithID, 0)
	b.interactions = make(map[interactionKey]interactionWithID)

	for _, p := range b.plugins {
		if p.SlashCommand != "" {
			b.slashCommands[p.SlashCommand] = p
		}

		for i, c := range p.Commands {
			b.commandsWithID = append(b.commandsWithID, actionDefinitionWithID{ActionDefinition: c, id: fmt.Sprintf("%s.c[%d]", p.Name, i), plugin: p.Name})
		}

		for i, h := range p.HearActions {
			b.hearActionsWithID = append(b.hearActionsWithID, actionDefinitionWithID{ActionDefinition: h, id: fmt.Sprintf("%s.h[%d]", p.Name, i), plugin: p.Name})
		}

		for i, in := range p.Interactions {
			key := interactionKey{interactionType: in.Type, id: in.ID}
			if _, exists := b.interactions[key]; exists {
				b.log.Printf("Interaction [%s/%s] of plugin [%s] already registered, ignoring", in.Type, in.ID, p.Name)
				continue
			}

			b.interactions[key] = interactionWithID{InteractionDefinition: in, id: fmt.Sprintf("%s.i[%d]", p.Name, i), plugin: p.Name}
		}
	}
}

// startActionScheduler creates all ScheduledActionDefinition from all plugins and registers them with the scheduler
// Very importantly, it also starts the scheduler
func (b *Bot) startActionScheduler(timeLoc *time.Location) (err error) {
	gocron.ChangeLoc(timeLoc)
	sc := gocron.NewScheduler()

	for _, p := range b.plugins {
		for _, sa := range p.ScheduledActions {
			j, err := schedule.NewJob(sc, sa.Schedule)
			if err != nil {
				return errors.Wrapf(err, "invalid schedule [%s] for plugin [%s]", sa.Schedule, p.Name)
			}

			b.log.Debugf("Adding job [%v] to scheduler", j)
			j.Do(sa.Action)
		}
	}

	_, t := sc.NextRun()
	b.log.Debugf("Starting scheduler with first job scheduled at [%s]", t)

	b.stopJobs = sc.Start()

	return nil
}

// runLoop processes socket mode events until the channel is closed or the context is done
func (b *Bot) runLoop(ctx context.Context, events <-chan socketmode.Event, ack acker) {
	for {
		select {
		case <-ctx.Done():
			b.log.Debugf("Context done, terminating event processing")
			return

		case evt, ok := <-events:
			if !ok {
				b.log.Debugf("Events channel closed, terminating event processing")
				return
			}

			b.handleEvent(ctx, evt, ack)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event, ack acker) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.log.Printf("Connecting to slack with socket mode...")

	case socketmode.EventTypeConnectionError:
		b.log.Printf("Connection failed, retrying later...")

	case socketmode.EventTypeConnected:
		b.log.Printf("Connected to slack with socket mode")

	case socketmode.EventTypeEventsAPI:
		b.ack(ack, evt)

		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			b.log.Debugf("Ignoring unexpected events api payload [%+v]", evt.Data)
			return
		}

		if eventsAPIEvent.Type == slackevents.CallbackEvent {
			if msgEvent, ok := eventsAPIEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
				b.processMessageEvent(ctx, msgEvent)
			}
		}

	case socketmode.EventTypeSlashCommand:
		b.ack(ack, evt)

		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			b.log.Debugf("Ignoring unexpected slash command payload [%+v]", evt.Data)
			return
		}

		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			b.processSlashCommand(ctx, cmd)
		}()

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			b.ack(ack, evt)
			b.log.Debugf("Ignoring unexpected interaction payload [%+v]", evt.Data)
			return
		}

		// View submissions are acknowledged with their outcome (i.e. input errors) so they're validated right away.
		// Slow follow-ups run after the acknowledgment
		if callback.Type == slack.InteractionTypeViewSubmission {
			payload, i := b.processViewSubmission(ctx, callback)
			b.ack(ack, evt, payload...)

			if i != nil {
				b.inflight.Add(1)
				go func() {
					defer b.inflight.Done()
					i.RunFollowUps()
				}()
			}

			return
		}

		b.ack(ack, evt)

		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			b.processBlockActions(ctx, callback)
		}()

	default:
		b.log.Debugf("Ignoring event of type [%s]", evt.Type)
	}
}

func (b *Bot) ack(ack acker, evt socketmode.Event, payload ...interface{}) {
	if evt.Request != nil {
		ack.Ack(*evt.Request, payload...)
	}
}

// processMessageEvent turns a message event into an IncomingMessage and routes it to its conversation's partition
func (b *Bot) processMessageEvent(ctx context.Context, e *slackevents.MessageEvent) {
	b.recordEventSeen(ctx, messageEventType)

	// Edits, deletions and other system messages aren't relevant
	if e.SubType != "" && e.SubType != fileShareSubType {
		b.log.Debugf("Ignoring message [%s] with subtype [%s]", e.TimeStamp, e.SubType)
		return
	}

	if e.User == b.selfID || (e.BotID != "" && e.BotID == b.selfBotID) {
		b.log.Debugf("Ignoring message from user [%s] because that's \"us\" [%s]", e.User, b.selfID)
		return
	}

	b.router.route(newIncomingMessage(e))
}

// newIncomingMessage creates an IncomingMessage from a message event
func newIncomingMessage(e *slackevents.MessageEvent) (m *IncomingMessage) {
	m = new(IncomingMessage)
	m.NormalizedText = e.Text
	m.Text = e.Text
	m.Channel = e.Channel
	m.User = e.User
	m.Timestamp = e.TimeStamp
	m.ThreadTimestamp = e.ThreadTimeStamp
	m.SubType = e.SubType
	m.BotID = e.BotID
	m.Direct = isDirectChannel(e.Channel)
	m.Files = make([]File, 0, len(e.Files))

	for _, f := range e.Files {
		m.Files = append(m.Files, File{ID: f.ID, Name: f.Name, URLPrivateDownload: f.URLPrivateDownload, Permalink: f.Permalink})
	}

	return m
}

// isDirectChannel returns true if the channel is a direct message conversation
func isDirectChannel(channelID string) bool {
	return strings.HasPrefix(channelID, "D")
}

// processMessage handles routing the message to commands or hear actions according to the context
// The rules are the following:
// 	1. If the message is on a channel with a direct mention to us (<@selfID>), we route to commands
// 	2. If the message is a direct message to us, we route to commands
// 	3. Otherwise (regular conversation), we route to hear actions
func (b *Bot) processMessage(ctx context.Context, m *IncomingMessage) {
	d := measure(func() {
		mention := fmt.Sprintf("<@%s>", b.selfID)

		if b.selfID != "" && strings.HasPrefix(m.Text, mention) {
			m.NormalizedText = strings.TrimSpace(strings.TrimPrefix(m.Text, mention))
			b.sendAnswers(ctx, m, b.handleCommand(ctx, b.commandsWithID, b.plugins, m))
		} else if m.Direct {
			b.sendAnswers(ctx, m, b.handleCommand(ctx, b.commandsWithID, b.plugins, m))
		} else {
			b.sendAnswers(ctx, m, b.runActions(ctx, b.hearActionsWithID, m))
		}
	})

	b.recordEventProcessed(ctx, messageEventType, d)
}

// handleCommand handles a command by trying a match with all known actions. If no match is found, the default action is invoked.
// A help request is answered with the usage of the given plugins
func (b *Bot) handleCommand(ctx context.Context, actions []actionDefinitionWithID, plugins []*Plugin, m *IncomingMessage) (answers []*Answer) {
	if isHelpRequest(m.NormalizedText) {
		return []*Answer{b.helpAnswer(plugins, m)}
	}

	answers = b.runActions(ctx, actions, m)
	if len(answers) == 0 {
		return []*Answer{b.defaultAction(m)}
	}

	return answers
}

// runActions loops over all action definitions and invokes their answerer if the incoming message matches.
// Note that more than one action can be triggered during the processing of a single message
func (b *Bot) runActions(ctx context.Context, actions []actionDefinitionWithID, m *IncomingMessage) (answers []*Answer) {
	answers = make([]*Answer, 0)

	for _, action := range actions {
		var answer *Answer
		matched := false

		d := measure(func() {
			if matched = action.Match(m); matched {
				answer = action.Answer(m)
			}
		})

		if !matched {
			continue
		}

		b.log.Debugf("Action [%s] matched message [%s]", action.id, m.Timestamp)

		if answer != nil {
			answers = append(answers, answer)
			b.recordPluginProcessing(ctx, action.plugin, d, 1)
		} else {
			b.recordPluginProcessing(ctx, action.plugin, d, 0)
		}
	}

	return answers
}

// sendAnswers sends answers on the channel of the message. Answers to messages posted in a thread go to that thread
// unless configured otherwise
func (b *Bot) sendAnswers(ctx context.Context, m *IncomingMessage, answers []*Answer) {
	for _, a := range answers {
		if err := b.sendAnswer(ctx, m, a); err != nil {
			b.log.Printf("Unable to send answer to message [%s] on [%s]: %v", m.Timestamp, m.Channel, err)
		}
	}
}

func (b *Bot) sendAnswer(ctx context.Context, m *IncomingMessage, a *Answer) (err error) {
	sendOpts := ApplyAnswerOpts(a.Options...)

	msgOpts := []slack.MsgOption{slack.MsgOptionText(a.Text, false)}
	if len(a.ContentBlocks) > 0 {
		msgOpts = append(msgOpts, slack.MsgOptionBlocks(a.ContentBlocks...))
	}

	if threadTS := resolveThreadTimestamp(m, sendOpts); threadTS != "" {
		msgOpts = append(msgOpts, slack.MsgOptionTS(threadTS))

		if sendOpts[BroadcastOpt] == "true" {
			msgOpts = append(msgOpts, slack.MsgOptionBroadcast())
		}
	}

	if userID, ok := sendOpts[EphemeralAnswerToOpt]; ok {
		_, err = b.services.chatDriver.PostEphemeralContext(ctx, m.Channel, userID, msgOpts...)
		return err
	}

	_, _, err = b.services.chatDriver.PostMessageContext(ctx, m.Channel, msgOpts...)
	return err
}

// resolveThreadTimestamp returns the timestamp of the thread to answer in or an empty string to answer in the channel
func resolveThreadTimestamp(m *IncomingMessage, sendOpts map[string]string) string {
	switch sendOpts[ThreadedReplyOpt] {
	case "false":
		return ""
	case "true":
		if ts := sendOpts[ThreadTimestamp]; ts != "" {
			return ts
		}

		if m.ThreadTimestamp != "" {
			return m.ThreadTimestamp
		}

		return m.Timestamp
	}

	return m.ThreadTimestamp
}
