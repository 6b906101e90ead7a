package assertplugin

import (
	"fmt"
	"github.com/codeclub/challengescot"
	"github.com/codeclub/challengescot/schedule"
	"github.com/codeclub/challengescot/test"
	"github.com/codeclub/challengescot/test/capture"
	"github.com/slack-go/slack"
	"io/ioutil"
	"strings"
	"testing"
)

// Asserter represents a plugin driver/asserter and holds the bot identifier that tests are using when
// sending test messages for processing
type Asserter struct {
	t         *testing.T
	botUserID string
	logger    challengescot.SLogger
}

// New creates a new asserter with the given botUserId
// (only include the id without the '@' prefix).
// The botUserId is used in order to detect commands formed with
// <@botUserId>
func New(t *testing.T, botUserID string, options ...Option) (a *Asserter) {
	a = new(Asserter)
	a.t = t
	a.botUserID = botUserID

	for _, option := range options {
		option(a)
	}

	return a
}

// Option defines an option for the Asserter
type Option func(*Asserter)

// OptionLog sets a logger for the asserter such that this logger is attached to the plugin when driven by
// the asserter
func OptionLog(logger challengescot.SLogger) func(*Asserter) {
	return func(a *Asserter) {
		a.logger = logger
	}
}

// ResultValidator is a function to do further validation of the answers and emoji reactions resulting from
// a plugin processing of all of its commands and hear actions. The return value is meant to be true if validation
// is successful and false otherwise (following the testify convention)
type ResultValidator func(t *testing.T, answers []*challengescot.Answer, emojis []string) bool

// ResultWithUploadsValidator is a function to do further validation of the answers, emoji reactions and file
// uploads resulting from a plugin processing of all of its commands and hear actions
type ResultWithUploadsValidator func(t *testing.T, answers []*challengescot.Answer, emojis []string, fileUploads []slack.FileUploadParameters) bool

// ScheduledActionValidator is a function to validate the messages (keyed by channel) and the file uploads sent by
// a plugin's scheduled actions
type ScheduledActionValidator func(t *testing.T, sentMsgs map[string][]string, fileUploads []slack.FileUploadParameters) bool

// AnswersAndReacts drives a plugin and collects Answers as well as emoji reactions. Once all of those have been collected,
// it passes handling to a validator to assert the expected answers and emoji reactions. It follows the style of
// github.com/stretchr/testify/assert as far as returning true/false to indicate success for further nested testing.
func (a *Asserter) AnswersAndReacts(p *challengescot.Plugin, m *challengescot.IncomingMessage, validate ResultValidator) (valid bool) {
	return a.AnswersAndReactsWithUploads(p, m, func(t *testing.T, answers []*challengescot.Answer, emojis []string, fileUploads []slack.FileUploadParameters) bool {
		return validate(t, answers, emojis)
	})
}

// AnswersAndReactsWithUploads drives a plugin and collects Answers, emoji reactions and file uploads before
// passing them to a validator
func (a *Asserter) AnswersAndReactsWithUploads(p *challengescot.Plugin, m *challengescot.IncomingMessage, validate ResultWithUploadsValidator) (valid bool) {
	ec := test.NewEmojiReactionCaptor()
	fc := capture.NewFileUploader()
	a.injectServices(p, ec, fc, capture.NewChatDriver())

	answers := a.driveActions(p, m)

	return validate(a.t, answers, ec.Emojis, fc.FileUploads)
}

// RunsOnSchedule runs the plugin's scheduled actions that have the given schedule and passes the messages and
// file uploads they sent to a validator. It returns false if no scheduled action has that schedule
func (a *Asserter) RunsOnSchedule(p *challengescot.Plugin, sched schedule.Definition, validate ScheduledActionValidator) (valid bool) {
	ec := test.NewEmojiReactionCaptor()
	fc := capture.NewFileUploader()
	cd := capture.NewChatDriver()
	a.injectServices(p, ec, fc, cd)

	ran := false
	for _, sa := range p.ScheduledActions {
		if sa.Schedule == sched {
			sa.Action()
			ran = true
		}
	}

	if !ran {
		a.t.Errorf("No scheduled action found with schedule [%s]", sched)
		return false
	}

	sentMsgs := make(map[string][]string)
	for channel, msgs := range cd.SentMessages {
		for _, msg := range msgs {
			sentMsgs[channel] = append(sentMsgs[channel], msg.Text)
		}
	}

	return validate(a.t, sentMsgs, fc.FileUploads)
}

// DoesNotRunOnSchedule asserts that no scheduled action of the plugin has the given schedule
func (a *Asserter) DoesNotRunOnSchedule(p *challengescot.Plugin, sched schedule.Definition) (valid bool) {
	for _, sa := range p.ScheduledActions {
		if sa.Schedule == sched {
			a.t.Errorf("Scheduled action [%s] unexpectedly runs on schedule [%s]", sa.Description, sched)
			return false
		}
	}

	return true
}

func (a *Asserter) injectServices(p *challengescot.Plugin, ec *test.EmojiReactionCaptor, fc *capture.FileUploadCaptor, cd *capture.ChatDriverCaptor) {
	p.EmojiReactor = ec
	p.FileUploader = challengescot.NewFileUploader(fc)
	p.ChatDriver = cd
	p.Logger = a.getLogger()
}

func (a *Asserter) getLogger() challengescot.SLogger {
	if a.logger != nil {
		return a.logger
	}

	return challengescot.NewSLogger(ioutil.Discard, false)
}

func (a *Asserter) driveActions(p *challengescot.Plugin, m *challengescot.IncomingMessage) (answers []*challengescot.Answer) {
	botMentionPrefix := fmt.Sprintf("<@%s> ", a.botUserID)

	inMsg := *m
	inMsg.Direct = inMsg.Direct || strings.HasPrefix(m.Channel, "D")

	if strings.HasPrefix(m.Text, botMentionPrefix) {
		inMsg.NormalizedText = strings.TrimPrefix(m.Text, botMentionPrefix)

		return runActions(p.Commands, &inMsg)
	}

	inMsg.NormalizedText = m.Text

	if inMsg.Direct {
		return runActions(p.Commands, &inMsg)
	}

	return runActions(p.HearActions, &inMsg)
}

func runActions(actions []challengescot.ActionDefinition, m *challengescot.IncomingMessage) (answers []*challengescot.Answer) {
	answers = make([]*challengescot.Answer, 0)

	for _, action := range actions {
		if action.Match(m) {
			a := action.Answer(m)

			if a != nil {
				answers = append(answers, a)
			}
		}
	}

	return answers
}
