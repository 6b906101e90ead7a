// Package plugins provides the plugins of a challengescot instance. The challenge plugin runs timed coding
// challenges in slack threads
package plugins

import (
	"context"
	"fmt"
	"github.com/codeclub/challengescot"
	"github.com/codeclub/challengescot/actions"
	"github.com/codeclub/challengescot/challenge"
	"github.com/codeclub/challengescot/plugin"
	"github.com/codeclub/challengescot/schedule"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"io"
	"strings"
	"time"
)

const (
	// ChallengePluginName holds identifying name for the challenge plugin
	ChallengePluginName = "challenge"

	challengeSlashCommand = "/challenge"
	gradeActionID         = "grade"
	gradeScoreCallbackID  = "grade_score"
	scoreBlockID          = "score"
	resultsFilename       = "challenge_results.csv"
	acceptedEmoji         = "white_check_mark"
)

// Configuration keys
const (
	logChannelKey     = "logChannel"
	previewLimitKey   = "previewLimit"
	gradingTimeoutKey = "gradingTimeout"
	maxDurationKey    = "maxDuration"
	scheduledKey      = "scheduled"
)

// ResultArchiver archives results of completed challenges and reads them back
type ResultArchiver interface {
	challenge.ResultArchive
	Result(challengeID string) (r *challenge.Result, err error)
}

// ScheduledChallenge is a recurring challenge opened on a schedule
type ScheduledChallenge struct {
	Schedule  schedule.Definition `mapstructure:"schedule"`
	Channel   string              `mapstructure:"channel"`
	Initiator string              `mapstructure:"initiator"`
	Prompt    string              `mapstructure:"prompt"`
	Minutes   int                 `mapstructure:"minutes"`
}

// Challenge holds the plugin data for the challenge plugin. It implements the messaging, file fetching and
// authorization needed by the challenge orchestrator on top of the slack services injected in the plugin
type Challenge struct {
	*challengescot.Plugin
	orchestrator *challenge.Orchestrator
	archive      ResultArchiver
	logChannel   string
}

// NewChallenge creates a new instance of the challenge plugin. The archive is optional (nil disables the
// results command) and options are applied to the challenge orchestrator
func NewChallenge(c *viper.Viper, archive ResultArchiver, options ...challenge.Option) (p *Challenge, err error) {
	p = new(Challenge)
	p.archive = archive
	p.logChannel = c.GetString(logChannelKey)

	opts := []challenge.Option{challenge.OptionLogger(pluginLogger{p: p})}
	if c.IsSet(previewLimitKey) {
		opts = append(opts, challenge.OptionPreviewLimit(c.GetInt(previewLimitKey)))
	}

	if c.IsSet(gradingTimeoutKey) {
		opts = append(opts, challenge.OptionGradingTimeout(c.GetDuration(gradingTimeoutKey)))
	}

	if c.IsSet(maxDurationKey) {
		opts = append(opts, challenge.OptionMaxDuration(c.GetDuration(maxDurationKey)))
	}

	if archive != nil {
		opts = append(opts, challenge.OptionArchive(archive))
	}

	if p.orchestrator, err = challenge.NewOrchestrator(p, p, p, append(opts, options...)...); err != nil {
		return nil, err
	}

	scheduled := make([]ScheduledChallenge, 0)
	if err = c.UnmarshalKey(scheduledKey, &scheduled); err != nil {
		return nil, errors.Wrapf(err, "invalid [%s] configuration for plugin [%s]", scheduledKey, ChallengePluginName)
	}

	pb := plugin.New(ChallengePluginName).
		WithSlashCommand(challengeSlashCommand).
		WithCommand(actions.NewCommand().
			WithMatcher(matchList).
			WithUsage("list").
			WithDescription("List the active challenges").
			WithAnswerer(p.answerList).
			Build()).
		WithCommand(actions.NewCommand().
			WithMatcher(matchResults).
			WithUsage("results <challengeID>").
			WithDescription("Show the results of a completed challenge").
			WithAnswerer(p.answerResults).
			Build()).
		WithCommand(actions.NewCommand().
			WithMatcher(matchOpen).
			WithUsage("<minutes> <prompt>").
			WithDescription("Start a coding challenge in this channel (admins only)").
			WithAnswerer(p.openChallenge).
			Build()).
		WithHearAction(actions.NewHearAction().
			Hidden().
			WithMatcher(p.matchChallengeThread).
			WithUsage("reply to a challenge with your code as a file").
			WithDescription("Collect submissions of active challenges").
			WithAnswerer(p.submit).
			Build()).
		WithInteraction(actions.NewInteraction(slack.InteractionTypeBlockActions, gradeActionID).
			WithHandler(p.requestScore).
			Build()).
		WithInteraction(actions.NewInteraction(slack.InteractionTypeViewSubmission, gradeScoreCallbackID).
			WithHandler(p.recordGrade).
			Build())

	for _, sc := range scheduled {
		if err = sc.Schedule.Validate(); err != nil {
			return nil, errors.Wrapf(err, "invalid schedule for challenge [%s]", sc.Prompt)
		}

		pb = pb.WithScheduledAction(actions.NewScheduledAction().
			WithSchedule(sc.Schedule).
			WithDescriptionf("Start a %d minute challenge in <#%s>", sc.Minutes, sc.Channel).
			WithAction(p.openScheduledChallenge(sc)).
			Build())
	}

	p.Plugin = pb.Build()

	return p, nil
}

// Orchestrator returns the orchestrator running the plugin's challenges
func (p *Challenge) Orchestrator() *challenge.Orchestrator {
	return p.orchestrator
}

// Close closes the result archive, if it needs closing
func (p *Challenge) Close() (err error) {
	if closer, ok := p.archive.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

func matchList(m *challengescot.IncomingMessage) bool {
	return m.NormalizedText == "list"
}

// matchResults matches the results command word on its own, not prompts that merely start with it
func matchResults(m *challengescot.IncomingMessage) bool {
	fields := strings.Fields(m.NormalizedText)
	return len(fields) > 0 && fields[0] == "results"
}

func matchOpen(m *challengescot.IncomingMessage) bool {
	return !matchList(m) && !matchResults(m)
}

// parseOpenCommand extracts the duration (in minutes) and the prompt from "<minutes> <prompt>"
func parseOpenCommand(text string) (d time.Duration, prompt string, err error) {
	fields := strings.SplitN(strings.TrimSpace(text), " ", 2)
	if len(fields) < 2 {
		return 0, "", fmt.Errorf("expected a number of minutes followed by a prompt")
	}

	minutes, err := cast.ToIntE(fields[0])
	if err != nil {
		return 0, "", fmt.Errorf("[%s] isn't a number of minutes", fields[0])
	}

	return time.Duration(minutes) * time.Minute, strings.TrimSpace(fields[1]), nil
}

// openChallenge opens a challenge in the channel the command was typed in
func (p *Challenge) openChallenge(m *challengescot.IncomingMessage) *challengescot.Answer {
	d, prompt, err := parseOpenCommand(m.NormalizedText)
	if err != nil {
		return &challengescot.Answer{Text: fmt.Sprintf(":warning: %s. Usage: `%s <minutes> <prompt>`", err.Error(), challengeSlashCommand)}
	}

	inv := challenge.Invocation{
		Initiator: p.participant(m.User),
		ChannelID: m.Channel,
		Direct:    m.Direct,
		Prompt:    prompt,
		Duration:  d,
	}

	c, err := p.orchestrator.Open(context.Background(), inv)
	if err != nil {
		return &challengescot.Answer{Text: describeOpenError(err)}
	}

	return &challengescot.Answer{Text: fmt.Sprintf("Started challenge `%s`, ending %s.", c.ID, slackDate(c.EndsAt))}
}

func describeOpenError(err error) string {
	switch e := errors.Cause(err).(type) {
	case *challenge.ContextError:
		return ":no_entry: Challenges can only be started from a channel."
	case *challenge.AuthorizationError:
		return ":no_entry: Only workspace admins can start challenges."
	case *challenge.ValidationError:
		return fmt.Sprintf(":warning: Invalid challenge: %s.", e.Reason)
	}

	return ":x: Something went wrong starting the challenge. Please try again."
}

// openScheduledChallenge returns the scheduled action opening a recurring challenge
func (p *Challenge) openScheduledChallenge(sc ScheduledChallenge) challengescot.ScheduledAction {
	return func() {
		inv := challenge.Invocation{
			Initiator: p.participant(sc.Initiator),
			ChannelID: sc.Channel,
			Direct:    strings.HasPrefix(sc.Channel, "D"),
			Prompt:    sc.Prompt,
			Duration:  time.Duration(sc.Minutes) * time.Minute,
		}

		if _, err := p.orchestrator.Open(context.Background(), inv); err != nil {
			p.logger().Printf("[%s] Failed to open scheduled challenge in [%s]: %v", ChallengePluginName, sc.Channel, err)
		}
	}
}

func (p *Challenge) answerList(m *challengescot.IncomingMessage) *challengescot.Answer {
	active := p.orchestrator.Active()
	if len(active) == 0 {
		return &challengescot.Answer{Text: "No active challenges."}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active challenges:\n")
	for _, c := range active {
		fmt.Fprintf(&sb, "\t• `%s` in <#%s> by %s (%s, ends %s): %s\n", c.ID, c.ChannelID, c.Initiator.Name, c.State(), slackDate(c.EndsAt), c.Prompt)
	}

	return &challengescot.Answer{Text: sb.String()}
}

func (p *Challenge) answerResults(m *challengescot.IncomingMessage) *challengescot.Answer {
	fields := strings.Fields(m.NormalizedText)
	if len(fields) != 2 {
		return &challengescot.Answer{Text: fmt.Sprintf(":warning: Usage: `%s results <challengeID>`", challengeSlashCommand)}
	}
	id := fields[1]

	if p.archive == nil {
		return &challengescot.Answer{Text: "Results aren't archived on this instance."}
	}

	r, err := p.archive.Result(id)
	if err != nil {
		p.logger().Debugf("[%s] No archived result for [%s]: %v", ChallengePluginName, id, err)
		return &challengescot.Answer{Text: fmt.Sprintf("No results found for challenge `%s`.", id)}
	}

	return &challengescot.Answer{Text: renderResult(r)}
}

// matchChallengeThread matches messages posted in the thread of an active challenge
func (p *Challenge) matchChallengeThread(m *challengescot.IncomingMessage) bool {
	if m.ThreadTimestamp == "" || m.ThreadTimestamp == m.Timestamp {
		return false
	}

	_, ok := p.orchestrator.ChallengeInThread(challenge.Thread{ChannelID: m.Channel, Timestamp: m.ThreadTimestamp})
	return ok
}

// submit hands a thread reply to the challenge intake. Outcomes are communicated privately so there's never an answer
func (p *Challenge) submit(m *challengescot.IncomingMessage) *challengescot.Answer {
	a := challenge.Attempt{ChannelID: m.Channel, Timestamp: m.Timestamp}
	if len(m.Files) > 0 {
		f := m.Files[0]
		a.Attachment = &challenge.Attachment{ID: f.ID, Name: f.Name, URL: f.URLPrivateDownload, Permalink: f.Permalink}
	}

	t := challenge.Thread{ChannelID: m.Channel, Timestamp: m.ThreadTimestamp}
	if _, err := p.orchestrator.Submit(context.Background(), t, p.participant(m.User), a); err != nil {
		p.logRejection(fmt.Sprintf("Submission [%s] from [%s]", m.Timestamp, m.User), err)
	}

	return nil
}

// requestScore handles a click on a submission's grade button by opening the score modal
func (p *Challenge) requestScore(i *challengescot.Interaction) map[string]string {
	participantID, challengeID, err := parseSubmissionRef(i.Value)
	if err != nil {
		p.logger().Printf("[%s] Invalid grade button value [%s]: %v", ChallengePluginName, i.Value, err)
		return nil
	}

	ctx := context.Background()
	grader := challenge.Participant{ID: i.User, Name: i.UserName}

	sub, err := p.orchestrator.RequestScore(ctx, challengeID, grader, participantID)
	if err != nil {
		p.logRejection(fmt.Sprintf("Grade click from [%s] for [%s]", i.User, i.Value), err)
		if nerr := p.NotifyUser(ctx, i.User, describeGradingError(err)); nerr != nil {
			p.logger().Printf("[%s] Error notifying [%s]: %v", ChallengePluginName, i.User, nerr)
		}

		return nil
	}

	if _, err := p.ChatDriver.OpenViewContext(ctx, i.TriggerID, newScoreModal(sub, i.Value)); err != nil {
		p.logger().Printf("[%s] Error opening score modal for [%s]: %v", ChallengePluginName, i.User, err)
	}

	return nil
}

// recordGrade handles the submission of the score modal. Rejections are shown on the score input. Telling the
// grader and delivering the result happen after the modal is acknowledged
func (p *Challenge) recordGrade(i *challengescot.Interaction) map[string]string {
	participantID, challengeID, err := parseSubmissionRef(i.Value)
	if err != nil {
		p.logger().Printf("[%s] Invalid score modal metadata [%s]: %v", ChallengePluginName, i.Value, err)
		return map[string]string{scoreBlockID: "This submission can't be graded."}
	}

	grader := challenge.Participant{ID: i.User, Name: i.UserName}
	_, finish, err := p.orchestrator.StoreGrade(context.Background(), challengeID, grader, participantID, i.Inputs[scoreBlockID])
	if err != nil {
		p.logRejection(fmt.Sprintf("Grade from [%s] for [%s]", i.User, i.Value), err)
		return map[string]string{scoreBlockID: describeGradingError(err)}
	}

	i.Then(func() {
		finish(context.Background())
	})

	return nil
}

// logRejection logs why something wasn't accepted. Expected rejections are only worth a debug line
func (p *Challenge) logRejection(what string, err error) {
	if challenge.IsRejection(err) {
		p.logger().Debugf("[%s] %s rejected: %v", ChallengePluginName, what, err)
		return
	}

	p.logger().Printf("[%s] %s not accepted: %v", ChallengePluginName, what, err)
}

func describeGradingError(err error) string {
	switch e := errors.Cause(err); e {
	case challenge.ErrInvalidScore:
		return "Please enter a valid number between 0 and 100."
	case challenge.ErrAlreadyGraded:
		return "This submission has already been graded."
	case challenge.ErrExpiredSession:
		return "Grading for this challenge has expired."
	case challenge.ErrUnknownChallenge:
		return "This challenge is no longer being graded."
	case challenge.ErrUnknownSubmission:
		return "This submission doesn't exist."
	default:
		if _, ok := e.(*challenge.AuthorizationError); ok {
			return "Only the challenge initiator can grade submissions."
		}
	}

	return "Something went wrong recording the grade. Please try again."
}

// submissionRef identifies a submission as <participantID>:<challengeID>
func submissionRef(participantID string, challengeID string) string {
	return fmt.Sprintf("%s:%s", participantID, challengeID)
}

func parseSubmissionRef(ref string) (participantID string, challengeID string, err error) {
	parts := strings.SplitN(ref, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected <participantID>:<challengeID> but got [%s]", ref)
	}

	return parts[0], parts[1], nil
}

func newScoreModal(sub challenge.Submission, ref string) slack.ModalViewRequest {
	input := &slack.InputBlock{
		Type:    slack.MBTInput,
		BlockID: scoreBlockID,
		Label:   slack.NewTextBlockObject(slack.PlainTextType, "Score (0-100)", false, false),
		Element: slack.NewPlainTextInputBlockElement(slack.NewTextBlockObject(slack.PlainTextType, "87.5", false, false), scoreBlockID),
	}

	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      gradeScoreCallbackID,
		PrivateMetadata: ref,
		Title:           slack.NewTextBlockObject(slack.PlainTextType, "Grade submission", false, false),
		Submit:          slack.NewTextBlockObject(slack.PlainTextType, "Submit", false, false),
		Close:           slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("Submission from *%s* (%s)", sub.Participant.Name, sub.Attachment.Name), false, false), nil, nil),
			input,
		}},
	}
}

func (p *Challenge) participant(userID string) challenge.Participant {
	if p.UserInfoFinder == nil {
		return challenge.Participant{ID: userID, Name: userID}
	}

	return challenge.Participant{ID: userID, Name: challengescot.DisplayName(p.UserInfoFinder, userID)}
}

func (p *Challenge) logger() challenge.Logger {
	return pluginLogger{p: p}
}

// Announce posts the challenge announcement in the channel it was opened from. Its thread is the challenge thread
func (p *Challenge) Announce(ctx context.Context, c *challenge.Challenge) (t challenge.Thread, err error) {
	text := fmt.Sprintf(":trophy: *New coding challenge* started by <@%s>!\n>%s\nYou have %s (until %s). Reply in this thread with your code as a file attachment. One submission per person.",
		c.Initiator.ID, c.Prompt, c.Duration, slackDate(c.EndsAt))

	channel, ts, err := p.ChatDriver.PostMessageContext(ctx, c.ChannelID, slack.MsgOptionText(text, false))
	if err != nil {
		return t, err
	}

	return challenge.Thread{ChannelID: channel, Timestamp: ts}, nil
}

// PostInThread posts a message in a challenge thread
func (p *Challenge) PostInThread(ctx context.Context, t challenge.Thread, text string) (err error) {
	_, _, err = p.ChatDriver.PostMessageContext(ctx, t.ChannelID, slack.MsgOptionText(text, false), slack.MsgOptionTS(t.Timestamp))
	return err
}

// NotifyUser sends a direct message to a user
func (p *Challenge) NotifyUser(ctx context.Context, userID string, text string) (err error) {
	return challengescot.SendDirectMessage(ctx, p.ChatDriver, userID, slack.MsgOptionText(text, false))
}

// Discard deletes a rejected message
func (p *Challenge) Discard(ctx context.Context, a challenge.Attempt) (err error) {
	_, _, err = p.ChatDriver.DeleteMessageContext(ctx, a.ChannelID, a.Timestamp)
	return err
}

// Acknowledge reacts to an accepted submission
func (p *Challenge) Acknowledge(ctx context.Context, a challenge.Attempt) (err error) {
	return p.EmojiReactor.AddReactionContext(ctx, acceptedEmoji, slack.NewRefToMessage(a.ChannelID, a.Timestamp))
}

// LogEvent posts to the log channel, if one is configured
func (p *Challenge) LogEvent(ctx context.Context, text string) (err error) {
	if p.logChannel == "" {
		return nil
	}

	_, _, err = p.ChatDriver.PostMessageContext(ctx, p.logChannel, slack.MsgOptionText(text, false))
	return err
}

// SendGradingRequest sends the initiator a preview of a submission along with a button to grade it
func (p *Challenge) SendGradingRequest(ctx context.Context, c *challenge.Challenge, s challenge.Submission) (err error) {
	text := fmt.Sprintf("Submission from %s for challenge `%s`", s.Participant.Name, c.ID)

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Submission from %s* (<%s|%s>)\n```%s```", s.Participant.Name, s.Attachment.Permalink, s.Attachment.Name, s.Preview), false, false), nil, nil),
		slack.NewActionBlock("", slack.NewButtonBlockElement(gradeActionID, submissionRef(s.Participant.ID, c.ID), slack.NewTextBlockObject(slack.PlainTextType, "Grade", false, false))),
	}

	return challengescot.SendDirectMessage(ctx, p.ChatDriver, c.Initiator.ID, slack.MsgOptionText(text, false), slack.MsgOptionBlocks(blocks...))
}

// DeliverResult posts the result table in the challenge thread and uploads it as a csv file. Challenges
// without submissions only get the table
func (p *Challenge) DeliverResult(ctx context.Context, c *challenge.Challenge, r *challenge.Result) (err error) {
	if err = p.PostInThread(ctx, c.Thread, renderResult(r)); err != nil {
		return err
	}

	if len(r.Rows) == 0 {
		return nil
	}

	content, err := r.CSV()
	if err != nil {
		return errors.Wrapf(err, "failed to render results of challenge [%s]", c.ID)
	}

	_, err = p.FileUploader.UploadFile(ctx, slack.FileUploadParameters{Filename: resultsFilename, Filetype: "csv", Title: "Challenge results", Content: string(content)},
		challengescot.UploadToThreadOption(c.Thread.ChannelID, c.Thread.Timestamp))

	return err
}

// Fetch downloads a submitted file
func (p *Challenge) Fetch(ctx context.Context, a challenge.Attachment, w io.Writer) (err error) {
	return p.ChatDriver.GetFileContext(ctx, a.URL, w)
}

// IsAdmin returns true if the user is an admin or an owner of the workspace
func (p *Challenge) IsAdmin(ctx context.Context, userID string) (admin bool, err error) {
	u, err := p.UserInfoFinder.GetUserInfo(userID)
	if err != nil {
		return false, err
	}

	return u.IsAdmin || u.IsOwner, nil
}

func renderResult(r *challenge.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, ":checkered_flag: *Results* for `%s`\n", r.Prompt)
	if r.Partial {
		fmt.Fprintf(&sb, "_Grading time ran out before every submission was graded._\n")
	}
	sb.WriteString(r.Table())

	return sb.String()
}

// slackDate formats a time for slack to render in each reader's timezone
func slackDate(t time.Time) string {
	return fmt.Sprintf("<!date^%d^{date_short_pretty} at {time}|%s>", t.Unix(), t.UTC().Format(time.RFC1123))
}

// pluginLogger logs with the logger injected in the plugin, once it's there
type pluginLogger struct {
	p *Challenge
}

func (l pluginLogger) Printf(format string, v ...interface{}) {
	if l.p.Plugin != nil && l.p.Logger != nil {
		l.p.Logger.Printf(format, v...)
	}
}

func (l pluginLogger) Debugf(format string, v ...interface{}) {
	if l.p.Plugin != nil && l.p.Logger != nil {
		l.p.Logger.Debugf(format, v...)
	}
}
