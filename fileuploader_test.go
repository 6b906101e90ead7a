package challengescot_test

import (
	"context"
	"github.com/codeclub/challengescot"
	"github.com/codeclub/challengescot/test/capture"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestDefaultUpload(t *testing.T) {
	fileUploadCaptor := capture.NewFileUploader()
	uploader := challengescot.NewFileUploader(fileUploadCaptor)

	uploader.UploadFile(context.Background(), slack.FileUploadParameters{Filename: "challenge_results.csv", Filetype: "csv", Title: "Results"})

	assert.Len(t, fileUploadCaptor.FileUploads, 1)
	assert.Equal(t, slack.FileUploadParameters{Filename: "challenge_results.csv", Filetype: "csv", Title: "Results"}, fileUploadCaptor.FileUploads[0])
}

func TestUploadWithExistingTheadOption(t *testing.T) {
	fileUploadCaptor := capture.NewFileUploader()
	uploader := challengescot.NewFileUploader(fileUploadCaptor)

	uploader.UploadFile(context.Background(), slack.FileUploadParameters{Filename: "challenge_results.csv", Filetype: "csv", Title: "Results"}, challengescot.UploadInThreadOption(&challengescot.IncomingMessage{ThreadTimestamp: "100000"}))

	assert.Len(t, fileUploadCaptor.FileUploads, 1)
	assert.Equal(t, slack.FileUploadParameters{Filename: "challenge_results.csv", Filetype: "csv", Title: "Results", ThreadTimestamp: "100000"}, fileUploadCaptor.FileUploads[0])
}

func TestUploadWithExistingTheadOptionButNoThreadInMsg(t *testing.T) {
	fileUploadCaptor := capture.NewFileUploader()
	uploader := challengescot.NewFileUploader(fileUploadCaptor)

	uploader.UploadFile(context.Background(), slack.FileUploadParameters{Filename: "challenge_results.csv", Filetype: "csv", Title: "Results"}, challengescot.UploadInThreadOption(&challengescot.IncomingMessage{}))

	assert.Len(t, fileUploadCaptor.FileUploads, 1)
	assert.Equal(t, slack.FileUploadParameters{Filename: "challenge_results.csv", Filetype: "csv", Title: "Results"}, fileUploadCaptor.FileUploads[0])
}

func TestUploadToThreadOption(t *testing.T) {
	fileUploadCaptor := capture.NewFileUploader()
	uploader := challengescot.NewFileUploader(fileUploadCaptor)

	uploader.UploadFile(context.Background(), slack.FileUploadParameters{Filename: "challenge_results.csv", Content: "Username,Score\n"}, challengescot.UploadToThreadOption("C1", "100.1"))

	assert.Len(t, fileUploadCaptor.FileUploads, 1)
	assert.Equal(t, slack.FileUploadParameters{Filename: "challenge_results.csv", Content: "Username,Score\n", Channels: []string{"C1"}, ThreadTimestamp: "100.1"}, fileUploadCaptor.FileUploads[0])
}
