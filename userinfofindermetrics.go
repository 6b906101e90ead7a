package challengescot

import (
	"context"
	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/metric"
	"time"
)

// userInfoFinderWithTelemetry implements UserInfoFinder with all methods wrapped with open telemetry metrics
type userInfoFinderWithTelemetry struct {
	base UserInfoFinder
	*callTelemetry
}

// newUserInfoFinderWithTelemetry returns an instance of the UserInfoFinder decorated with open telemetry timing and count metrics
func newUserInfoFinderWithTelemetry(base UserInfoFinder, name string, meter metric.Meter) (uf *userInfoFinderWithTelemetry, err error) {
	ct, err := newCallTelemetry("userInfoFinder", name, meter)
	if err != nil {
		return nil, err
	}

	return &userInfoFinderWithTelemetry{base: base, callTelemetry: ct}, nil
}

// GetUserInfo implements UserInfoFinder
func (uf *userInfoFinderWithTelemetry) GetUserInfo(userID string) (user *slack.User, err error) {
	defer func(start time.Time) {
		uf.record(context.Background(), "GetUserInfo", start, err)
	}(time.Now())

	return uf.base.GetUserInfo(userID)
}
