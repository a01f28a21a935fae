package sns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublishAPI struct{ mock.Mock }

func (m *mockPublishAPI) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestPublish_EnvelopeAndAttribute(t *testing.T) {
	api := new(mockPublishAPI)
	var got *sns.PublishInput
	api.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{}, nil)

	p := NewPublisher(api, "arn:aws:sns:us-east-1:000000000000:events")
	err := p.Publish(context.Background(), "user.registered", map[string]string{"user_id": "u1"})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:events", aws.ToString(got.TopicArn))
	assert.Equal(t, "user.registered", aws.ToString(got.MessageAttributes["event_type"].StringValue))

	var env struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(got.Message)), &env))
	assert.Equal(t, "user.registered", env.Type)
	assert.Equal(t, "u1", env.Data["user_id"])
}

func TestPublish_WrapsClientError(t *testing.T) {
	api := new(mockPublishAPI)
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := NewPublisher(api, "arn").Publish(context.Background(), "user.registered", nil)
	assert.ErrorContains(t, err, "publish user.registered event")
}
