package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inputs = append(m.inputs, params)
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func testMessage() ReportCreatedMessage {
	return ReportCreatedMessage{
		ReportID:     "rep_1",
		ClientID:     "client_1",
		PropertyID:   "prop_1",
		PropertyName: "グランメゾン青山",
		PeriodStart:  "2024-06-03",
		PeriodEnd:    "2024-06-10",
		CreatedAt:    time.Date(2024, 6, 10, 1, 0, 0, 0, time.UTC),
	}
}

func TestReportNotifier_PublishReportCreated(t *testing.T) {
	client := &mockSQS{}
	n := NewReportNotifier(client, "https://sqs.ap-northeast-1.amazonaws.com/123/report-notifications", nil)

	err := n.PublishReportCreated(context.Background(), testMessage())
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)

	input := client.inputs[0]
	assert.Equal(t, "https://sqs.ap-northeast-1.amazonaws.com/123/report-notifications", aws.ToString(input.QueueUrl))

	var decoded ReportCreatedMessage
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(input.MessageBody)), &decoded))
	assert.Equal(t, "rep_1", decoded.ReportID)
	assert.Equal(t, "グランメゾン青山", decoded.PropertyName)

	attr, ok := input.MessageAttributes["event_type"]
	require.True(t, ok)
	assert.Equal(t, "report_created", aws.ToString(attr.StringValue))
}

func TestReportNotifier_EmptyQueueURLSkipsPublish(t *testing.T) {
	client := &mockSQS{}
	n := NewReportNotifier(client, "", nil)

	err := n.PublishReportCreated(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Empty(t, client.inputs)
}

func TestReportNotifier_SendFailure(t *testing.T) {
	client := &mockSQS{err: errors.New("queue unreachable")}
	n := NewReportNotifier(client, "https://sqs.example.com/q", nil)

	err := n.PublishReportCreated(context.Background(), testMessage())
	require.Error(t, err)
}
