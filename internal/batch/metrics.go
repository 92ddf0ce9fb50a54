package batch

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchCycleMetrics publishes per-cycle batch metrics:
//
//   - SettingsSelected: count of due settings (no dims)
//   - SettingOutcome:   Dims {Outcome} -- one datum per outcome tag
//   - CycleDuration:    milliseconds (no dims)
//
// Metric failures are logged and never affect the cycle result.
type CloudWatchCycleMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// Compile-time assertion that the publisher satisfies the runner's interface.
var _ CyclePublisher = (*CloudWatchCycleMetrics)(nil)

// NewCloudWatchCycleMetrics creates a publisher for the given namespace.
func NewCloudWatchCycleMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCycleMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchCycleMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// PublishCycle emits the cycle summary in a single PutMetricData call.
func (m *CloudWatchCycleMetrics) PublishCycle(ctx context.Context, stats CycleStats) {
	data := []cwtypes.MetricDatum{
		{
			MetricName: aws.String("SettingsSelected"),
			Value:      aws.Float64(float64(stats.Selected)),
			Unit:       cwtypes.StandardUnitCount,
		},
		{
			MetricName: aws.String("CycleDuration"),
			Value:      aws.Float64(float64(stats.Duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
		},
	}

	for outcome, count := range stats.Outcomes {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String("SettingOutcome"),
			Value:      aws.Float64(float64(count)),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				{
					Name:  aws.String("Outcome"),
					Value: aws.String(string(outcome)),
				},
			},
		})
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to publish cycle metrics",
			"error", err,
			"selected", stats.Selected,
		)
	}
}
