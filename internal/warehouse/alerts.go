package warehouse

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type AlertsClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// NotifyLoadFailure publishes a load failure to the alerts topic. A missing
// topic ARN disables alerting.
func NotifyLoadFailure(ctx context.Context, c AlertsClient, topicARN, loadID, table string, loadErr error) error {
	if topicARN == "" {
		return nil
	}

	msg := fmt.Sprintf("RSEM load %s into %s failed: %v", loadID, table, loadErr)
	_, err := c.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Subject:  aws.String("RSEM load failure"),
		Message:  aws.String(msg),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
