package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Mark records a delivery id so redelivered webhook events are dropped before
// they reach the state machine. The record carries a TTL at least as long as
// the transport's redelivery window; the conditional put makes the check and
// the record one atomic step, so two concurrent deliveries of the same id
// cannot both pass.
func (s *Store) Mark(ctx context.Context, deliveryID string) (bool, error) {
	if strings.TrimSpace(deliveryID) == "" {
		return false, errors.New("repository: Mark: delivery id is required")
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":  &types.AttributeValueMemberS{Value: deliveryPK(deliveryID)},
			"SK":  &types.AttributeValueMemberS{Value: skDelivery},
			"ttl": &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Add(deliveryWindow).Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return false, nil
		}
		return false, fmt.Errorf("repository: Mark put item: %w", err)
	}
	return true, nil
}
