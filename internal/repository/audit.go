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

	"commerce-agent/internal/domain"
)

const auditTTL = 30 * 24 * time.Hour

// Append writes one audit record for a message that crossed the transport
// boundary. Records sort chronologically under the customer's partition key.
func (s *Store) Append(ctx context.Context, entry domain.AuditEntry) error {
	if strings.TrimSpace(entry.CustomerID) == "" {
		return errors.New("repository: Append: customer id is required")
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: custPK(entry.CustomerID)},
		"SK":         &types.AttributeValueMemberS{Value: skPrefixMsg + ts.UTC().Format(time.RFC3339Nano)},
		"customerId": &types.AttributeValueMemberS{Value: entry.CustomerID},
		"direction":  &types.AttributeValueMemberS{Value: string(entry.Direction)},
		"body":       &types.AttributeValueMemberS{Value: entry.Body},
		"ttl":        &types.AttributeValueMemberN{Value: strconv.FormatInt(ts.Add(auditTTL).Unix(), 10)},
	}
	if entry.VendorID != "" {
		item["vendorId"] = &types.AttributeValueMemberS{Value: entry.VendorID}
	}

	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("repository: Append put item: %w", err)
	}
	return nil
}
