package repository

import (
	"context"
	"encoding/json"
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

const (
	skSession      = "SESSION"
	skPrefixMsg    = "MSG#"
	skDelivery     = "DELIVERY"
	sessionTTL     = 24 * time.Hour
	deliveryWindow = time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by Store.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Store persists conversation sessions, delivery-dedup records and the audit
// log in one DynamoDB table. Expiry is delegated to the table's TTL
// attribute; the version condition on Save turns a TTL deletion racing an
// in-flight event into a conflict rather than a lost write.
type Store struct {
	api       dynamodbAPI
	tableName string
}

// New creates a Store over the given table.
func New(api dynamodbAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Store{api: api, tableName: tableName}, nil
}

// custPK returns the partition key for a customer's records.
func custPK(customerID string) string {
	return "CUST#" + customerID
}

// deliveryPK returns the partition key for a delivery-dedup record.
func deliveryPK(deliveryID string) string {
	return "DLV#" + deliveryID
}

// Load reads the session record for a customer. A missing or expired record
// yields domain.ErrSessionNotFound so the engine creates a fresh session.
func (s *Store) Load(ctx context.Context, customerID string) (*domain.ConversationSession, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: custPK(customerID)},
			"SK": &types.AttributeValueMemberS{Value: skSession},
		},
		// The read side of read-modify-write must observe the latest commit.
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Load get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	state, err := strAttr(out.Item, "state")
	if err != nil {
		return nil, fmt.Errorf("repository: Load: %w", err)
	}
	version, err := intAttr(out.Item, "version")
	if err != nil {
		return nil, fmt.Errorf("repository: Load: %w", err)
	}

	var session domain.ConversationSession
	if err := json.Unmarshal([]byte(state), &session); err != nil {
		return nil, fmt.Errorf("repository: Load decode state: %w", err)
	}
	session.CustomerID = customerID
	session.Version = version
	return &session, nil
}

// Save writes the session conditioned on the version it was loaded with. A
// first save (version 0) requires that no record exists; later saves require
// the stored version to still equal the loaded one. Either miss surfaces as
// domain.ErrVersionConflict for the engine's reload-and-retry path.
func (s *Store) Save(ctx context.Context, session *domain.ConversationSession) error {
	if session == nil || strings.TrimSpace(session.CustomerID) == "" {
		return errors.New("repository: Save: session with customer id is required")
	}

	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("repository: Save encode state: %w", err)
	}

	in := &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":           &types.AttributeValueMemberS{Value: custPK(session.CustomerID)},
			"SK":           &types.AttributeValueMemberS{Value: skSession},
			"customerId":   &types.AttributeValueMemberS{Value: session.CustomerID},
			"state":        &types.AttributeValueMemberS{Value: string(state)},
			"version":      &types.AttributeValueMemberN{Value: strconv.FormatInt(session.Version+1, 10)},
			"lastActivity": &types.AttributeValueMemberS{Value: session.LastActivityAt.UTC().Format(time.RFC3339)},
			"ttl":          &types.AttributeValueMemberN{Value: strconv.FormatInt(session.LastActivityAt.Add(sessionTTL).Unix(), 10)},
		},
	}
	if session.Version == 0 {
		in.ConditionExpression = aws.String("attribute_not_exists(PK)")
	} else {
		in.ConditionExpression = aws.String("version = :v")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(session.Version, 10)},
		}
	}

	if _, err := s.api.PutItem(ctx, in); err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("repository: Save put item: %w", err)
	}
	session.Version++
	return nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
