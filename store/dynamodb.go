package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/roamnz/travelgo/model"
)

// DynamoClient is the interface for the DynamoDB operations this store uses.
type DynamoClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// ClientFactory builds a DynamoDB client from current credentials.
// Refresh calls it again to obtain a client with a fresh session.
type ClientFactory func(ctx context.Context) (DynamoClient, error)

// DefaultClientFactory loads the default AWS configuration and returns
// a DynamoDB client bound to it.
func DefaultClientFactory(ctx context.Context) (DynamoClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %w", ErrUnavailable, err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

// DynamoDB implements Store backed by Amazon DynamoDB.
type DynamoDB struct {
	mu      sync.RWMutex
	client  DynamoClient
	factory ClientFactory
}

// NewDynamoDB creates a DynamoDB store. If factory is nil,
// DefaultClientFactory is used.
func NewDynamoDB(ctx context.Context, factory ClientFactory) (*DynamoDB, error) {
	if factory == nil {
		factory = DefaultClientFactory
	}
	client, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	return &DynamoDB{client: client, factory: factory}, nil
}

// NewDynamoDBWithClient creates a DynamoDB store around an existing client.
// Refresh is a no-op rebuild through the default factory unless a factory
// was supplied at construction, so tests can inject fakes directly.
func NewDynamoDBWithClient(client DynamoClient) *DynamoDB {
	return &DynamoDB{
		client: client,
		factory: func(ctx context.Context) (DynamoClient, error) {
			return client, nil
		},
	}
}

// Refresh rebuilds the client from freshly loaded credentials.
func (s *DynamoDB) Refresh(ctx context.Context) error {
	client, err := s.factory(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	return nil
}

func (s *DynamoDB) current() DynamoClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// GetItem fetches a single record by primary key. A missing record
// yields a nil item and nil error.
func (s *DynamoDB) GetItem(ctx context.Context, table string, key model.Key) (model.Item, error) {
	out, err := s.current().GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			key.Name: &types.AttributeValueMemberS{Value: key.Value},
		},
	})
	if err != nil {
		return nil, classify(err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return itemFromAttrs(out.Item), nil
}

// Query returns all records matching the key condition, optionally
// through a secondary index. Items arrive in the store's natural order.
func (s *DynamoDB) Query(ctx context.Context, table string, key model.Key, index string) ([]model.Item, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("#k = :v"),
		ExpressionAttributeNames: map[string]string{
			"#k": key.Name,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: key.Value},
		},
	}
	if index != "" {
		input.IndexName = aws.String(index)
	}

	var items []model.Item
	for {
		out, err := s.current().Query(ctx, input)
		if err != nil {
			return nil, classify(err)
		}
		for _, attrs := range out.Items {
			items = append(items, itemFromAttrs(attrs))
		}
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Scan returns all records matching the predicate, following pagination
// until the table is exhausted.
func (s *DynamoDB) Scan(ctx context.Context, table string, pred model.Predicate) ([]model.Item, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(table),
	}
	if len(pred) > 0 {
		expr, names, values := buildFilterExpression(pred)
		input.FilterExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	var items []model.Item
	for {
		out, err := s.current().Scan(ctx, input)
		if err != nil {
			return nil, classify(err)
		}
		for _, attrs := range out.Items {
			items = append(items, itemFromAttrs(attrs))
		}
		if out.LastEvaluatedKey == nil {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// Put writes one record.
func (s *DynamoDB) Put(ctx context.Context, table string, item model.Item) error {
	_, err := s.current().PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      attrsFromItem(item),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// buildFilterExpression renders the predicate as a DynamoDB filter
// expression with positional attribute name/value placeholders.
func buildFilterExpression(pred model.Predicate) (string, map[string]string, map[string]types.AttributeValue) {
	expr := ""
	names := make(map[string]string, len(pred))
	values := make(map[string]types.AttributeValue, len(pred))

	for i, c := range pred {
		name := fmt.Sprintf("#a%d", i)
		value := fmt.Sprintf(":v%d", i)
		names[name] = c.Attr
		values[value] = attrValue(c.Value)

		clause := ""
		switch c.Op {
		case model.OpContains:
			clause = fmt.Sprintf("contains(%s, %s)", name, value)
		case model.OpGreaterThan:
			clause = fmt.Sprintf("%s > %s", name, value)
		default:
			clause = fmt.Sprintf("%s = %s", name, value)
		}
		if expr != "" {
			expr += " AND "
		}
		expr += clause
	}
	return expr, names, values
}

func attrValue(v any) types.AttributeValue {
	switch val := v.(type) {
	case bool:
		return &types.AttributeValueMemberBOOL{Value: val}
	case model.Number:
		return &types.AttributeValueMemberN{Value: string(val)}
	case int:
		return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", val)}
	case float64:
		return &types.AttributeValueMemberN{Value: fmt.Sprintf("%g", val)}
	case []string:
		list := make([]types.AttributeValue, len(val))
		for i, s := range val {
			list[i] = &types.AttributeValueMemberS{Value: s}
		}
		return &types.AttributeValueMemberL{Value: list}
	default:
		return &types.AttributeValueMemberS{Value: fmt.Sprintf("%v", val)}
	}
}

// itemFromAttrs converts DynamoDB attribute values to a model item.
// Numbers stay in their exact decimal string form (model.Number); the
// formatter converts them to float64 at the output boundary.
func itemFromAttrs(attrs map[string]types.AttributeValue) model.Item {
	item := make(model.Item, len(attrs))
	for name, attr := range attrs {
		switch v := attr.(type) {
		case *types.AttributeValueMemberS:
			item[name] = v.Value
		case *types.AttributeValueMemberBOOL:
			item[name] = v.Value
		case *types.AttributeValueMemberN:
			item[name] = model.Number(v.Value)
		case *types.AttributeValueMemberSS:
			item[name] = append([]string(nil), v.Value...)
		case *types.AttributeValueMemberL:
			var list []string
			for _, el := range v.Value {
				if s, ok := el.(*types.AttributeValueMemberS); ok {
					list = append(list, s.Value)
				}
			}
			item[name] = list
		}
	}
	return item
}

func attrsFromItem(item model.Item) map[string]types.AttributeValue {
	attrs := make(map[string]types.AttributeValue, len(item))
	for name, v := range item {
		attrs[name] = attrValue(v)
	}
	return attrs
}

// classify maps backend failures onto the store taxonomy. Expired
// security tokens are the one recoverable case; everything else is a
// client error (with its code preserved) or plain unavailability.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ExpiredTokenException", "ExpiredToken", "RequestExpired":
			return fmt.Errorf("%w: %w", ErrCredentialExpired, err)
		}
		return &ClientError{Code: ae.ErrorCode(), Message: ae.ErrorMessage(), cause: err}
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
