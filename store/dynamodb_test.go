package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamnz/travelgo/model"
)

// fakeDynamoClient implements DynamoClient with injectable behavior.
type fakeDynamoClient struct {
	getItem func(*dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error)
	query   func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)
	scan    func(*dynamodb.ScanInput) (*dynamodb.ScanOutput, error)
	putItem func(*dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error)
}

func (f *fakeDynamoClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return f.getItem(params)
}

func (f *fakeDynamoClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return f.query(params)
}

func (f *fakeDynamoClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return f.scan(params)
}

func (f *fakeDynamoClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return f.putItem(params)
}

func TestDynamoDBGetItem(t *testing.T) {
	client := &fakeDynamoClient{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			assert.Equal(t, "vehicles", *in.TableName)
			key, ok := in.Key["registration"].(*types.AttributeValueMemberS)
			require.True(t, ok)
			assert.Equal(t, "KLM456", key.Value)
			return &dynamodb.GetItemOutput{
				Item: map[string]types.AttributeValue{
					"registration": &types.AttributeValueMemberS{Value: "KLM456"},
					"berths":       &types.AttributeValueMemberN{Value: "4"},
					"self_contained": &types.AttributeValueMemberBOOL{Value: true},
				},
			}, nil
		},
	}
	s := NewDynamoDBWithClient(client)

	item, err := s.GetItem(context.Background(), "vehicles", model.Key{Name: "registration", Value: "KLM456"})
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "KLM456", item["registration"])
	assert.Equal(t, model.Number("4"), item["berths"])
	assert.Equal(t, true, item["self_contained"])
}

func TestDynamoDBGetItemMissing(t *testing.T) {
	client := &fakeDynamoClient{
		getItem: func(in *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
			return &dynamodb.GetItemOutput{}, nil
		},
	}
	s := NewDynamoDBWithClient(client)

	item, err := s.GetItem(context.Background(), "vehicles", model.Key{Name: "registration", Value: "NOPE"})
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestDynamoDBQueryIndexAndPagination(t *testing.T) {
	page := 0
	client := &fakeDynamoClient{
		query: func(in *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			require.NotNil(t, in.IndexName)
			assert.Equal(t, "bookings-index", *in.IndexName)
			assert.Equal(t, "#k = :v", *in.KeyConditionExpression)
			assert.Equal(t, "booking_ref", in.ExpressionAttributeNames["#k"])

			page++
			if page == 1 {
				return &dynamodb.QueryOutput{
					Items: []map[string]types.AttributeValue{
						{"booking_ref": &types.AttributeValueMemberS{Value: "THL-20260101-AAAAA"}},
					},
					LastEvaluatedKey: map[string]types.AttributeValue{
						"booking_ref": &types.AttributeValueMemberS{Value: "THL-20260101-AAAAA"},
					},
				}, nil
			}
			return &dynamodb.QueryOutput{
				Items: []map[string]types.AttributeValue{
					{"booking_ref": &types.AttributeValueMemberS{Value: "THL-20260101-BBBBB"}},
				},
			}, nil
		},
	}
	s := NewDynamoDBWithClient(client)

	items, err := s.Query(context.Background(), "bookings",
		model.Key{Name: "booking_ref", Value: "THL-20260101-AAAAA"}, "bookings-index")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, page)
}

func TestDynamoDBScanFilterExpression(t *testing.T) {
	client := &fakeDynamoClient{
		scan: func(in *dynamodb.ScanInput) (*dynamodb.ScanOutput, error) {
			require.NotNil(t, in.FilterExpression)
			assert.Equal(t, "contains(#a0, :v0) AND #a1 = :v1 AND #a2 > :v2", *in.FilterExpression)
			assert.Equal(t, "accommodation_location", in.ExpressionAttributeNames["#a0"])
			assert.Equal(t, "pet_friendly", in.ExpressionAttributeNames["#a1"])
			assert.Equal(t, "powered_sites_available", in.ExpressionAttributeNames["#a2"])

			loc, ok := in.ExpressionAttributeValues[":v0"].(*types.AttributeValueMemberS)
			require.True(t, ok)
			assert.Equal(t, "Rotorua", loc.Value)
			pet, ok := in.ExpressionAttributeValues[":v1"].(*types.AttributeValueMemberBOOL)
			require.True(t, ok)
			assert.True(t, pet.Value)
			sites, ok := in.ExpressionAttributeValues[":v2"].(*types.AttributeValueMemberN)
			require.True(t, ok)
			assert.Equal(t, "0", sites.Value)

			return &dynamodb.ScanOutput{}, nil
		},
	}
	s := NewDynamoDBWithClient(client)

	pred := model.Predicate{
		{Attr: "accommodation_location", Op: model.OpContains, Value: "Rotorua"},
		{Attr: "pet_friendly", Op: model.OpEqual, Value: true},
		{Attr: "powered_sites_available", Op: model.OpGreaterThan, Value: 0},
	}
	items, err := s.Scan(context.Background(), "accommodations", pred)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDynamoDBPutRoundTrip(t *testing.T) {
	var written map[string]types.AttributeValue
	client := &fakeDynamoClient{
		putItem: func(in *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			written = in.Item
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	s := NewDynamoDBWithClient(client)

	err := s.Put(context.Background(), "bookings", model.Item{
		"booking_ref": "THL-20260101-AAAAA",
		"num_guests":  model.Number("2"),
		"itinerary":   []string{"Auckland", "Rotorua"},
		"confirmed":   true,
	})
	require.NoError(t, err)

	ref, ok := written["booking_ref"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "THL-20260101-AAAAA", ref.Value)
	guests, ok := written["num_guests"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "2", guests.Value)
	itinerary, ok := written["itinerary"].(*types.AttributeValueMemberL)
	require.True(t, ok)
	assert.Len(t, itinerary.Value, 2)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			"ExpiredToken",
			&smithy.GenericAPIError{Code: "ExpiredTokenException", Message: "token expired"},
			ErrCredentialExpired,
		},
		{
			"RequestExpired",
			&smithy.GenericAPIError{Code: "RequestExpired", Message: "too old"},
			ErrCredentialExpired,
		},
		{
			"Network",
			errors.New("dial tcp: connection refused"),
			ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}

	t.Run("ClientError", func(t *testing.T) {
		err := classify(&smithy.GenericAPIError{Code: "ValidationException", Message: "bad key"})
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "ValidationException", ce.Code)
		assert.Equal(t, "bad key", ce.Message)
	})

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, classify(nil))
	})
}

func TestDynamoDBRefreshSwapsClient(t *testing.T) {
	calls := 0
	factory := func(ctx context.Context) (DynamoClient, error) {
		calls++
		return &fakeDynamoClient{}, nil
	}
	s, err := NewDynamoDB(context.Background(), factory)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 2, calls)
}
