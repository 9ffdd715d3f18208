package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-shop-api/internal/domain"
)

// AddressRepo provides typed DynamoDB operations for the delivery addresses table.
type AddressRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAddressRepo(client *dynamodb.Client, tableName string) *AddressRepo {
	return &AddressRepo{client: client, tableName: tableName}
}

func (r *AddressRepo) Put(ctx context.Context, a *domain.DeliveryAddress) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal address: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AddressRepo) Get(ctx context.Context, addressID string) (*domain.DeliveryAddress, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldAddressID, addressID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("address not found: %w", domain.ErrNotFound)
	}
	var a domain.DeliveryAddress
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddressRepo) ListByUser(ctx context.Context, userID string) ([]domain.DeliveryAddress, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserID),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	addresses := []domain.DeliveryAddress{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}
