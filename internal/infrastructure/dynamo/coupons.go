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

// CouponRepo provides typed DynamoDB operations for the coupons table.
type CouponRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCouponRepo(client *dynamodb.Client, tableName string) *CouponRepo {
	return &CouponRepo{client: client, tableName: tableName}
}

func (r *CouponRepo) Put(ctx context.Context, c *domain.Coupon) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal coupon: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldCouponID},
	})
	if conditionFailed(err) {
		return fmt.Errorf("coupon id already used: %w", domain.ErrConflict)
	}
	return err
}

func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexCode),
		KeyConditionExpression:    aws.String("#c = :v"),
		ExpressionAttributeNames:  map[string]string{"#c": fieldCode},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: code}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("coupon not found: %w", domain.ErrNotFound)
	}
	var c domain.Coupon
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Scan returns every coupon. The table is small and admin-only.
func (r *CouponRepo) Scan(ctx context.Context) ([]domain.Coupon, error) {
	var coupons []domain.Coupon
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.Coupon
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		coupons = append(coupons, page...)
	}
	return coupons, nil
}
