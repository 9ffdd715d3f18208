package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-shop-api/internal/config"
)

// Index names queried by the repositories.
const (
	indexUserID = "user_id-index"
	indexCode   = "code-index"
)

// tableDef describes a table keyed by a single string hash key, with optional
// hash-only GSIs (index name to key attribute).
type tableDef struct {
	name    string
	hashKey string
	indexes map[string]string
}

func tableDefs(tables config.DynamoTables) []tableDef {
	return []tableDef{
		{name: tables.Users, hashKey: fieldUserID},
		{name: tables.Usernames, hashKey: fieldUsername},
		{name: tables.Addresses, hashKey: fieldAddressID, indexes: map[string]string{indexUserID: fieldUserID}},
		{name: tables.Coupons, hashKey: fieldCouponID, indexes: map[string]string{indexCode: fieldCode}},
	}
}

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; tables that already exist are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	for _, def := range tableDefs(tables) {
		createTable(ctx, client, def.input())
	}
}

func (d tableDef) input() *dynamodb.CreateTableInput {
	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(d.name),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(d.hashKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(d.hashKey), KeyType: types.KeyTypeHash},
		},
	}
	for indexName, key := range d.indexes {
		in.AttributeDefinitions = append(in.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(key), AttributeType: types.ScalarAttributeTypeS,
		})
		in.GlobalSecondaryIndexes = append(in.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName: aws.String(indexName),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(key), KeyType: types.KeyTypeHash},
			},
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	return in
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			slog.Warn("could not create table", "table", aws.ToString(input.TableName), "err", err)
		}
		return
	}
	slog.Info("created table", "table", aws.ToString(input.TableName))
}
