package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-shop-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
//
// Username uniqueness is enforced by a guard table keyed by username that
// holds the owning user_id. Every write that creates or removes a user
// touches the guard in the same transaction.
type UserRepo struct {
	client        *dynamodb.Client
	tableName     string
	usernameTable string
}

func NewUserRepo(client *dynamodb.Client, tableName, usernameTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, usernameTable: usernameTable}
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

// GetByUsername resolves the guard entry and then the user it points to.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.usernameTable),
		Key:            strKey(fieldUsername, username),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	idAttr, ok := out.Item[fieldUserID].(*types.AttributeValueMemberS)
	if !ok {
		return nil, fmt.Errorf("username guard %q has no user_id", username)
	}
	return r.Get(ctx, idAttr.Value)
}

// Insert creates u and claims its username. Returns ErrConflict when the
// username is already claimed or the id is taken.
func (r *UserRepo) Insert(ctx context.Context, u *domain.User) error {
	in, err := r.insertInput(u)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, in)
	if conditionFailed(err) {
		return fmt.Errorf("username %q already taken: %w", u.Username, domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) insertInput(u *domain.User) (*dynamodb.TransactWriteItemsInput, error) {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}
	return &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.usernameTable),
				Item:                     r.guardItem(u),
				ConditionExpression:      aws.String("attribute_not_exists(#u)"),
				ExpressionAttributeNames: map[string]string{"#u": fieldUsername},
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": fieldUserID},
			}},
		},
	}, nil
}

// DeleteUnverified removes u and releases its username, but only while u is
// still unverified and still owns the guard. Returns ErrNotFound when another
// caller already removed or replaced it.
func (r *UserRepo) DeleteUnverified(ctx context.Context, u *domain.User) error {
	_, err := r.client.TransactWriteItems(ctx, r.deleteUnverifiedInput(u))
	if conditionFailed(err) {
		return fmt.Errorf("unverified user %q already removed: %w", u.Username, domain.ErrNotFound)
	}
	return err
}

func (r *UserRepo) deleteUnverifiedInput(u *domain.User) *dynamodb.TransactWriteItemsInput {
	return &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{
				TableName:                aws.String(r.tableName),
				Key:                      strKey(fieldUserID, u.UserID),
				ConditionExpression:      aws.String("#v = :f"),
				ExpressionAttributeNames: map[string]string{"#v": fieldIsVerified},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":f": &types.AttributeValueMemberBOOL{Value: false},
				},
			}},
			{Delete: &types.Delete{
				TableName:                aws.String(r.usernameTable),
				Key:                      strKey(fieldUsername, u.Username),
				ConditionExpression:      aws.String("#id = :id"),
				ExpressionAttributeNames: map[string]string{"#id": fieldUserID},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":id": &types.AttributeValueMemberS{Value: u.UserID},
				},
			}},
		},
	}
}

// ConsumeOTP overwrites the full stored record of u, but only while the
// stored code still equals code. Of two requests racing on one code, exactly
// one write lands; the other gets ErrConflict, as does a write racing a
// reissued code.
func (r *UserRepo) ConsumeOTP(ctx context.Context, u *domain.User, code string) error {
	u.UpdatedAt = time.Now().UTC()
	in, err := r.consumeOTPInput(u, code)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, in)
	if conditionFailed(err) {
		return fmt.Errorf("code for %q no longer current: %w", u.Username, domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) consumeOTPInput(u *domain.User, code string) (*dynamodb.PutItemInput, error) {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}
	return &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_exists(#id) AND #otp = :otp"),
		ExpressionAttributeNames: map[string]string{"#id": fieldUserID, "#otp": fieldOTP},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":otp": &types.AttributeValueMemberS{Value: code},
		},
	}, nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldUserID
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if conditionFailed(err) {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return err
}

func (r *UserRepo) guardItem(u *domain.User) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		fieldUsername: &types.AttributeValueMemberS{Value: u.Username},
		fieldUserID:   &types.AttributeValueMemberS{Value: u.UserID},
	}
}
