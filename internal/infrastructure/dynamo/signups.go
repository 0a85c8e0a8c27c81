package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/early-access-api/internal/domain"
)

// SignupRepo stores one signup session per email. ExpiresAt is the table TTL.
type SignupRepo struct {
	client    API
	tableName string
}

func NewSignupRepo(client API, tableName string) *SignupRepo {
	return &SignupRepo{client: client, tableName: tableName}
}

func (r *SignupRepo) Put(ctx context.Context, s *domain.SignupSession) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal signup session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SignupRepo) Get(ctx context.Context, email string) (*domain.SignupSession, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(attrEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("signup session not found: %w", domain.ErrNotFound)
	}
	var s domain.SignupSession
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update applies a partial update and bumps updated_at.
func (r *SignupRepo) Update(ctx context.Context, email string, updates map[string]interface{}) error {
	updates[attrUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(attrEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// Claim takes a time-boxed hold on a verified session for otpID. It fails with
// domain.ErrConflict when the session is in another state, belongs to another
// passcode, or is still held by a claim that has not run out.
func (r *SignupRepo) Claim(ctx context.Context, email, otpID string, now time.Time, lease time.Duration) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(attrEmail, email),
		UpdateExpression:    aws.String("SET #c = :until, #u = :at"),
		ConditionExpression: aws.String("#s = :verified AND #o = :otp AND (attribute_not_exists(#c) OR #c < :now)"),
		ExpressionAttributeNames: map[string]string{
			"#s": attrState,
			"#o": attrOTPID,
			"#c": attrClaimedTo,
			"#u": attrUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":verified": &types.AttributeValueMemberS{Value: domain.SignupVerified},
			":otp":      &types.AttributeValueMemberS{Value: otpID},
			":now":      &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
			":until":    &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(lease).Unix(), 10)},
			":at":       &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339Nano)},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("signup session not claimable: %w", domain.ErrConflict)
	}
	return err
}
