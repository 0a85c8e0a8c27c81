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

// OTPRepo manages issued passcodes.
// PK: email, SK: otp_id. Rows are never deleted here; expiry is a query filter.
type OTPRepo struct {
	client    API
	tableName string
}

func NewOTPRepo(client API, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

func (r *OTPRepo) Put(ctx context.Context, o *domain.EmailOTP) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OTPRepo) Get(ctx context.Context, email, otpID string) (*domain.EmailOTP, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(attrEmail, email, attrOTPID, otpID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var o domain.EmailOTP
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// FindActive returns the newest unverified, unexpired row for email whose code matches.
// Limit is not set because DynamoDB applies it before the filter.
func (r *OTPRepo) FindActive(ctx context.Context, email, code string, now time.Time) (*domain.EmailOTP, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#e = :e"),
		FilterExpression:       aws.String("#o = :o AND #v = :f AND #x >= :now"),
		ExpressionAttributeNames: map[string]string{
			"#e": attrEmail,
			"#o": attrOTP,
			"#v": attrVerified,
			"#x": attrExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e":   &types.AttributeValueMemberS{Value: email},
			":o":   &types.AttributeValueMemberS{Value: code},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
		ScanIndexForward: aws.Bool(false),
		ConsistentRead:   aws.Bool(true),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			continue
		}
		var o domain.EmailOTP
		if err := attributevalue.UnmarshalMap(page.Items[0], &o); err != nil {
			return nil, err
		}
		return &o, nil
	}
	return nil, fmt.Errorf("no active otp: %w", domain.ErrNotFound)
}

// MarkVerified flips verified to true only if it is still false.
// A lost race yields domain.ErrConflict.
func (r *OTPRepo) MarkVerified(ctx context.Context, email, otpID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey(attrEmail, email, attrOTPID, otpID),
		UpdateExpression:    aws.String("SET #v = :t"),
		ConditionExpression: aws.String("attribute_exists(#e) AND #v = :f"),
		ExpressionAttributeNames: map[string]string{
			"#v": attrVerified,
			"#e": attrEmail,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp already verified: %w", domain.ErrConflict)
	}
	return err
}
