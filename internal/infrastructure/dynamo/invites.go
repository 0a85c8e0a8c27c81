package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/early-access-api/internal/domain"
)

// InviteRepo stores invite codes as two items per allocation so both the
// email and the code are unique: EMAIL#<email> and CODE#<code>.
type InviteRepo struct {
	client    API
	tableName string
}

func NewInviteRepo(client API, tableName string) *InviteRepo {
	return &InviteRepo{client: client, tableName: tableName}
}

func (r *InviteRepo) GetByEmail(ctx context.Context, email string) (*domain.InviteCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(attrPK, invitePrefixEmail+email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("invite code not found: %w", domain.ErrNotFound)
	}
	var ic domain.InviteCode
	if err := attributevalue.UnmarshalMap(out.Item, &ic); err != nil {
		return nil, err
	}
	return &ic, nil
}

// Create writes both items in one transaction, each guarded by attribute_not_exists.
// It returns domain.ErrInviteEmailTaken or domain.ErrInviteCodeTaken when a guard fails.
func (r *InviteRepo) Create(ctx context.Context, ic *domain.InviteCode) error {
	emailItem, err := r.item(invitePrefixEmail+ic.Email, ic)
	if err != nil {
		return err
	}
	codeItem, err := r.item(invitePrefixCode+ic.InviteCode, ic)
	if err != nil {
		return err
	}
	guard := aws.String("attribute_not_exists(#pk)")
	names := map[string]string{"#pk": attrPK}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: emailItem, ConditionExpression: guard, ExpressionAttributeNames: names}},
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: codeItem, ConditionExpression: guard, ExpressionAttributeNames: names}},
		},
	})
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		return cancellationError(tce.CancellationReasons, err)
	}
	return err
}

func (r *InviteRepo) item(pk string, ic *domain.InviteCode) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(ic)
	if err != nil {
		return nil, fmt.Errorf("marshal invite code: %w", err)
	}
	item[attrPK] = &types.AttributeValueMemberS{Value: pk}
	return item, nil
}

// cancellationError maps per-item cancellation reasons back to the guard that
// failed. Reasons are positional: 0 is the email item, 1 the code item.
func cancellationError(reasons []types.CancellationReason, cause error) error {
	failed := func(i int) bool {
		return i < len(reasons) && aws.ToString(reasons[i].Code) == "ConditionalCheckFailed"
	}
	switch {
	case failed(0):
		return domain.ErrInviteEmailTaken
	case failed(1):
		return domain.ErrInviteCodeTaken
	default:
		return cause
	}
}
