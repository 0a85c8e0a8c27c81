package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/early-access-api/internal/domain"
)

// LeadRepo appends lead submissions. PK: lead_id, GSI on email + created_at.
// Put never overwrites, so a caller-chosen lead_id makes the insert idempotent.
type LeadRepo struct {
	client    API
	tableName string
}

func NewLeadRepo(client API, tableName string) *LeadRepo {
	return &LeadRepo{client: client, tableName: tableName}
}

func (r *LeadRepo) Put(ctx context.Context, l *domain.LeadSubmission) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": attrLeadID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("lead %s already recorded: %w", l.LeadID, domain.ErrConflict)
	}
	return err
}

// ListByEmail returns every submission for email, oldest first.
func (r *LeadRepo) ListByEmail(ctx context.Context, email string) ([]domain.LeadSubmission, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexLeadEmail),
		KeyConditionExpression: aws.String("#e = :e"),
		ExpressionAttributeNames: map[string]string{
			"#e": attrEmail,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
		},
	})
	var leads []domain.LeadSubmission
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.LeadSubmission
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		leads = append(leads, batch...)
	}
	return leads, nil
}

// ScanAll walks the whole table. Only the export uses it.
func (r *LeadRepo) ScanAll(ctx context.Context) ([]domain.LeadSubmission, error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	var leads []domain.LeadSubmission
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.LeadSubmission
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		leads = append(leads, batch...)
	}
	return leads, nil
}
