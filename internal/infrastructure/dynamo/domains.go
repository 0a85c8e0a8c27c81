package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/early-access-api/internal/domain"
)

// DomainRepo manages the company_domains allowlist. PK: domain.
type DomainRepo struct {
	client    API
	tableName string
}

func NewDomainRepo(client API, tableName string) *DomainRepo {
	return &DomainRepo{client: client, tableName: tableName}
}

func (r *DomainRepo) Get(ctx context.Context, name string) (*domain.CompanyDomain, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrDomain, name),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("domain %q not found: %w", name, domain.ErrNotFound)
	}
	var d domain.CompanyDomain
	if err := attributevalue.UnmarshalMap(out.Item, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DomainRepo) Put(ctx context.Context, d *domain.CompanyDomain) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal domain: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *DomainRepo) Delete(ctx context.Context, name string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrDomain, name),
	})
	return err
}

// Scan returns every allowlist row. The table is small reference data.
func (r *DomainRepo) Scan(ctx context.Context) ([]domain.CompanyDomain, error) {
	var all []domain.CompanyDomain
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.CompanyDomain
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}
