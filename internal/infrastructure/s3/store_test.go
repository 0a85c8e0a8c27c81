package s3infra

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct{ mock.Mock }

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func TestUpload_ReturnsURI(t *testing.T) {
	api := &mockS3{}
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "exports" && *in.Key == "exports/leads.xlsx" && *in.ContentType == "text/plain"
	})).Return(&s3.PutObjectOutput{}, nil)

	s := &Store{client: api, bucket: "exports"}
	uri, err := s.Upload(context.Background(), "exports/leads.xlsx", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "s3://exports/exports/leads.xlsx", uri)
}

func TestUpload_WrapsError(t *testing.T) {
	api := &mockS3{}
	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("no such bucket"))
	s := &Store{client: api, bucket: "exports"}
	_, err := s.Upload(context.Background(), "k", strings.NewReader("x"), "text/plain")
	assert.ErrorContains(t, err, "s3 put object")
}
