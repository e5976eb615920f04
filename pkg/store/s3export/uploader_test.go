package s3export

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
	body string
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(params.Body)
	m.body = string(data)
	args := m.Called(aws.ToString(params.Bucket), aws.ToString(params.Key), aws.ToString(params.ContentType))
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    Location
		wantErr bool
	}{
		{name: "full key", uri: "s3://reports/eol/latest.csv", want: Location{Bucket: "reports", Key: "eol/latest.csv"}},
		{name: "prefix gets filename", uri: "s3://reports/eol/", want: Location{Bucket: "reports", Key: "eol/report.csv"}},
		{name: "bucket only", uri: "s3://reports", want: Location{Bucket: "reports", Key: "report.csv"}},
		{name: "wrong scheme", uri: "https://reports/x.csv", wantErr: true},
		{name: "missing bucket", uri: "s3:///x.csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURI(tt.uri, "report.csv")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUploader_Upload(t *testing.T) {
	ctx := context.Background()
	loc := Location{Bucket: "reports", Key: "eol.csv"}

	t.Run("success", func(t *testing.T) {
		client := new(mockS3)
		client.On("PutObject", "reports", "eol.csv", "text/csv").Return(&s3.PutObjectOutput{}, nil)

		err := NewUploader(client).Upload(ctx, loc, "text/csv", strings.NewReader("a,b"))

		require.NoError(t, err)
		assert.Equal(t, "a,b", client.body)
		client.AssertExpectations(t)
	})

	t.Run("failure", func(t *testing.T) {
		client := new(mockS3)
		client.On("PutObject", "reports", "eol.csv", "text/csv").Return(nil, errors.New("access denied"))

		err := NewUploader(client).Upload(ctx, loc, "text/csv", strings.NewReader("a,b"))

		assert.ErrorContains(t, err, "s3://reports/eol.csv")
	})
}
