package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invomatch/internal/domain"
	"invomatch/internal/record"
)

// MockFieldExtractor is a mock implementation of port.FieldExtractor.
type MockFieldExtractor struct {
	mock.Mock
}

func (m *MockFieldExtractor) Extract(ctx context.Context, content domain.RenderedContent, kind domain.DocumentKind) (*record.Extracted, error) {
	args := m.Called(ctx, content, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.Extracted), args.Error(1)
}
