package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invomatch/internal/domain"
)

// MockDocumentRenderer is a mock implementation of port.DocumentRenderer.
type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) Render(ctx context.Context, doc domain.SourceDocument) (domain.RenderedContent, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.RenderedContent), args.Error(1)
}
