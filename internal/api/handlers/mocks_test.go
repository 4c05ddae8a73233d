package handlers

import (
	"context"

	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/pagination"
	"github.com/cloo-solutions/ragengine/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockChatAgent struct {
	mock.Mock
	events []service.AgentEvent
}

func (m *MockChatAgent) Run(ctx context.Context, history []domain.ConversationMessage, emit service.EmitFunc) error {
	args := m.Called(ctx, history)
	for _, ev := range m.events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return args.Error(0)
}

type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Ingest(ctx context.Context, upload domain.Upload) (int, error) {
	args := m.Called(ctx, upload)
	return args.Int(0), args.Error(1)
}

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, input service.ListDocumentsInput) (*pagination.PageResult[domain.DocumentSummary], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[domain.DocumentSummary]), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, filename string) (int64, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).(int64), args.Error(1)
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string) string {
	args := m.Called(ctx, query)
	return args.String(0)
}
