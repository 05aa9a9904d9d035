package mocks

import (
	"context"

	"photosheet/internal/model"
	"photosheet/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockSheetService struct {
	mock.Mock
}

func (m *MockSheetService) Generate(ctx context.Context, uploads []service.Upload, label string) (*model.Sheet, []byte, error) {
	args := m.Called(ctx, uploads, label)
	var sheet *model.Sheet
	if args.Get(0) != nil {
		sheet = args.Get(0).(*model.Sheet)
	}
	var data []byte
	if args.Get(1) != nil {
		data = args.Get(1).([]byte)
	}
	return sheet, data, args.Error(2)
}

func (m *MockSheetService) Preview(ctx context.Context, uploads []service.Upload, label string) (*model.Sheet, error) {
	args := m.Called(ctx, uploads, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Sheet), args.Error(1)
}
