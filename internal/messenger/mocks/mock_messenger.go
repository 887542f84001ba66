package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"banana-bot/internal/messenger"
)

// MockMessenger is a mock implementation of messenger.Messenger
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) Send(chatID int64, text string, opts messenger.Options) (messenger.Ref, error) {
	args := m.Called(chatID, text, opts)
	return args.Get(0).(messenger.Ref), args.Error(1)
}

func (m *MockMessenger) Edit(ref messenger.Ref, text string, opts messenger.Options) error {
	args := m.Called(ref, text, opts)
	return args.Error(0)
}

func (m *MockMessenger) Delete(ref messenger.Ref) error {
	args := m.Called(ref)
	return args.Error(0)
}

func (m *MockMessenger) Mute(chatID, userID int64, until time.Time) error {
	args := m.Called(chatID, userID, until)
	return args.Error(0)
}

func (m *MockMessenger) Unmute(chatID, userID int64) error {
	args := m.Called(chatID, userID)
	return args.Error(0)
}

func (m *MockMessenger) Ban(chatID, userID int64, until time.Time) error {
	args := m.Called(chatID, userID, until)
	return args.Error(0)
}

func (m *MockMessenger) Unban(chatID, userID int64) error {
	args := m.Called(chatID, userID)
	return args.Error(0)
}

var _ messenger.Messenger = (*MockMessenger)(nil)
