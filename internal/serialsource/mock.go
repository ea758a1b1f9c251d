package serialsource

import (
	"io"
	"sync"
	"time"
)

// MockSerialPort implements SerialPorter for testing.
type MockSerialPort struct {
	mu          sync.Mutex
	ReadData    []byte
	WrittenData []byte
	ReadError   error
	CloseError  error
	Closed      bool
	ReadDelay   time.Duration
}

// NewMockSerialPort returns a port that yields data and then EOF.
func NewMockSerialPort(data string) *MockSerialPort {
	return &MockSerialPort{ReadData: []byte(data)}
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	if m.ReadDelay > 0 {
		time.Sleep(m.ReadDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	if len(m.ReadData) == 0 {
		return 0, io.EOF
	}
	n := copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	return n, nil
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseError
}
