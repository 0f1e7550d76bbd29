package bt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/lowaak/cardiosplit/internal/go_func_utils"
)

var ErrNotFound = errors.New("no matching device found")

// Connector finds and connects to a peripheral
type Connector interface {
	Connect(ctx context.Context, serviceUuid string, address string) (Device, error)
}

// Manager owns the Bluetooth adapter
type Manager struct {
	adapter     *bluetooth.Adapter
	scanTimeout time.Duration
	logger      *log.Logger

	mu       sync.Mutex
	enabled  bool
	scanning bool
}

var _ Connector = (*Manager)(nil)

func NewManager(adapter *bluetooth.Adapter, logger *log.Logger, scanTimeout time.Duration) *Manager {
	if adapter == nil {
		panic("BTManager: adapter cannot be nil")
	}
	if logger == nil {
		panic("BTManager: logger cannot be nil")
	}
	if scanTimeout <= 0 {
		scanTimeout = 10 * time.Second
	}
	return &Manager{adapter: adapter, scanTimeout: scanTimeout, logger: logger}
}

// Enable powers the adapter up once
func (m *Manager) Enable() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enabled {
		return nil
	}

	m.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			m.logger.Printf("BTManager: Device connected: %s", device.Address.String())
		} else {
			m.logger.Printf("BTManager: Device disconnected: %s", device.Address.String())
		}
	})

	if err := m.adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}
	m.enabled = true
	return nil
}

// Connect scans for a device advertising serviceUuid, or for the device with
// the given address when it is not empty, and connects to the first match.
func (m *Manager) Connect(ctx context.Context, serviceUuid string, address string) (Device, error) {
	if err := m.Enable(); err != nil {
		return nil, err
	}

	result, err := m.find(ctx, serviceUuid, address)
	if err != nil {
		return nil, err
	}

	m.logger.Printf("BTManager: Connecting to %s (%s) [RSSI: %d]", result.LocalName(), result.Address.String(), result.RSSI)
	device, err := m.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", result.Address.String(), err)
	}
	return newBtDeviceImpl(m.logger, device), nil
}

func (m *Manager) find(ctx context.Context, serviceUuid string, address string) (bluetooth.ScanResult, error) {
	m.mu.Lock()
	if m.scanning {
		m.mu.Unlock()
		return bluetooth.ScanResult{}, errors.New("a scan is already running")
	}
	m.scanning = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.scanning = false
		m.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, m.scanTimeout)
	defer cancel()

	found := make(chan bluetooth.ScanResult, 1)
	scanDone := make(chan error, 1)

	m.logger.Printf("BTManager: Scanning for service=%s address=%q", serviceUuid, address)
	go_func_utils.SafeGo(m.logger, "BTManager scan", func() {
		scanDone <- m.adapter.Scan(func(adapter *bluetooth.Adapter, device bluetooth.ScanResult) {
			if !matches(device, serviceUuid, address) {
				return
			}
			select {
			case found <- device:
				if err := adapter.StopScan(); err != nil {
					m.logger.Printf("BTManager: Error stopping scan: %v", err)
				}
			default:
			}
		})
	})

	select {
	case device := <-found:
		<-scanDone
		return device, nil
	case err := <-scanDone:
		if err != nil {
			return bluetooth.ScanResult{}, fmt.Errorf("scan: %w", err)
		}
		return bluetooth.ScanResult{}, ErrNotFound
	case <-ctx.Done():
		if err := m.adapter.StopScan(); err != nil {
			m.logger.Printf("BTManager: Error stopping scan: %v", err)
		}
		// StopScan can race with Scan starting; do not wait forever
		select {
		case <-scanDone:
		case <-time.After(time.Second):
			m.logger.Printf("BTManager: Scan did not stop in time")
		}
		select {
		case device := <-found:
			return device, nil
		default:
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return bluetooth.ScanResult{}, fmt.Errorf("%w after %v", ErrNotFound, m.scanTimeout)
		}
		return bluetooth.ScanResult{}, ctx.Err()
	}
}

func matches(device bluetooth.ScanResult, serviceUuid string, address string) bool {
	if address != "" {
		return strings.EqualFold(device.Address.String(), address)
	}
	for _, uuid := range device.ServiceUUIDs() {
		if uuid.String() == serviceUuid {
			return true
		}
	}
	return false
}
