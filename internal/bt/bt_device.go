package bt

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"tinygo.org/x/bluetooth"
)

// Device is a connected peripheral
type Device interface {
	Address() string
	EnableNotifications(serviceUuid string, characteristicUuid string, callbackFunc func(buf []byte)) error
	DisableNotifications(serviceUuid string, characteristicUuid string) error
	Disconnect() error
}

type btDeviceImpl struct {
	address         string
	connectedDevice bluetooth.Device
	logger          *log.Logger

	// Serializes BLE characteristic operations and guards the caches below
	bleMu                  sync.Mutex
	serviceByUuid          map[string]*bluetooth.DeviceService
	characteristicByUuid   map[string]*bluetooth.DeviceCharacteristic
	serviceCharsDiscovered map[string]bool
	allServicesDiscovered  bool
}

func newBtDeviceImpl(logger *log.Logger, device bluetooth.Device) *btDeviceImpl {
	if logger == nil {
		panic("logger must be non nil")
	}
	return &btDeviceImpl{
		address:                device.Address.String(),
		connectedDevice:        device,
		logger:                 logger,
		serviceByUuid:          make(map[string]*bluetooth.DeviceService),
		characteristicByUuid:   make(map[string]*bluetooth.DeviceCharacteristic),
		serviceCharsDiscovered: make(map[string]bool),
	}
}

func (b *btDeviceImpl) Address() string {
	return b.address
}

func (b *btDeviceImpl) Disconnect() error {
	b.logger.Printf("BTDevice: Disconnecting %s", b.address)
	return b.connectedDevice.Disconnect()
}

func (b *btDeviceImpl) EnableNotifications(
	serviceUuidStr string,
	characteristicUuidStr string,
	callbackFunc func(buf []byte)) error {

	if callbackFunc == nil {
		return errors.New("notification callback cannot be nil")
	}
	return b.setNotifications(serviceUuidStr, characteristicUuidStr, callbackFunc)
}

func (b *btDeviceImpl) DisableNotifications(serviceUuidStr string, characteristicUuidStr string) error {
	// A nil callback disables notifications
	return b.setNotifications(serviceUuidStr, characteristicUuidStr, nil)
}

func (b *btDeviceImpl) setNotifications(
	serviceUuidStr string,
	characteristicUuidStr string,
	callbackFunc func(buf []byte)) error {

	b.bleMu.Lock()
	defer b.bleMu.Unlock()

	serviceUuid, err := bluetooth.ParseUUID(serviceUuidStr)
	if err != nil {
		return fmt.Errorf("invalid service UUID %q: %w", serviceUuidStr, err)
	}
	characteristicUuid, err := bluetooth.ParseUUID(characteristicUuidStr)
	if err != nil {
		return fmt.Errorf("invalid characteristic UUID %q: %w", characteristicUuidStr, err)
	}

	characteristic, err := b.getDeviceCharacteristic(serviceUuid, characteristicUuid)
	if err != nil {
		return err
	}

	if err := characteristic.EnableNotifications(callbackFunc); err != nil {
		return fmt.Errorf("failed to set notifications on %s: %w", characteristicUuidStr, err)
	}
	b.logger.Printf("BTDevice: Notifications for %s enabled=%t", characteristicUuidStr, callbackFunc != nil)
	return nil
}

// getDeviceService must be called with bleMu held
func (b *btDeviceImpl) getDeviceService(serviceUuid bluetooth.UUID) (*bluetooth.DeviceService, error) {
	serviceUuidStr := serviceUuid.String()
	if service, ok := b.serviceByUuid[serviceUuidStr]; ok {
		return service, nil
	}

	// Discover every service at once; discovering one at a time interrupts
	// services that are already in use on some stacks
	if !b.allServicesDiscovered {
		b.logger.Printf("BTDevice: Discovering all services for %s", b.address)
		deviceServices, err := b.connectedDevice.DiscoverServices(nil)
		if err != nil {
			return nil, fmt.Errorf("error discovering services: %w", err)
		}
		for i := range deviceServices {
			svc := &deviceServices[i]
			b.serviceByUuid[svc.UUID().String()] = svc
		}
		b.allServicesDiscovered = true
	}

	service, ok := b.serviceByUuid[serviceUuidStr]
	if !ok {
		return nil, fmt.Errorf("service %v not found on device", serviceUuidStr)
	}
	return service, nil
}

// getDeviceCharacteristic must be called with bleMu held
func (b *btDeviceImpl) getDeviceCharacteristic(serviceUuid bluetooth.UUID, charUuid bluetooth.UUID) (*bluetooth.DeviceCharacteristic, error) {
	serviceUuidStr := serviceUuid.String()
	comboUuidStr := fmt.Sprintf("%s_%s", serviceUuidStr, charUuid.String())

	if characteristic, ok := b.characteristicByUuid[comboUuidStr]; ok {
		return characteristic, nil
	}

	if !b.serviceCharsDiscovered[serviceUuidStr] {
		service, err := b.getDeviceService(serviceUuid)
		if err != nil {
			return nil, err
		}

		b.logger.Printf("BTDevice: Discovering all characteristics for service %s", serviceUuidStr)
		discovered, err := service.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("could not discover characteristics for service %v: %w", serviceUuidStr, err)
		}
		for i := range discovered {
			char := &discovered[i]
			b.characteristicByUuid[fmt.Sprintf("%s_%s", serviceUuidStr, char.UUID().String())] = char
		}
		b.serviceCharsDiscovered[serviceUuidStr] = true
	}

	characteristic, ok := b.characteristicByUuid[comboUuidStr]
	if !ok {
		return nil, fmt.Errorf("characteristic %v not found in service %v", charUuid.String(), serviceUuidStr)
	}
	return characteristic, nil
}
