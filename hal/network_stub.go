package hal

import "context"

// nullNetwork is used on boards without a radio.
type nullNetwork struct{}

func (nullNetwork) JoinStation(ctx context.Context, ssid, password string) (string, error) {
	_ = ctx
	_ = ssid
	_ = password
	return "", ErrNotImplemented
}

func (nullNetwork) StartAccessPoint(ssid, password string) (string, error) {
	_ = ssid
	_ = password
	return "", ErrNotImplemented
}
