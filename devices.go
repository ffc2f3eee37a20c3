package authcore

import "time"

// UpsertDevice updates the record matching info.ID in place or appends a
// new one. Device ids are client-supplied and unique per user.
func (u *UserDocument) UpsertDevice(info DeviceInfo, ip string, location *LocationSnapshot, now time.Time) {
	for i := range u.Devices {
		if u.Devices[i].ID == info.ID {
			u.Devices[i].Browser = info.Browser
			u.Devices[i].OS = info.OS
			u.Devices[i].IP = ip
			u.Devices[i].Location = location
			u.Devices[i].LastActive = now
			return
		}
	}

	u.Devices = append(u.Devices, DeviceRecord{
		ID:         info.ID,
		Browser:    info.Browser,
		OS:         info.OS,
		IP:         ip,
		Location:   location,
		LastActive: now,
	})
}

// RemoveDevice drops the record with the given id. Removing an absent
// device is not an error.
func (u *UserDocument) RemoveDevice(deviceID string) {
	for i := range u.Devices {
		if u.Devices[i].ID == deviceID {
			u.Devices = append(u.Devices[:i], u.Devices[i+1:]...)
			return
		}
	}
}

// ClearDevices empties the device list. Used alongside a revoke-all
// whenever every existing session must be invalidated.
func (u *UserDocument) ClearDevices() {
	u.Devices = nil
}

// Device returns the record with the given id, or nil.
func (u *UserDocument) Device(deviceID string) *DeviceRecord {
	for i := range u.Devices {
		if u.Devices[i].ID == deviceID {
			return &u.Devices[i]
		}
	}
	return nil
}
