package models

// ClockState is the persisted state of the device's vector clock manager.
type ClockState struct {
	Clock          VectorClock `json:"clock"`
	DeviceID       string      `json:"device_id"`
	LastSeq        int64       `json:"last_seq"`        // последний выданный seq этого устройства
	ResyncRequired bool        `json:"resync_required"` // часы были переинициализированы, нужен полный pull
}

// Clone создает глубокую копию состояния
func (s *ClockState) Clone() *ClockState {
	out := *s
	out.Clock = s.Clock.Clone()
	return &out
}
