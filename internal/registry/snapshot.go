package registry

import (
	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/store"
)

// ReadRoster reads and decodes the roster under key without joining it.
// Observers use it; it never writes, so a corrupt value is reported as is.
func ReadRoster(s store.Store, key string) (model.RosterResult, error) {
	data, ok, err := s.Read(key)
	if err != nil {
		return model.RosterResult{}, err
	}
	if !ok {
		data = nil
	}
	return model.DecodeRoster(data), nil
}
