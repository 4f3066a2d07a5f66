// Package platform models the host's permission checks. The real checks
// belong to the device; photosync only asks yes or no.
package platform

import (
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/photosync/internal/common"
)

// Capabilities answers whether camera and storage access are granted.
type Capabilities interface {
	CameraGranted() bool
	StorageGranted() bool
}

// Grants is a Capabilities whose answers can change at runtime, the way a
// user grants a permission from a dialog.
type Grants struct {
	camera  atomic.Bool
	storage atomic.Bool
}

func NewGrants(camera, storage bool) *Grants {
	g := &Grants{}
	g.camera.Store(camera)
	g.storage.Store(storage)
	return g
}

func (g *Grants) CameraGranted() bool  { return g.camera.Load() }
func (g *Grants) StorageGranted() bool { return g.storage.Load() }

// Set grants or revokes one capability by name.
func (g *Grants) Set(capability string, granted bool) error {
	switch capability {
	case common.CapabilityCamera:
		g.camera.Store(granted)
	case common.CapabilityStorage:
		g.storage.Store(granted)
	default:
		return fmt.Errorf("unknown capability %q", capability)
	}
	return nil
}

// Require returns a *common.PermissionError for the first capability in
// names that is not granted.
func Require(c Capabilities, names ...string) error {
	for _, n := range names {
		ok := false
		switch n {
		case common.CapabilityCamera:
			ok = c.CameraGranted()
		case common.CapabilityStorage:
			ok = c.StorageGranted()
		}
		if !ok {
			return &common.PermissionError{Capability: n}
		}
	}
	return nil
}
