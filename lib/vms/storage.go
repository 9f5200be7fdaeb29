package vms

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/hostplane/pveman/lib/proxmox"
)

// storageSelection is the selector's verdict: which backend to place the
// primary disk on, which image format to use, and whether a cloud-init
// volume can be attached. Format and cloud-init follow purely from the
// backend type and are never user-overridable.
type storageSelection struct {
	Name      string
	Format    string
	CloudInit bool
}

// selectStorage picks the storage backend for a new guest's disks.
//
// With an explicit name the backend must exist and hold images. Without
// one, auto-detection prefers a backend literally named "local-lvm", then
// "vm-storage", then the first images-capable backend in list order.
func selectStorage(storages []proxmox.Storage, explicit string) (storageSelection, error) {
	if explicit != "" {
		s, found := lo.Find(storages, func(s proxmox.Storage) bool { return s.Name == explicit })
		if !found {
			return storageSelection{}, fmt.Errorf("%w: storage %q not found on node", ErrUnsupportedStorage, explicit)
		}
		if !holdsImages(s) {
			return storageSelection{}, fmt.Errorf("%w: storage %q does not hold vm images", ErrUnsupportedStorage, explicit)
		}
		return selectionFor(s), nil
	}

	for _, preferred := range []string{"local-lvm", "vm-storage"} {
		if s, found := lo.Find(storages, func(s proxmox.Storage) bool {
			return s.Name == preferred && holdsImages(s)
		}); found {
			return selectionFor(s), nil
		}
	}

	if s, found := lo.Find(storages, holdsImages); found {
		return selectionFor(s), nil
	}

	return storageSelection{}, ErrNoSuitableStorage
}

// holdsImages reports whether the backend declares the "images" content
// capability.
func holdsImages(s proxmox.Storage) bool {
	return lo.Contains(strings.Split(s.Content, ","), "images")
}

// selectionFor derives format and cloud-init attachment from the backend
// type. Block-backed storage takes raw images and cannot hold a cloud-init
// volume; file-backed storage takes qcow2 and gets one. Unrecognized types
// fall back to raw without cloud-init.
func selectionFor(s proxmox.Storage) storageSelection {
	switch s.Type {
	case "lvm", "lvmthin":
		return storageSelection{Name: s.Name, Format: "raw"}
	case "dir", "nfs", "cifs":
		return storageSelection{Name: s.Name, Format: "qcow2", CloudInit: true}
	default:
		return storageSelection{Name: s.Name, Format: "raw"}
	}
}
