package vms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostplane/pveman/lib/proxmox"
)

func TestSelectStorageAutoDetection(t *testing.T) {
	tests := []struct {
		name     string
		storages []proxmox.Storage
		want     storageSelection
	}{
		{
			name: "lvmthin backend yields raw without cloudinit",
			storages: []proxmox.Storage{
				{Name: "local-lvm", Type: "lvmthin", Content: "images,rootdir"},
			},
			want: storageSelection{Name: "local-lvm", Format: "raw"},
		},
		{
			name: "nfs backend yields qcow2 with cloudinit",
			storages: []proxmox.Storage{
				{Name: "nfs1", Type: "nfs", Content: "images"},
			},
			want: storageSelection{Name: "nfs1", Format: "qcow2", CloudInit: true},
		},
		{
			name: "local-lvm preferred over earlier images-capable backends",
			storages: []proxmox.Storage{
				{Name: "big-nfs", Type: "nfs", Content: "images"},
				{Name: "vm-storage", Type: "dir", Content: "images"},
				{Name: "local-lvm", Type: "lvmthin", Content: "images,rootdir"},
			},
			want: storageSelection{Name: "local-lvm", Format: "raw"},
		},
		{
			name: "vm-storage preferred when local-lvm lacks images",
			storages: []proxmox.Storage{
				{Name: "local-lvm", Type: "lvmthin", Content: "rootdir"},
				{Name: "vm-storage", Type: "dir", Content: "images"},
			},
			want: storageSelection{Name: "vm-storage", Format: "qcow2", CloudInit: true},
		},
		{
			name: "first images-capable backend in list order otherwise",
			storages: []proxmox.Storage{
				{Name: "iso-store", Type: "dir", Content: "iso,vztmpl"},
				{Name: "ceph-a", Type: "rbd", Content: "images"},
				{Name: "dir-b", Type: "dir", Content: "images"},
			},
			want: storageSelection{Name: "ceph-a", Format: "raw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectStorage(tt.storages, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Deterministic: same inputs, same answer.
			again, err := selectStorage(tt.storages, "")
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestSelectStorageExplicitName(t *testing.T) {
	storages := []proxmox.Storage{
		{Name: "local-lvm", Type: "lvmthin", Content: "images,rootdir"},
		{Name: "backup", Type: "dir", Content: "backup"},
		{Name: "share", Type: "cifs", Content: "images"},
	}

	sel, err := selectStorage(storages, "share")
	require.NoError(t, err)
	assert.Equal(t, storageSelection{Name: "share", Format: "qcow2", CloudInit: true}, sel)

	_, err = selectStorage(storages, "missing")
	assert.ErrorIs(t, err, ErrUnsupportedStorage)

	_, err = selectStorage(storages, "backup")
	assert.ErrorIs(t, err, ErrUnsupportedStorage)
}

func TestSelectStorageNoneSuitable(t *testing.T) {
	_, err := selectStorage([]proxmox.Storage{
		{Name: "iso-store", Type: "dir", Content: "iso"},
	}, "")
	assert.ErrorIs(t, err, ErrNoSuitableStorage)

	_, err = selectStorage(nil, "")
	assert.ErrorIs(t, err, ErrNoSuitableStorage)
}

func TestHoldsImagesMatchesWholeCapability(t *testing.T) {
	// "images" must be a capability of its own, not a substring.
	assert.True(t, holdsImages(proxmox.Storage{Content: "rootdir,images"}))
	assert.False(t, holdsImages(proxmox.Storage{Content: "isoimages"}))
	assert.False(t, holdsImages(proxmox.Storage{Content: ""}))
}
