//go:build unix

package organizer

import "golang.org/x/sys/unix"

func applyOwnership(path string, uid, gid int) error {
	if uid < 0 && gid < 0 {
		return nil
	}
	return unix.Lchown(path, uid, gid)
}
