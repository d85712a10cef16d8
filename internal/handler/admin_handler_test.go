package handler

import (
	"context"
	"errors"
	"testing"
)

type recordingPurger struct {
	purged []string
	err    error
}

func (p *recordingPurger) Purge(_ context.Context, email string) error {
	p.purged = append(p.purged, email)
	return p.err
}

func TestPurgeOnRename(t *testing.T) {
	p := &recordingPurger{}
	purgeOnRename(context.Background(), p, "old@lizza.com", "new@lizza.com")
	if len(p.purged) != 1 || p.purged[0] != "old@lizza.com" {
		t.Errorf("purged = %v, want the old address only", p.purged)
	}
}

func TestPurgeOnRenameSameEmail(t *testing.T) {
	p := &recordingPurger{}
	purgeOnRename(context.Background(), p, "jane.doe@lizza.com", "jane.doe@lizza.com")
	if len(p.purged) != 0 {
		t.Errorf("purged = %v, want none for an unchanged address", p.purged)
	}
}

func TestPurgeOnRenameWithoutStore(t *testing.T) {
	// nil store is the Redis-less deployment; must be a no-op, not a panic.
	purgeOnRename(context.Background(), nil, "old@lizza.com", "new@lizza.com")
}

func TestPurgeOnRenameErrorIsNonFatal(t *testing.T) {
	p := &recordingPurger{err: errors.New("redis down")}
	purgeOnRename(context.Background(), p, "old@lizza.com", "new@lizza.com")
	if len(p.purged) != 1 {
		t.Errorf("purge not attempted despite store being present")
	}
}
