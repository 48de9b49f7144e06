package datalogger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDir struct {
	dirs    map[string]bool
	entries map[string][]string
}

func newFakeDir() *fakeDir {
	return &fakeDir{dirs: map[string]bool{}, entries: map[string][]string{}}
}

func (d *fakeDir) Exists(dirname string) (bool, error) { return d.dirs[dirname], nil }
func (d *fakeDir) Mkdir(dirname string) error {
	d.dirs[dirname] = true
	return nil
}
func (d *fakeDir) Entries(dirname string) ([]string, error) { return d.entries[dirname], nil }

func TestNextNameCreatesDirAndUsesBareBasename(t *testing.T) {
	d := newFakeDir()

	path, err := NextName(d, "20240115", "0830")

	require.NoError(t, err)
	assert.Equal(t, "20240115/0830", path)
	assert.True(t, d.dirs["20240115"])
}

func TestNextNameSequencesFromExistingEntries(t *testing.T) {
	d := newFakeDir()
	d.dirs["20240115"] = true
	d.entries["20240115"] = []string{"0830", "0830_1", "0830_3"}

	path, err := NextName(d, "20240115", "0830")

	require.NoError(t, err)
	assert.Equal(t, "20240115/0830_4", path)
}

func TestNextNameIgnoresUnrelatedEntries(t *testing.T) {
	d := newFakeDir()
	d.dirs["20240115"] = true
	d.entries["20240115"] = []string{"0900", "0830_abc"}

	path, err := NextName(d, "20240115", "0830")

	require.NoError(t, err)
	assert.Equal(t, "20240115/0830", path)
}

func TestNextNameFailsWhenSuffixWouldOverflowFATField(t *testing.T) {
	d := newFakeDir()
	d.dirs["20240115"] = true
	d.entries["20240115"] = []string{"longname"}

	_, err := NextName(d, "20240115", "longname")

	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestNextNameRejectsOverlongBasename(t *testing.T) {
	d := newFakeDir()

	_, err := NextName(d, "20240115", "waytoolongname")

	assert.ErrorIs(t, err, ErrNameTooLong)
}
