package simulated

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSDCardMountRequiresInsertion(t *testing.T) {
	s := NewSDCard()
	s.Eject()

	err := s.Mount()

	assert.Error(t, err)
}

func TestSDCardMountFailsRejectsMount(t *testing.T) {
	s := NewSDCard()
	s.MountFails = true

	err := s.Mount()

	assert.Error(t, err)
}

func TestSDCardOpenFileRequiresMount(t *testing.T) {
	s := NewSDCard()

	_, err := s.OpenFile("LOG/RUN001.TCN")

	assert.Error(t, err)
}

func TestSDCardOpenFileAppendsAcrossWrites(t *testing.T) {
	s := NewSDCard()
	require.NoError(t, s.Mount())

	f, err := s.OpenFile("LOG/RUN001.TCN")
	require.NoError(t, err)

	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = f.Write([]byte("def"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, []byte("abcdef"), s.File("LOG/RUN001.TCN"))
}

func TestSDCardDirLifecycle(t *testing.T) {
	s := NewSDCard()

	ok, err := s.Exists("LOG")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Mkdir("LOG"))

	ok, err = s.Exists("LOG")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSDCardEntriesListsFilesUnderDir(t *testing.T) {
	s := NewSDCard()
	require.NoError(t, s.Mkdir("LOG"))
	require.NoError(t, s.Mount())

	_, err := s.OpenFile("LOG/RUN001.TCN")
	require.NoError(t, err)
	_, err = s.OpenFile("LOG/RUN002.TCN")
	require.NoError(t, err)
	_, err = s.OpenFile("OTHER/FILE.TXT")
	require.NoError(t, err)

	entries, err := s.Entries("LOG")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"RUN001.TCN", "RUN002.TCN"}, entries)
}

func TestSDCardAppendAndSyncRequiresMount(t *testing.T) {
	s := NewSDCard()

	err := s.AppendAndSync("RUN001.TCN", []byte("x"))

	assert.Error(t, err)
}
