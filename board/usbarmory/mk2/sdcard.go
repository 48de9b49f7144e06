// USB armory Mk II support for tamago/arm
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

package mk2

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/usbarmory/canbridge/soc/nxp/usdhc"
)

// SDFS implements datalogger.FS over the board's raw SD/MMC block
// I/O. soc/nxp/usdhc only exposes ReadBlocks/WriteBlocks — no
// filesystem driver exists anywhere in this tree or the reference
// material it was built from, and writing a real FAT implementation
// sits below hal's documented chip-register abstraction line. SDFS is
// instead a minimal, purpose-built single-volume append log: a fixed
// directory table plus a monotonically advancing data watermark, sized
// to the datalogger's actual access pattern — one file open at a time,
// sequential appends, no deletion, no space reclaim.
type SDFS struct {
	Card *usdhc.USDHC

	blockSize int
	nextFree  uint32
	entries   []sdEntry
	mounted   bool
}

const (
	sdSuperblockLBA  = 0
	sdDirTableLBA    = 1
	sdDirTableBlocks = 32
	sdDataStartLBA   = sdDirTableLBA + sdDirTableBlocks

	sdEntrySize  = 64
	sdMaxPathLen = 52

	sdMagic = "CBSB"

	sdKindDir  = 0
	sdKindFile = 1

	// sdFileReserveBlocks is the fixed region reserved for every new
	// file at OpenFile time, since a file's final size isn't known
	// up front and SDFS never reclaims or defragments space.
	sdFileReserveBlocks = 2048
)

type sdEntry struct {
	path     string
	kind     byte
	startLBA uint32
	length   uint32
}

func decodeSDEntry(b []byte) sdEntry {
	return sdEntry{
		path:     strings.TrimRight(string(b[:sdMaxPathLen]), "\x00"),
		kind:     b[sdMaxPathLen],
		startLBA: binary.BigEndian.Uint32(b[sdMaxPathLen+4 : sdMaxPathLen+8]),
		length:   binary.BigEndian.Uint32(b[sdMaxPathLen+8 : sdMaxPathLen+12]),
	}
}

func encodeSDEntry(e sdEntry) []byte {
	b := make([]byte, sdEntrySize)
	copy(b[:sdMaxPathLen], e.path)
	b[sdMaxPathLen] = e.kind
	binary.BigEndian.PutUint32(b[sdMaxPathLen+4:sdMaxPathLen+8], e.startLBA)
	binary.BigEndian.PutUint32(b[sdMaxPathLen+8:sdMaxPathLen+12], e.length)
	return b
}

// Mount implements datalogger.FS: it (re-)runs card detection/speed
// negotiation, since FSM calls Mount on every card-insert transition
// and the driver has no memory of a card removed and reinserted, then
// reads the superblock, formatting a fresh volume if the magic doesn't
// match, and loads the directory table into memory.
func (s *SDFS) Mount() error {
	if err := s.Card.Detect(); err != nil {
		return fmt.Errorf("sdfs: %w", err)
	}

	info := s.Card.Info()
	if info.BlockSize == 0 {
		return fmt.Errorf("sdfs: card not detected")
	}
	s.blockSize = info.BlockSize

	sb := make([]byte, s.blockSize)
	if err := s.Card.ReadBlocks(sdSuperblockLBA, sb); err != nil {
		return err
	}

	if string(sb[:4]) != sdMagic {
		return s.format()
	}

	s.nextFree = binary.BigEndian.Uint32(sb[4:8])
	count := binary.BigEndian.Uint32(sb[8:12])

	if err := s.loadEntries(count); err != nil {
		return err
	}

	s.mounted = true
	return nil
}

// Unmount implements datalogger.FS.
func (s *SDFS) Unmount() error {
	s.mounted = false
	return nil
}

func (s *SDFS) format() error {
	s.nextFree = sdDataStartLBA
	s.entries = nil

	zero := make([]byte, sdDirTableBlocks*s.blockSize)
	if err := s.Card.WriteBlocks(sdDirTableLBA, zero); err != nil {
		return err
	}

	if err := s.writeSuperblock(); err != nil {
		return err
	}

	s.mounted = true
	return nil
}

func (s *SDFS) writeSuperblock() error {
	sb := make([]byte, s.blockSize)
	copy(sb[:4], sdMagic)
	binary.BigEndian.PutUint32(sb[4:8], s.nextFree)
	binary.BigEndian.PutUint32(sb[8:12], uint32(len(s.entries)))
	return s.Card.WriteBlocks(sdSuperblockLBA, sb)
}

func (s *SDFS) loadEntries(count uint32) error {
	buf := make([]byte, sdDirTableBlocks*s.blockSize)
	if err := s.Card.ReadBlocks(sdDirTableLBA, buf); err != nil {
		return err
	}

	entries := make([]sdEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		off := int(i) * sdEntrySize
		if off+sdEntrySize > len(buf) {
			break
		}
		entries = append(entries, decodeSDEntry(buf[off:off+sdEntrySize]))
	}

	s.entries = entries
	return nil
}

// appendEntry writes e into the next free directory slot and persists
// both the entry and the updated superblock entry count.
func (s *SDFS) appendEntry(e sdEntry) (int, error) {
	idx := len(s.entries)
	if (idx+1)*sdEntrySize > sdDirTableBlocks*s.blockSize {
		return 0, fmt.Errorf("sdfs: directory table full")
	}

	if err := s.writeEntryAt(idx, e); err != nil {
		return 0, err
	}

	s.entries = append(s.entries, e)

	return idx, s.writeSuperblock()
}

func (s *SDFS) writeEntryAt(idx int, e sdEntry) error {
	perBlock := s.blockSize / sdEntrySize
	blockLBA := sdDirTableLBA + idx/perBlock
	within := (idx % perBlock) * sdEntrySize

	block := make([]byte, s.blockSize)
	if err := s.Card.ReadBlocks(blockLBA, block); err != nil {
		return err
	}
	copy(block[within:within+sdEntrySize], encodeSDEntry(e))

	return s.Card.WriteBlocks(blockLBA, block)
}

func (s *SDFS) updateLength(idx int, length uint32) error {
	if idx >= len(s.entries) {
		return fmt.Errorf("sdfs: invalid entry index")
	}

	e := s.entries[idx]
	e.length = length
	s.entries[idx] = e

	return s.writeEntryAt(idx, e)
}

// Exists implements datalogger.Dir.
func (s *SDFS) Exists(dirname string) (bool, error) {
	for _, e := range s.entries {
		if e.kind == sdKindDir && e.path == dirname {
			return true, nil
		}
	}
	return false, nil
}

// Mkdir implements datalogger.Dir.
func (s *SDFS) Mkdir(dirname string) error {
	if len(dirname) > sdMaxPathLen {
		return fmt.Errorf("sdfs: directory name too long")
	}
	_, err := s.appendEntry(sdEntry{path: dirname, kind: sdKindDir})
	return err
}

// Entries implements datalogger.Dir.
func (s *SDFS) Entries(dirname string) ([]string, error) {
	prefix := dirname + "/"

	var names []string
	for _, e := range s.entries {
		if e.kind != sdKindFile {
			continue
		}
		if rest, ok := strings.CutPrefix(e.path, prefix); ok {
			names = append(names, rest)
		}
	}

	return names, nil
}

// OpenFile implements datalogger.FS: it reserves a fixed data region
// starting at the current watermark and records a new directory
// entry for it.
func (s *SDFS) OpenFile(path string) (io.WriteCloser, error) {
	if !s.mounted {
		return nil, fmt.Errorf("sdfs: not mounted")
	}
	if len(path) > sdMaxPathLen {
		return nil, fmt.Errorf("sdfs: path too long")
	}

	startLBA := s.nextFree
	s.nextFree += sdFileReserveBlocks

	idx, err := s.appendEntry(sdEntry{path: path, kind: sdKindFile, startLBA: startLBA})
	if err != nil {
		return nil, err
	}

	return &sdFile{fs: s, entryIdx: idx, startLBA: startLBA}, nil
}

// sdFile is the io.WriteCloser datalogger.Writer appends encoded
// records to. Full blocks are written through immediately; a trailing
// partial block is buffered and flushed (zero-padded) on Sync, along
// with the entry's persisted length — matching the periodic-fsync
// cadence datalogger.NewFileSyncTicker drives it at.
type sdFile struct {
	fs       *SDFS
	entryIdx int
	startLBA uint32
	written  uint32
	buf      []byte
}

func (f *sdFile) Write(p []byte) (int, error) {
	limit := sdFileReserveBlocks * uint32(f.fs.blockSize)
	if f.written+uint32(len(f.buf))+uint32(len(p)) > limit {
		return 0, fmt.Errorf("sdfs: file exceeds reserved region")
	}

	f.buf = append(f.buf, p...)

	blockSize := f.fs.blockSize
	n := len(f.buf) / blockSize
	if n > 0 {
		full := f.buf[:n*blockSize]
		lba := int(f.startLBA) + int(f.written)/blockSize

		if err := f.fs.Card.WriteBlocks(lba, full); err != nil {
			return 0, err
		}

		f.written += uint32(n * blockSize)
		f.buf = append([]byte(nil), f.buf[n*blockSize:]...)
	}

	return len(p), nil
}

// Sync implements datalogger.Syncer: it flushes any buffered partial
// block and persists the file's current logical length.
func (f *sdFile) Sync() error {
	blockSize := f.fs.blockSize

	if len(f.buf) > 0 {
		padded := make([]byte, blockSize)
		copy(padded, f.buf)

		lba := int(f.startLBA) + int(f.written)/blockSize
		if err := f.fs.Card.WriteBlocks(lba, padded); err != nil {
			return err
		}
	}

	return f.fs.updateLength(f.entryIdx, f.written+uint32(len(f.buf)))
}

func (f *sdFile) Close() error {
	return f.Sync()
}
