// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"

	"github.com/EvieLachlanB/realm-core/mixed"
)

// Snapshot file layout:
//
//	8 bytes  magic
//	4 bytes  little-endian length of the compressed body
//	n bytes  zstd-compressed JSON body
//	32 bytes blake2b-256 of the compressed body
//
// Unlike a Definition, the body records column keys and row
// keys explicitly, so schemas that have had columns removed
// (key gaps) survive a round trip.

var snapMagic = [8]byte{'r', 'c', 's', 'n', 'a', 'p', '0', '1'}

// ErrSnapshotCorrupt is returned by ReadSnapshot when the
// checksum of the payload does not match the trailer.
var ErrSnapshotCorrupt = errors.New("store: snapshot checksum mismatch")

type snapColumn struct {
	Key    ColKey `json:"key"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
}

type snapCell struct {
	Col   ColKey       `json:"col"`
	Value *mixed.Value `json:"value,omitempty"`
	Link  RowKey       `json:"link,omitempty"`
}

type snapRow struct {
	Key   RowKey     `json:"key"`
	Cells []snapCell `json:"cells,omitempty"`
}

type snapTable struct {
	Name    string       `json:"name"`
	NextCol ColKey       `json:"next_col"`
	NextRow RowKey       `json:"next_row"`
	Columns []snapColumn `json:"columns"`
	Rows    []snapRow    `json:"rows"`
}

type snapBody struct {
	Tables []snapTable `json:"tables"`
}

var (
	snapEncoder *zstd.Encoder
	snapDecoder *zstd.Decoder
)

func init() {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}
	snapEncoder = enc
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}
	snapDecoder = dec
}

// WriteSnapshot writes a snapshot of db to w.
func WriteSnapshot(w io.Writer, db *Database) error {
	var body snapBody
	for _, t := range db.Tables() {
		st := snapTable{
			Name:    t.name,
			NextCol: t.schema.next,
			NextRow: t.nextKey,
		}
		for _, c := range t.schema.cols {
			st.Columns = append(st.Columns, snapColumn{
				Key:    c.Key,
				Name:   c.Name,
				Type:   c.Type.String(),
				Target: c.Target,
			})
		}
		for _, key := range t.order {
			r := t.rows[key]
			sr := snapRow{Key: key}
			for _, c := range t.schema.cols {
				if v, ok := r.vals[c.Key]; ok {
					val := v
					sr.Cells = append(sr.Cells, snapCell{Col: c.Key, Value: &val})
				} else if l, ok := r.links[c.Key]; ok {
					sr.Cells = append(sr.Cells, snapCell{Col: c.Key, Link: l})
				}
			}
			st.Rows = append(st.Rows, sr)
		}
		body.Tables = append(body.Tables, st)
	}
	raw, err := json.Marshal(&body)
	if err != nil {
		return fmt.Errorf("store: encoding snapshot: %w", err)
	}
	compressed := snapEncoder.EncodeAll(raw, nil)
	if len(compressed) > (1<<32)-1 {
		return fmt.Errorf("store: snapshot too large (%d bytes)", len(compressed))
	}
	var hdr [12]byte
	copy(hdr[:8], snapMagic[:])
	binary.LittleEndian.PutUint32(hdr[8:], uint32(len(compressed)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}
	sum := blake2b.Sum256(compressed)
	_, err = w.Write(sum[:])
	return err
}

// ReadSnapshot reads a snapshot written by WriteSnapshot and
// materializes it into a fresh database. Every table in the
// result is a new instance.
func ReadSnapshot(r io.Reader) (*Database, error) {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("store: reading snapshot header: %w", err)
	}
	if !bytes.Equal(hdr[:8], snapMagic[:]) {
		return nil, fmt.Errorf("store: bad snapshot magic %q", hdr[:8])
	}
	size := binary.LittleEndian.Uint32(hdr[8:])
	compressed := make([]byte, size)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("store: reading snapshot body: %w", err)
	}
	var sum [32]byte
	if _, err := io.ReadFull(r, sum[:]); err != nil {
		return nil, fmt.Errorf("store: reading snapshot checksum: %w", err)
	}
	if blake2b.Sum256(compressed) != sum {
		return nil, ErrSnapshotCorrupt
	}
	raw, err := snapDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("store: decompressing snapshot: %w", err)
	}
	var body snapBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("store: decoding snapshot: %w", err)
	}
	db := NewDatabase()
	for i := range body.Tables {
		st := &body.Tables[i]
		t, err := db.CreateTable(st.Name)
		if err != nil {
			return nil, err
		}
		for _, sc := range st.Columns {
			typ, err := ParseColumnType(sc.Type)
			if err != nil {
				return nil, fmt.Errorf("store: snapshot table %q: %w", st.Name, err)
			}
			t.schema.cols = append(t.schema.cols, Column{
				Key:    sc.Key,
				Name:   sc.Name,
				Type:   typ,
				Target: sc.Target,
			})
		}
		t.schema.next = st.NextCol
		t.nextKey = st.NextRow
		for _, sr := range st.Rows {
			nr := &row{
				vals:  make(map[ColKey]mixed.Value),
				links: make(map[ColKey]RowKey),
			}
			for _, cell := range sr.Cells {
				if cell.Value != nil {
					nr.vals[cell.Col] = *cell.Value
				} else if cell.Link != InvalidRowKey {
					nr.links[cell.Col] = cell.Link
				}
			}
			t.rows[sr.Key] = nr
			t.order = append(t.order, sr.Key)
		}
	}
	return db, nil
}
