// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bgzf

import (
	"bufio"
	"io"
	"sort"
	"sync"
)

// Block locates the start of a BGZF block in both the compressed archive and
// the uncompressed stream.
type Block struct {
	Compressed, Uncompressed int64
}

// Table accumulates the blocks decoded by every Reader that shares it.  It
// lets a reader jump close to an uncompressed offset without decoding the
// archive from the beginning.
type Table struct {
	mu     sync.Mutex
	blocks []Block
}

func (t *Table) add(block Block) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.blocks); n > 0 && t.blocks[n-1].Compressed >= block.Compressed {
		return
	}
	t.blocks = append(t.blocks, block)
}

// Locate returns the last known block that starts at or before offset in the
// uncompressed stream.  The zero Block is returned if no such block has been
// seen yet.
func (t *Table) Locate(offset int64) Block {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := sort.Search(len(t.blocks), func(i int) bool {
		return t.blocks[i].Uncompressed > offset
	})
	if i == 0 {
		return Block{}
	}
	return t.blocks[i-1]
}

// Len returns the number of blocks in the table.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.blocks)
}

// Reader decompresses a BGZF archive block by block.  Must be created with
// NewReader.
type Reader struct {
	r     *bufio.Reader
	table *Table

	block Block
	next  Block
	data  []byte
	pos   int
}

// NewReader returns a Reader that decodes blocks from r, which must be
// positioned at the compressed offset of start.  Every block decoded is
// recorded in table.
func NewReader(r io.Reader, start Block, table *Table) *Reader {
	return &Reader{
		r:     bufio.NewReader(r),
		table: table,
		block: start,
		next:  start,
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	for r.pos == len(r.data) {
		if err := r.advance(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

func (r *Reader) advance() error {
	if _, err := r.r.Peek(1); err != nil {
		return err
	}
	data, size, err := DecodeBlock(r.r)
	if err != nil {
		return err
	}
	r.block = r.next
	r.table.add(r.block)
	r.data, r.pos = data, 0
	r.next = Block{
		Compressed:   r.block.Compressed + int64(size),
		Uncompressed: r.block.Uncompressed + int64(len(data)),
	}
	return nil
}
