package fileid

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Export writes every entry to w in the store format. The output is zstd
// compressed when compressed is set.
func (c *Cache) Export(w io.Writer, compressed bool) error {
	data, err := json.MarshalIndent(c.All(), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if !compressed {
		_, err = w.Write(data)
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// Import merges the entries read from r into the cache and rewrites the
// store. Both plain and zstd compressed exports are accepted. Imported
// entries win over existing ones. It returns the number of entries read.
func (c *Cache) Import(r io.Reader) (int, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	if magic, _ := br.Peek(len(zstdMagic)); bytes.Equal(magic, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return 0, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()
		src = dec
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	ids, err := decode(data)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := maps.Clone(c.ids)
	maps.Copy(c.ids, ids)
	if err := c.save(); err != nil {
		c.ids = prev
		return 0, err
	}
	c.loaded = true
	return len(ids), nil
}
