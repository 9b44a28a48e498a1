// Package huffman builds byte-level Huffman codes and packs encoded output
// into bit strings.
//
// Ties between equal frequencies break on symbol value for leaves and on
// creation order for merged nodes, so the same input always yields the same
// code table. An input with a single distinct symbol gets the code "0".
package huffman

import (
	"container/heap"
	"errors"
	"sort"
	"strings"
)

const bitsPerByte = 8

var (
	// ErrEmptyInput is returned when building a code from no data.
	ErrEmptyInput = errors.New("huffman: empty input")

	// ErrUnknownSymbol is returned when encoding a byte absent from the code.
	ErrUnknownSymbol = errors.New("huffman: symbol not in code table")

	// ErrTruncated is returned when decoding ends inside a code word.
	ErrTruncated = errors.New("huffman: bit stream ends mid-symbol")
)

type node struct {
	freq        int
	order       int
	sym         byte
	left, right *node
}

func (n *node) leaf() bool {
	return n.left == nil
}

type queue []*node

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].freq != q[j].freq {
		return q[i].freq < q[j].freq
	}

	return q[i].order < q[j].order
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(*node)) }

func (q *queue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]

	return n
}

// Code is an immutable Huffman code table.
type Code struct {
	root  *node
	codes [256]string
	freqs [256]int
}

// Build derives a code from the byte frequencies of data.
func Build(data []byte) (*Code, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	c := &Code{}
	for _, b := range data {
		c.freqs[b]++
	}

	q := make(queue, 0, len(c.freqs))

	for sym, f := range c.freqs {
		if f > 0 {
			q = append(q, &node{freq: f, order: sym, sym: byte(sym)})
		}
	}

	heap.Init(&q)

	next := len(c.freqs)

	for q.Len() > 1 {
		a := heap.Pop(&q).(*node)
		b := heap.Pop(&q).(*node)
		heap.Push(&q, &node{freq: a.freq + b.freq, order: next, left: a, right: b})
		next++
	}

	c.root = q[0]
	c.assign()

	return c, nil
}

// assign walks the tree and records every leaf's path.
func (c *Code) assign() {
	if c.root.leaf() {
		c.codes[c.root.sym] = "0"

		return
	}

	type item struct {
		n    *node
		path string
	}

	stack := []item{{n: c.root}}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if it.n.leaf() {
			c.codes[it.n.sym] = it.path

			continue
		}

		stack = append(stack, item{it.n.right, it.path + "1"}, item{it.n.left, it.path + "0"})
	}
}

// Entry is one row of a code table.
type Entry struct {
	Symbol    byte   `json:"symbol"    yaml:"symbol"`
	Frequency int    `json:"frequency" yaml:"frequency"`
	Code      string `json:"code"      yaml:"code"`
}

// Codes returns the table ordered by symbol.
func (c *Code) Codes() []Entry {
	out := make([]Entry, 0)

	for sym, code := range c.codes {
		if code != "" {
			out = append(out, Entry{Symbol: byte(sym), Frequency: c.freqs[sym], Code: code})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })

	return out
}

// Lookup returns the code word for sym.
func (c *Code) Lookup(sym byte) (string, bool) {
	code := c.codes[sym]

	return code, code != ""
}

// Bits is a packed bit string, most significant bit first.
type Bits struct {
	Data []byte
	Len  int
}

func (b *Bits) push(bit bool) {
	if b.Len%bitsPerByte == 0 {
		b.Data = append(b.Data, 0)
	}

	if bit {
		b.Data[b.Len/bitsPerByte] |= 0x80 >> (b.Len % bitsPerByte)
	}

	b.Len++
}

// At returns bit i.
func (b Bits) At(i int) bool {
	return b.Data[i/bitsPerByte]&(0x80>>(i%bitsPerByte)) != 0
}

// String renders the bits as '0' and '1' characters.
func (b Bits) String() string {
	var sb strings.Builder

	sb.Grow(b.Len)

	for i := range b.Len {
		if b.At(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	return sb.String()
}

// Encode maps data through the code table.
func (c *Code) Encode(data []byte) (Bits, error) {
	var out Bits

	for _, sym := range data {
		code := c.codes[sym]
		if code == "" {
			return Bits{}, ErrUnknownSymbol
		}

		for i := range len(code) {
			out.push(code[i] == '1')
		}
	}

	return out, nil
}

// Decode reverses Encode.
func (c *Code) Decode(bits Bits) ([]byte, error) {
	out := make([]byte, 0, bits.Len)

	if c.root.leaf() {
		for range bits.Len {
			out = append(out, c.root.sym)
		}

		return out, nil
	}

	n := c.root

	for i := range bits.Len {
		if bits.At(i) {
			n = n.right
		} else {
			n = n.left
		}

		if n.leaf() {
			out = append(out, n.sym)
			n = c.root
		}
	}

	if n != c.root {
		return nil, ErrTruncated
	}

	return out, nil
}

// Stats summarizes the compression of an input.
type Stats struct {
	OriginalBits int     `json:"original_bits" yaml:"original_bits"`
	EncodedBits  int     `json:"encoded_bits"  yaml:"encoded_bits"`
	Symbols      int     `json:"symbols"       yaml:"symbols"`
	SavedPercent float64 `json:"saved_percent" yaml:"saved_percent"`
}

// Compress builds a code for data and encodes it.
func Compress(data []byte) (*Code, Bits, Stats, error) {
	code, err := Build(data)
	if err != nil {
		return nil, Bits{}, Stats{}, err
	}

	bits, err := code.Encode(data)
	if err != nil {
		return nil, Bits{}, Stats{}, err
	}

	original := len(data) * bitsPerByte

	return code, bits, Stats{
		OriginalBits: original,
		EncodedBits:  bits.Len,
		Symbols:      len(code.Codes()),
		SavedPercent: (1 - float64(bits.Len)/float64(original)) * 100,
	}, nil
}
